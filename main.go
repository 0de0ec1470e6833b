package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/crossfader/cmd/equalizer"
	"github.com/gigurra/crossfader/cmd/play"
	"github.com/gigurra/crossfader/cmd/playlist"
	"github.com/gigurra/crossfader/cmd/reset"
	"github.com/gigurra/crossfader/cmd/settings"
	"github.com/gigurra/crossfader/cmd/transfer"
	"github.com/spf13/cobra"
)

// Command group IDs
const (
	groupPlayback = "playback"
	groupLibrary  = "library"
	groupSettings = "settings"
)

// withGroup sets the GroupID on a command and returns it
func withGroup(cmd *cobra.Command, group string) *cobra.Command {
	cmd.GroupID = group
	return cmd
}

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "crossfader",
		Short:   "Terminal music player with crossfading playlists",
		Version: appVersion(),
		Groups: []*cobra.Group{
			{ID: groupPlayback, Title: "Playback:"},
			{ID: groupLibrary, Title: "Library:"},
			{ID: groupSettings, Title: "Settings:"},
		},
		SubCmds: []*cobra.Command{
			withGroup(play.Cmd(), groupPlayback),

			withGroup(playlist.Cmd(), groupLibrary),
			withGroup(transfer.ExportCmd(), groupLibrary),
			withGroup(transfer.ImportCmd(), groupLibrary),

			withGroup(equalizer.Cmd(), groupSettings),
			withGroup(settings.Cmd(), groupSettings),
			withGroup(reset.Cmd(), groupSettings),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
