// Package playlist holds the commands that manage stored playlists.
package playlist

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common"
	"github.com/gigurra/crossfader/cmd/common/table"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:     "playlist",
		Aliases: []string{"pl"},
		Short:   "Manage playlists",
		Long:    "Create, edit and inspect playlists. Playlists can be referred to by id, name or list position.",
		SubCmds: []*cobra.Command{
			ListCmd(),
			ShowCmd(),
			NewCmd(),
			RenameCmd(),
			DeleteCmd(),
			AddCmd(),
			RemoveCmd(),
			MoveCmd(),
			ClearCmd(),
			DefaultCmd(),
			ValidateCmd(),
		},
	}.ToCobra()
}

func ListCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:         "ls",
		Aliases:     []string{"list"},
		Short:       "List playlists",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunList(a, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunList(a *app.App, w io.Writer) error {
	playlists := a.Library.List()
	if len(playlists) == 0 {
		fmt.Fprintln(w, "No playlists. Create one with: crossfader playlist new <name>")
		return nil
	}
	defaultID := a.Session.DefaultPlaylistID()
	st, err := a.Session.Restore()
	if err != nil {
		return err
	}

	t := table.NewWriter("#", "Name", "Tracks", "Description", "ID")
	for i, p := range playlists {
		name := p.Name
		switch p.ID {
		case st.CurrentPlaylistID:
			name = table.Highlight(name + " *")
		case defaultID:
			name = table.Highlight(name)
		}
		if p.ID == defaultID {
			name += table.Dim(" (default)")
		}
		desc := p.Description
		if desc == "" {
			desc = table.Dim("-")
		}
		t.AppendRow([]any{i + 1, name, len(p.Tracks), table.Truncate(desc, 40), table.Dim(shortID(p.ID))})
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

type ShowParams struct {
	Playlist string `pos:"true" help:"Playlist id, name or position"`
	Paths    bool   `short:"p" long:"paths" help:"Show full file paths"`
}

func ShowCmd() *cobra.Command {
	return boa.CmdT[ShowParams]{
		Use:         "show <playlist>",
		Short:       "Show the tracks of a playlist",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *ShowParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completions(args, 0)
		},
		RunFunc: func(params *ShowParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunShow(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunShow(a *app.App, params *ShowParams, w io.Writer) error {
	p, err := a.Resolve(params.Playlist)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%d tracks)\n", p.Name, len(p.Tracks))
	if p.Description != "" {
		fmt.Fprintln(w, table.Dim(p.Description))
	}
	if len(p.Tracks) == 0 {
		return nil
	}

	header := []any{"#", "Title", "Artist", "Album", "Duration"}
	if params.Paths {
		header = append(header, "Path")
	}
	t := table.NewWriter(header...)
	for i, tr := range p.Tracks {
		row := []any{i + 1, table.Truncate(tr.DisplayTitle(), 40), table.Truncate(artist(tr), 24), table.Truncate(tr.Album, 24), tr.Duration}
		if params.Paths {
			row = append(row, table.TruncateStart(tr.Path, 50))
		}
		t.AppendRow(row)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func artist(t library.Track) string {
	if t.Artist == "" {
		return library.UnknownArtist
	}
	return t.Artist
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// completions offers playlist names for the positional argument at pos.
func completions(args []string, pos int) ([]string, cobra.ShellCompDirective) {
	if len(args) != pos {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	a, closeLog, err := app.Setup(true)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer closeLog()
	var out []string
	for i, p := range a.Library.List() {
		out = append(out, p.Name+"\t#"+strconv.Itoa(i+1))
	}
	return out, cobra.ShellCompDirectiveKeepOrder | cobra.ShellCompDirectiveNoFileComp
}
