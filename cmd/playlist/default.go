package playlist

import (
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common"
	"github.com/gigurra/crossfader/cmd/common/table"
	"github.com/spf13/cobra"
)

type DefaultParams struct {
	Playlist string `pos:"true" optional:"true" help:"Playlist id, name or position to load at startup"`
	Clear    bool   `short:"c" long:"clear" help:"Unset the default playlist"`
}

func DefaultCmd() *cobra.Command {
	return boa.CmdT[DefaultParams]{
		Use:         "default [playlist]",
		Short:       "Show or set the playlist loaded at startup",
		Long:        "Show or set the default playlist. It is loaded at startup when the last session's playlist no longer exists.",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *DefaultParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completions(args, 0)
		},
		RunFunc: func(params *DefaultParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunDefault(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunDefault(a *app.App, params *DefaultParams, w io.Writer) error {
	switch {
	case params.Clear:
		if err := a.Guard("change the default playlist"); err != nil {
			return err
		}
		if err := a.Session.SetDefaultPlaylistID(""); err != nil {
			return err
		}
		fmt.Fprintln(w, "Default playlist cleared")
		return nil

	case params.Playlist != "":
		if err := a.Guard("change the default playlist"); err != nil {
			return err
		}
		p, err := a.Resolve(params.Playlist)
		if err != nil {
			return err
		}
		if err := a.Session.SetDefaultPlaylistID(p.ID); err != nil {
			return err
		}
		fmt.Fprintf(w, "Default playlist set to %q\n", p.Name)
		return nil
	}

	id := a.Session.DefaultPlaylistID()
	if id == "" {
		fmt.Fprintln(w, table.Dim("No default playlist"))
		return nil
	}
	p, ok := a.Library.Get(id)
	if !ok {
		fmt.Fprintln(w, table.Warn("Default playlist "+shortID(id)+" no longer exists"))
		return nil
	}
	fmt.Fprintln(w, p.Name)
	return nil
}

func ValidateCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:         "validate",
		Short:       "Drop missing files and detect unknown durations",
		Long:        "Check every track of every playlist. Tracks whose files are gone are removed and unknown durations are read from the files.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunValidate(a, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunValidate(a *app.App, w io.Writer) error {
	if err := a.Guard("validate playlists"); err != nil {
		return err
	}
	res, err := a.Library.Validate()
	if err != nil {
		return err
	}
	for _, t := range res.Missing {
		fmt.Fprintln(w, table.Warn("missing: ")+t.Path)
	}
	fmt.Fprintln(w, res.Summary())
	return nil
}
