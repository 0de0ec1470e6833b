package playlist

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common"
	"github.com/gigurra/crossfader/cmd/common/table"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/spf13/cobra"
)

type NewParams struct {
	Name        string `pos:"true" help:"Playlist name"`
	Description string `short:"d" long:"description" optional:"true" help:"Playlist description"`
}

func NewCmd() *cobra.Command {
	return boa.CmdT[NewParams]{
		Use:         "new <name>",
		Aliases:     []string{"create"},
		Short:       "Create an empty playlist",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *NewParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunNew(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunNew(a *app.App, params *NewParams, w io.Writer) error {
	if err := a.Guard("create playlists"); err != nil {
		return err
	}
	p, err := a.Library.Create(params.Name, params.Description)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created playlist %q (%s)\n", p.Name, shortID(p.ID))
	return nil
}

type RenameParams struct {
	Playlist    string `pos:"true" help:"Playlist id, name or position"`
	Name        string `pos:"true" help:"New name"`
	Description string `short:"d" long:"description" optional:"true" help:"New description (kept when omitted)"`
}

func RenameCmd() *cobra.Command {
	return boa.CmdT[RenameParams]{
		Use:         "rename <playlist> <name>",
		Aliases:     []string{"edit"},
		Short:       "Rename a playlist or change its description",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *RenameParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completions(args, 0)
		},
		RunFunc: func(params *RenameParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunRename(a, params, cmd.Flags().Changed("description"), os.Stdout)
			})
		},
	}.ToCobra()
}

func RunRename(a *app.App, params *RenameParams, descriptionSet bool, w io.Writer) error {
	if err := a.Guard("edit playlists"); err != nil {
		return err
	}
	p, err := a.Resolve(params.Playlist)
	if err != nil {
		return err
	}
	desc := p.Description
	if descriptionSet {
		desc = params.Description
	}
	updated, err := a.Library.Rename(p.ID, params.Name, desc)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Renamed %q to %q\n", p.Name, updated.Name)
	return nil
}

type DeleteParams struct {
	Playlist string `pos:"true" help:"Playlist id, name or position"`
}

func DeleteCmd() *cobra.Command {
	return boa.CmdT[DeleteParams]{
		Use:         "rm <playlist>",
		Aliases:     []string{"delete"},
		Short:       "Delete a playlist",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *DeleteParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completions(args, 0)
		},
		RunFunc: func(params *DeleteParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunDelete(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunDelete(a *app.App, params *DeleteParams, w io.Writer) error {
	if err := a.Guard("delete playlists"); err != nil {
		return err
	}
	p, err := a.Resolve(params.Playlist)
	if err != nil {
		return err
	}
	if err := a.DeletePlaylist(p.ID); err != nil {
		return err
	}
	fmt.Fprintf(w, "Deleted playlist %q\n", p.Name)
	return nil
}

type AddParams struct {
	Playlist string   `pos:"true" help:"Playlist id, name or position"`
	Paths    []string `pos:"true" required:"true" help:"Audio files or directories to add"`
}

func AddCmd() *cobra.Command {
	return boa.CmdT[AddParams]{
		Use:         "add <playlist> <path>...",
		Short:       "Add audio files to a playlist",
		Long:        "Add audio files to a playlist. Directories are scanned recursively. Files already in the playlist are skipped.",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *AddParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return completions(args, 0)
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunFunc: func(params *AddParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunAdd(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunAdd(a *app.App, params *AddParams, w io.Writer) error {
	if err := a.Guard("edit playlists"); err != nil {
		return err
	}
	p, err := a.Resolve(params.Playlist)
	if err != nil {
		return err
	}
	updated, res, err := a.Library.AddTracks(p.ID, params.Paths)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Added %d track(s) to %q (%d total)\n", res.Added, updated.Name, len(updated.Tracks))
	if res.Duplicates > 0 {
		fmt.Fprintln(w, table.Dim(fmt.Sprintf("%d already in the playlist", res.Duplicates)))
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintln(w, table.Warn(fmt.Sprintf("Skipped %d non-audio or unreadable path(s): %s", len(res.Skipped), strings.Join(res.Skipped, ", "))))
	}
	return nil
}

type RemoveParams struct {
	Playlist string `pos:"true" help:"Playlist id, name or position"`
	Track    int    `pos:"true" help:"Track number to remove (1-based)"`
}

func RemoveCmd() *cobra.Command {
	return boa.CmdT[RemoveParams]{
		Use:         "remove <playlist> <track>",
		Short:       "Remove a track from a playlist",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *RemoveParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completions(args, 0)
		},
		RunFunc: func(params *RemoveParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunRemove(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunRemove(a *app.App, params *RemoveParams, w io.Writer) error {
	if err := a.Guard("edit playlists"); err != nil {
		return err
	}
	p, err := a.Resolve(params.Playlist)
	if err != nil {
		return err
	}
	index := params.Track - 1
	if index < 0 || index >= len(p.Tracks) {
		return trackRange(params.Track, p.Name, len(p.Tracks))
	}
	title := p.Tracks[index].DisplayTitle()
	if _, err := a.Library.RemoveTrack(p.ID, index); err != nil {
		return err
	}
	fmt.Fprintf(w, "Removed %q from %q\n", title, p.Name)
	return nil
}

type MoveParams struct {
	Playlist string `pos:"true" help:"Playlist id, name or position"`
	From     int    `pos:"true" help:"Track number to move (1-based)"`
	To       int    `pos:"true" help:"New position (1-based)"`
}

func MoveCmd() *cobra.Command {
	return boa.CmdT[MoveParams]{
		Use:         "move <playlist> <from> <to>",
		Aliases:     []string{"mv"},
		Short:       "Move a track within a playlist",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *MoveParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completions(args, 0)
		},
		RunFunc: func(params *MoveParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunMove(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunMove(a *app.App, params *MoveParams, w io.Writer) error {
	if err := a.Guard("edit playlists"); err != nil {
		return err
	}
	p, err := a.Resolve(params.Playlist)
	if err != nil {
		return err
	}
	for _, n := range []int{params.From, params.To} {
		if n < 1 || n > len(p.Tracks) {
			return trackRange(n, p.Name, len(p.Tracks))
		}
	}
	updated, err := a.Library.MoveTrack(p.ID, params.From-1, params.To-1)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Moved %q to position %d\n", updated.Tracks[params.To-1].DisplayTitle(), params.To)
	return nil
}

type ClearParams struct {
	Playlist string `pos:"true" help:"Playlist id, name or position"`
}

func ClearCmd() *cobra.Command {
	return boa.CmdT[ClearParams]{
		Use:         "clear <playlist>",
		Short:       "Remove every track from a playlist",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *ClearParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completions(args, 0)
		},
		RunFunc: func(params *ClearParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunClear(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunClear(a *app.App, params *ClearParams, w io.Writer) error {
	if err := a.Guard("edit playlists"); err != nil {
		return err
	}
	p, err := a.Resolve(params.Playlist)
	if err != nil {
		return err
	}
	if _, err := a.Library.Clear(p.ID); err != nil {
		return err
	}
	fmt.Fprintf(w, "Cleared %d track(s) from %q\n", len(p.Tracks), p.Name)
	return nil
}

func trackRange(n int, name string, count int) error {
	return errs.Validation("track %d out of range (%q has %d)", n, name, count)
}
