package reset

import (
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/spf13/cobra"
)

type Params struct {
	Yes bool `short:"y" long:"yes" help:"Confirm that every playlist and setting should be deleted"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "reset",
		Short:       "Delete all playlists and settings",
		Long:        "Delete every stored playlist, the player state, the equalizer and the safe mode flag. The config file is kept. Requires --yes.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return Run(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func Run(a *app.App, params *Params, w io.Writer) error {
	if !params.Yes {
		return errs.Validation("reset deletes all %d playlist(s) and every setting, re-run with --yes to confirm", len(a.Library.List()))
	}
	if err := a.Session.Reset(); err != nil {
		return err
	}
	if err := a.Library.Reload(); err != nil {
		return err
	}
	fmt.Fprintln(w, "All playlists and settings deleted")
	return nil
}
