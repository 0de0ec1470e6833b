// Package transfer holds the export and import commands.
package transfer

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common"
	"github.com/spf13/cobra"
)

type ExportParams struct {
	File string `pos:"true" optional:"true" help:"Output file (default: crossfader-playlists-<date>.json)"`
}

func ExportCmd() *cobra.Command {
	return boa.CmdT[ExportParams]{
		Use:         "export [file]",
		Short:       "Export every playlist and the settings to a JSON file",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ExportParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunExport(a, params.File, time.Now(), os.Stdout)
			})
		},
	}.ToCobra()
}

// DefaultExportName is the file name used when none is given.
func DefaultExportName(now time.Time) string {
	return "crossfader-playlists-" + now.Format("2006-01-02") + ".json"
}

func RunExport(a *app.App, file string, now time.Time, w io.Writer) error {
	if file == "" {
		file = DefaultExportName(now)
	}
	n, err := a.Export(file, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Exported %d playlist(s) to %s\n", n, file)
	return nil
}

type ImportParams struct {
	File string `pos:"true" help:"File written by export"`
}

func ImportCmd() *cobra.Command {
	return boa.CmdT[ImportParams]{
		Use:         "import <file>",
		Short:       "Import playlists and settings from an export file",
		Long:        "Import playlists and settings from an export file. Playlists are added next to the existing ones; name clashes get a numeric suffix. Tracks whose files no longer exist are skipped.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ImportParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunImport(a, params.File, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunImport(a *app.App, file string, w io.Writer) error {
	res, err := a.Import(file)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, res.Summary())
	for _, p := range res.Playlists {
		fmt.Fprintf(w, "  %s (%d tracks)\n", p.Name, len(p.Tracks))
	}
	return nil
}
