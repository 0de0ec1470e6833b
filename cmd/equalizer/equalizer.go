// Package equalizer holds the commands that inspect and change the stored
// equalizer bands.
package equalizer

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common"
	"github.com/gigurra/crossfader/cmd/common/table"
	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:     "eq",
		Aliases: []string{"equalizer"},
		Short:   "Show or change the equalizer",
		Long:    "Nine peaking bands from 60 Hz to 16 kHz, each between -12 and +12 dB. Changes apply to the next playback session.",
		SubCmds: []*cobra.Command{
			ShowCmd(),
			SetCmd(),
			PresetCmd(),
			ResetCmd(),
		},
	}.ToCobra()
}

func ShowCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:         "show",
		Short:       "Show the band gains",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunShow(a, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunShow(a *app.App, w io.Writer) error {
	g := a.Equalizer()
	gains := g.Gains()
	fmt.Fprintf(w, "Preset: %s\n", eq.MatchPreset(g.Settings()))
	t := table.NewWriter("Band", "Gain", "")
	for i, f := range eq.Frequencies {
		t.AppendRow([]any{FormatFrequency(f), fmt.Sprintf("%+.1f dB", gains[i]), bar(gains[i])})
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

// bar draws gain as a horizontal bar around a center mark.
func bar(db float64) string {
	const half = 12
	n := int(db / eq.MaxGainDB * half)
	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	switch {
	case n > 0:
		right = table.Highlight(strings.Repeat("█", n)) + strings.Repeat(" ", half-n)
	case n < 0:
		left = strings.Repeat(" ", half+n) + table.Warn(strings.Repeat("█", -n))
	}
	return left + "│" + right
}

type SetParams struct {
	Band string  `pos:"true" help:"Band center frequency, e.g. 60, 1000 or 1k"`
	Gain float64 `pos:"true" help:"Gain in dB, clamped to -12..12"`
}

func SetCmd() *cobra.Command {
	return boa.CmdT[SetParams]{
		Use:         "set <band> <gain>",
		Short:       "Set one band",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *SetParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var out []string
			for _, f := range eq.Frequencies {
				out = append(out, strconv.Itoa(f))
			}
			return out, cobra.ShellCompDirectiveKeepOrder | cobra.ShellCompDirectiveNoFileComp
		},
		RunFunc: func(params *SetParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunSet(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunSet(a *app.App, params *SetParams, w io.Writer) error {
	if err := a.Guard("change the equalizer"); err != nil {
		return err
	}
	freq, err := ParseFrequency(params.Band)
	if err != nil {
		return err
	}
	g := a.Equalizer()
	if err := g.SetBand(freq, params.Gain); err != nil {
		return err
	}
	if err := a.Session.SaveEqualizer(g.Settings()); err != nil {
		return err
	}
	i, _ := eq.BandIndex(freq)
	fmt.Fprintf(w, "%s set to %+.1f dB\n", FormatFrequency(freq), g.Gains()[i])
	return nil
}

type PresetParams struct {
	Name string `pos:"true" help:"Preset name"`
}

func PresetCmd() *cobra.Command {
	return boa.CmdT[PresetParams]{
		Use:         "preset <name>",
		Short:       "Load a preset (" + strings.Join(eq.PresetNames(), ", ") + ")",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *PresetParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return eq.PresetNames(), cobra.ShellCompDirectiveKeepOrder | cobra.ShellCompDirectiveNoFileComp
		},
		RunFunc: func(params *PresetParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunPreset(a, params.Name, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunPreset(a *app.App, name string, w io.Writer) error {
	if err := a.Guard("change the equalizer"); err != nil {
		return err
	}
	g := eq.NewGraph()
	if err := g.ApplyPreset(strings.ToLower(name)); err != nil {
		return err
	}
	if err := a.Session.SaveEqualizer(g.Settings()); err != nil {
		return err
	}
	fmt.Fprintf(w, "Equalizer preset %s: %s\n", strings.ToLower(name), eq.Describe(g.Settings()))
	return nil
}

func ResetCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:         "reset",
		Short:       "Set every band to 0 dB",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunPreset(a, "flat", os.Stdout)
			})
		},
	}.ToCobra()
}

// ParseFrequency accepts "1000", "1k", "1kHz" or "1.5k".
func ParseFrequency(s string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "hz")
	mult := 1.0
	if strings.HasSuffix(v, "k") {
		mult = 1000
		v = strings.TrimSuffix(v, "k")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errs.Validation("invalid band %q", s)
	}
	freq := int(f * mult)
	if _, ok := eq.BandIndex(freq); !ok {
		return 0, errs.Validation("unknown equalizer band %q (bands: %s)", s, bandList())
	}
	return freq, nil
}

func FormatFrequency(freq int) string {
	if freq >= 1000 {
		return strconv.FormatFloat(float64(freq)/1000, 'f', -1, 64) + " kHz"
	}
	return strconv.Itoa(freq) + " Hz"
}

func bandList() string {
	parts := make([]string, len(eq.Frequencies))
	for i, f := range eq.Frequencies {
		parts[i] = strconv.Itoa(f)
	}
	return strings.Join(parts, ", ")
}
