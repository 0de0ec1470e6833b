// Package settings holds the commands that show and change the stored
// playback preferences.
package settings

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common"
	"github.com/gigurra/crossfader/cmd/common/table"
	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/queue"
	"github.com/gigurra/crossfader/cmd/engine/session"
	"github.com/gigurra/crossfader/cmd/engine/units"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// setting is one key accepted by "settings set".
type setting struct {
	key   string
	help  string
	apply func(a *app.App, value string) (string, error)
}

var keys = []setting{
	{
		key:   "volume",
		help:  "0-100",
		apply: playerState(setVolume),
	},
	{
		key:   "shuffle",
		help:  "on|off",
		apply: playerState(setShuffle),
	},
	{
		key:   "repeat",
		help:  "off|all|one",
		apply: playerState(setRepeat),
	},
	{
		key:   "crossfade",
		help:  "on|off",
		apply: playerState(setCrossfade),
	},
	{
		key:   "crossfade-duration",
		help:  "seconds, e.g. 3 or 4.5s",
		apply: playerState(durationSetter("crossfade duration", func(st *session.PlayerState) *time.Duration { return &st.CrossfadeDuration })),
	},
	{
		key:   "fade-in",
		help:  "seconds",
		apply: playerState(durationSetter("fade in duration", func(st *session.PlayerState) *time.Duration { return &st.FadeInDuration })),
	},
	{
		key:   "fade-out",
		help:  "seconds",
		apply: playerState(durationSetter("fade out duration", func(st *session.PlayerState) *time.Duration { return &st.FadeOutDuration })),
	},
	{
		key:   "safe-mode",
		help:  "on|off",
		apply: setSafeMode,
	},
}

func Cmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "settings",
		Short: "Show or change playback settings",
		SubCmds: []*cobra.Command{
			ShowCmd(),
			SetCmd(),
		},
	}.ToCobra()
}

func ShowCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:         "show",
		Short:       "Show the stored settings",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *boa.NoParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunShow(a, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunShow(a *app.App, w io.Writer) error {
	st, err := a.Session.Restore()
	if err != nil {
		return err
	}
	eqName := "flat"
	if s, ok := a.Session.Equalizer(); ok {
		eqName = eq.MatchPreset(s)
	}
	defaultName := table.Dim("none")
	if id := a.Session.DefaultPlaylistID(); id != "" {
		if p, ok := a.Library.Get(id); ok {
			defaultName = p.Name
		}
	}
	safe := onOff(a.Session.SafeMode())
	if a.Session.SafeMode() {
		safe = table.Warn(safe)
	}

	t := table.NewWriter("Setting", "Value")
	t.AppendRow([]any{"volume", fmt.Sprintf("%d%%", units.GainToPercent(st.Volume))})
	t.AppendRow([]any{"shuffle", onOff(st.Shuffled)})
	t.AppendRow([]any{"repeat", st.Repeat.String()})
	t.AppendRow([]any{"crossfade", onOff(st.CrossfadeEnabled)})
	t.AppendRow([]any{"crossfade-duration", seconds(st.CrossfadeDuration)})
	t.AppendRow([]any{"fade-in", seconds(st.FadeInDuration)})
	t.AppendRow([]any{"fade-out", seconds(st.FadeOutDuration)})
	t.AppendRow([]any{"equalizer", eqName})
	t.AppendRow([]any{"default playlist", defaultName})
	t.AppendRow([]any{"safe-mode", safe})
	fmt.Fprintln(w, t.Render())
	return nil
}

type SetParams struct {
	Key   string `pos:"true" help:"Setting name"`
	Value string `pos:"true" help:"New value"`
}

func SetCmd() *cobra.Command {
	return boa.CmdT[SetParams]{
		Use:         "set <key> <value>",
		Short:       "Change a setting",
		Long:        "Change a setting. Keys:\n" + keyHelp(),
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *SetParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return lo.Map(keys, func(s setting, _ int) string { return s.key + "\t" + s.help }), cobra.ShellCompDirectiveNoFileComp
		},
		RunFunc: func(params *SetParams, cmd *cobra.Command, args []string) {
			app.Run(func(a *app.App) error {
				return RunSet(a, params, os.Stdout)
			})
		},
	}.ToCobra()
}

func RunSet(a *app.App, params *SetParams, w io.Writer) error {
	s, ok := lo.Find(keys, func(s setting) bool { return s.key == strings.ToLower(params.Key) })
	if !ok {
		return errs.Validation("unknown setting %q, want one of: %s", params.Key, strings.Join(lo.Map(keys, func(s setting, _ int) string { return s.key }), ", "))
	}
	// Safe mode must stay switchable while it is on.
	if s.key != "safe-mode" {
		if err := a.Guard("change settings"); err != nil {
			return err
		}
	}
	shown, err := s.apply(a, strings.TrimSpace(params.Value))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s = %s\n", s.key, shown)
	return nil
}

func keyHelp() string {
	var b strings.Builder
	for _, s := range keys {
		fmt.Fprintf(&b, "  %-20s %s\n", s.key, s.help)
	}
	return b.String()
}

type stateSetter func(st *session.PlayerState, value string) (string, error)

func playerState(fn stateSetter) func(a *app.App, value string) (string, error) {
	return func(a *app.App, value string) (string, error) {
		var shown string
		_, err := a.UpdatePlayerState(func(st *session.PlayerState) error {
			var err error
			shown, err = fn(st, value)
			return err
		})
		return shown, err
	}
}

func setVolume(st *session.PlayerState, value string) (string, error) {
	percent, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	if err != nil {
		return "", errs.Validation("invalid volume %q, want 0-100", value)
	}
	st.Volume = units.PercentToGain(percent)
	return fmt.Sprintf("%d%%", units.GainToPercent(st.Volume)), nil
}

func setShuffle(st *session.PlayerState, value string) (string, error) {
	on, err := ParseBool(value)
	if err != nil {
		return "", err
	}
	st.Shuffled = on
	return onOff(on), nil
}

func setRepeat(st *session.PlayerState, value string) (string, error) {
	m, err := queue.ParseRepeatMode(strings.ToLower(value))
	if err != nil {
		return "", errs.Validation("invalid repeat mode %q, want off, all or one", value)
	}
	st.Repeat = m
	return m.String(), nil
}

func setCrossfade(st *session.PlayerState, value string) (string, error) {
	on, err := ParseBool(value)
	if err != nil {
		return "", err
	}
	st.CrossfadeEnabled = on
	return onOff(on), nil
}

func durationSetter(what string, field func(st *session.PlayerState) *time.Duration) stateSetter {
	return func(st *session.PlayerState, value string) (string, error) {
		d, err := ParseSeconds(value)
		if err != nil {
			return "", err
		}
		if d <= 0 {
			return "", errs.Validation("%s must be greater than zero", what)
		}
		*field(st) = d
		return seconds(d), nil
	}
}

func setSafeMode(a *app.App, value string) (string, error) {
	on, err := ParseBool(value)
	if err != nil {
		return "", err
	}
	if err := a.Session.SetSafeMode(on); err != nil {
		return "", err
	}
	return onOff(on), nil
}

// ParseBool accepts on/off, true/false, yes/no and 1/0.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, errs.Validation("invalid value %q, want on or off", s)
}

// ParseSeconds accepts a plain number of seconds or a Go duration like "1500ms".
func ParseSeconds(s string) (time.Duration, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return units.Seconds(v), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errs.Validation("invalid duration %q", s)
	}
	return d, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
