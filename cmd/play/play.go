// Package play is the interactive player.
package play

import (
	"context"
	"log/slog"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common"
	"github.com/gigurra/crossfader/cmd/common/notify"
	"github.com/gigurra/crossfader/cmd/engine/kvstore"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/gigurra/crossfader/cmd/engine/loop"
	"github.com/gigurra/crossfader/cmd/engine/media"
	"github.com/gigurra/crossfader/cmd/engine/queue"
	"github.com/spf13/cobra"
)

// uiRefresh is how often the screen redraws while idle.
const uiRefresh = 200 * time.Millisecond

type Params struct {
	Playlist string `pos:"true" optional:"true" help:"Playlist id, name or position to load (default: last session's)"`
	Autoplay bool   `short:"a" long:"autoplay" help:"Start playing right away"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "play [playlist]",
		Short:       "Open the player",
		Long:        "Open the interactive player. Without an argument the playlist and track from the last session are restored, falling back to the default playlist.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			common.ExitOnError(Run(params))
		},
	}.ToCobra()
}

func Run(params *Params) error {
	a, closeLog, err := app.Setup(true)
	if err != nil {
		return err
	}
	defer closeLog()

	var override *library.Playlist
	if params.Playlist != "" {
		p, err := a.Resolve(params.Playlist)
		if err != nil {
			return err
		}
		override = &p
	}
	if !media.AudioAvailable {
		slog.Warn("audio output is not available in this build, playing silently")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := loop.New(256)
	go l.Run(ctx)

	graph := a.Equalizer()
	backend := media.NewBackend(l, graph, a.Config.AudioOptions())
	defer backend.Close()

	var resolver *queue.Resolver
	if seed := a.Config.Player.ShuffleSeed; seed != 0 {
		resolver = queue.NewSeeded(seed)
	}
	notifier := notify.New(a.Config.Notifications.Enabled, a.Config.Notifications.Cooldown(), nil)

	player := NewPlayer(a, l, l, PlayerOptions{
		Backend:  backend,
		Graph:    graph,
		Notifier: notifier,
		Resolver: resolver,
		Playlist: override,
		Autoplay: params.Autoplay,
	})
	defer player.Close()

	if a.Config.Player.WatchLibrary {
		w, err := kvstore.NewWatcher(a.Store, player.Reload)
		if err != nil {
			slog.Warn("not watching the store for changes", "error", err)
		} else {
			w.StartAsync()
			defer w.Stop()
		}
	}

	slog.Info("player started", "store", a.Store.Path(), "audio", media.AudioAvailable)
	_, err = tea.NewProgram(newModel(player, uiRefresh), tea.WithAltScreen()).Run()
	return err
}
