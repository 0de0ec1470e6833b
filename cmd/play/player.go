package play

import (
	"log/slog"
	"time"

	"github.com/gigurra/crossfader/cmd/app"
	"github.com/gigurra/crossfader/cmd/common/notify"
	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/gigurra/crossfader/cmd/engine/loop"
	"github.com/gigurra/crossfader/cmd/engine/media"
	"github.com/gigurra/crossfader/cmd/engine/queue"
	"github.com/gigurra/crossfader/cmd/engine/session"
	"github.com/gigurra/crossfader/cmd/engine/transport"
)

// runner executes fn on the control goroutine and waits for it.
type runner interface {
	Do(fn func())
}

// Notice is the last message the engine raised for the user.
type Notice struct {
	Level transport.NoticeLevel
	Text  string
	At    time.Time
}

// Snapshot is what the UI draws from. Tracks is only filled in when the
// playlist changed since the revision the caller already has.
type Snapshot struct {
	Status transport.Status
	Rev    int
	Tracks []library.Track
	EQ     string
	Notice Notice
}

// Player owns the controller and every piece of state that lives on the
// control goroutine. All exported methods are safe to call from the UI.
type Player struct {
	app      *app.App
	sched    loop.Scheduler
	run      runner
	ctrl     *transport.Controller
	graph    *eq.Graph
	notifier *notify.Notifier

	rev      int
	notice   Notice
	lastPath string
}

type PlayerOptions struct {
	Backend  media.Backend
	Graph    *eq.Graph
	Notifier *notify.Notifier
	Resolver *queue.Resolver
	// Playlist overrides the one restored from the last session.
	Playlist *library.Playlist
	Autoplay bool
}

// NewPlayer builds the controller on the control goroutine, restores the last
// session and arms the progress tick.
func NewPlayer(a *app.App, sched loop.Scheduler, run runner, opts PlayerOptions) *Player {
	p := &Player{
		app:      a,
		sched:    sched,
		run:      run,
		graph:    opts.Graph,
		notifier: opts.Notifier,
	}
	run.Do(func() {
		p.ctrl = transport.New(sched, opts.Backend, transport.Options{
			Persister: a.Session,
			Hooks: transport.Hooks{
				TrackChanged: p.trackChanged,
				Notice:       p.raise,
			},
			Resolver:                 opts.Resolver,
			TickInterval:             a.Config.TickInterval(),
			LockPlaylistWhilePlaying: a.Config.Player.LockPlaylistWhilePlaying,
		})
		p.restore(opts.Playlist)
		p.ctrl.Start()
		if opts.Autoplay {
			p.ctrl.Play()
		}
	})
	return p
}

func (p *Player) restore(override *library.Playlist) {
	st, err := p.app.Session.Restore()
	if err != nil {
		slog.Warn("failed to restore player state", "error", err)
	}
	p.ctrl.SetSafeMode(p.app.Session.SafeMode())
	switch {
	case override != nil:
		p.ctrl.Restore(st, nil, 0)
		if err := p.ctrl.LoadPlaylist(*override); err != nil {
			p.raise(transport.NoticeError, errs.Message(err))
		}
	default:
		if pl, index, ok := p.app.Session.StartupPlaylist(st, p.app.Library); ok {
			p.ctrl.Restore(st, &pl, index)
		} else {
			p.ctrl.Restore(st, nil, 0)
		}
	}
}

// Snapshot reads the display state. rev is the revision the caller last saw.
func (p *Player) Snapshot(rev int) Snapshot {
	var s Snapshot
	p.run.Do(func() {
		s = Snapshot{
			Status: p.ctrl.Status(),
			Rev:    p.rev,
			EQ:     eq.MatchPreset(p.graph.Settings()),
			Notice: p.notice,
		}
		if rev != p.rev {
			if st := p.ctrl.State(); st.Playlist != nil {
				s.Tracks = st.Playlist.Tracks
			} else {
				s.Tracks = []library.Track{}
			}
		}
	})
	return s
}

// Act runs fn against the controller on the control goroutine.
func (p *Player) Act(fn func(c *transport.Controller) error) error {
	var err error
	p.run.Do(func() { err = fn(p.ctrl) })
	return err
}

// CycleEQ moves to the next preset and stores it.
func (p *Player) CycleEQ() (string, error) {
	if p.app.Session.SafeMode() {
		return "", errs.Validation("cannot change the equalizer while safe mode is enabled")
	}
	var name string
	var err error
	p.run.Do(func() {
		name = eq.NextPreset(eq.MatchPreset(p.graph.Settings()))
		if err = p.graph.ApplyPreset(name); err != nil {
			return
		}
		err = p.app.Session.SaveEqualizer(p.graph.Settings())
	})
	return name, err
}

// SwitchPlaylist loads the playlist delta steps away in library order.
func (p *Player) SwitchPlaylist(delta int) (string, error) {
	var name string
	var err error
	p.run.Do(func() {
		lists := p.app.Library.List()
		if len(lists) == 0 {
			err = errs.Validation("no playlists, create one with: crossfader playlist new <name>")
			return
		}
		current := -1
		id := p.ctrl.Status().PlaylistID
		for i, pl := range lists {
			if pl.ID == id {
				current = i
			}
		}
		next := 0
		if current >= 0 {
			next = ((current+delta)%len(lists) + len(lists)) % len(lists)
		}
		name = lists[next].Name
		err = p.ctrl.LoadPlaylist(lists[next])
	})
	return name, err
}

// Reload picks up changes another process wrote to the store. It is the
// store watcher's handler and runs on the watcher goroutine.
func (p *Player) Reload() {
	p.sched.Post(p.reload)
}

func (p *Player) reload() {
	if err := p.app.Library.Reload(); err != nil {
		slog.Warn("failed to reload playlists", "error", err)
		return
	}
	p.ctrl.SetSafeMode(p.app.Session.SafeMode())
	if s, ok := p.app.Session.Equalizer(); ok {
		p.graph.Apply(s)
	}
	if st, err := p.app.Session.Restore(); err == nil && !sameSettings(st, p.ctrl.PlayerState()) {
		p.ctrl.Restore(st, nil, 0)
	}
	if id := p.ctrl.Status().PlaylistID; id != "" {
		if pl, ok := p.app.Library.Get(id); ok {
			p.ctrl.RefreshPlaylist(pl)
		} else {
			p.ctrl.UnloadPlaylist()
			p.raise(transport.NoticeWarning, "The playlist was deleted")
		}
	}
	p.rev++
}

// sameSettings compares the preference fields, not the position.
func sameSettings(a, b session.PlayerState) bool {
	a.CurrentPlaylistID, b.CurrentPlaylistID = "", ""
	a.CurrentTrackIndex, b.CurrentTrackIndex = 0, 0
	return a == b
}

// Close stops playback and the timers.
func (p *Player) Close() {
	p.run.Do(p.ctrl.Stop)
}

func (p *Player) trackChanged(s transport.Status) {
	p.rev++
	if !s.HasTrack || s.Track.Path == p.lastPath {
		return
	}
	p.lastPath = s.Track.Path
	if s.Playing {
		go p.notifier.TrackChanged(s.Track.DisplayTitle(), s.Track.Artist)
	}
}

func (p *Player) raise(level transport.NoticeLevel, msg string) {
	p.notice = Notice{Level: level, Text: msg, At: p.sched.Now()}
	if level == transport.NoticeError {
		go p.notifier.Problem(msg)
	}
}
