// Package transport is the playback controller. It owns the engine state,
// turns user intents into slot and crossfade operations, and persists the
// player state after every committed change.
//
// A Controller is not safe for concurrent use. Every method, and every
// callback it registers, runs on the scheduler's control goroutine.
package transport

import (
	"log/slog"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/crossfade"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/gigurra/crossfader/cmd/engine/loop"
	"github.com/gigurra/crossfader/cmd/engine/media"
	"github.com/gigurra/crossfader/cmd/engine/queue"
	"github.com/gigurra/crossfader/cmd/engine/session"
	"github.com/gigurra/crossfader/cmd/engine/slot"
)

const (
	DefaultTickInterval = 250 * time.Millisecond
	DefaultFadeInterval = 50 * time.Millisecond
	// RestartThreshold is how far into a track "previous" restarts it instead.
	RestartThreshold = 3 * time.Second
)

// EndOfPlaylist is the "playing next" text when nothing follows.
const EndOfPlaylist = "End of playlist"

// Settings are the persisted playback preferences.
type Settings struct {
	CrossfadeEnabled  bool
	CrossfadeDuration time.Duration
	FadeOutDuration   time.Duration
	FadeInDuration    time.Duration
}

// EngineState is the controller's single source of truth.
type EngineState struct {
	Playlist       *library.Playlist
	Current        int
	Playing        bool
	Volume         float64
	Muted          bool
	PreviousVolume float64
	Shuffled       bool
	Repeat         queue.RepeatMode
	Settings       Settings
	SafeMode       bool
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// Hooks are called synchronously on the control goroutine.
type Hooks struct {
	TrackChanged func(Status)
	Notice       func(level NoticeLevel, msg string)
}

// Persister stores the player state record.
type Persister interface {
	Save(session.PlayerState) error
}

type Options struct {
	Persister Persister
	Hooks     Hooks
	// Resolver defaults to a time-seeded one.
	Resolver                 *queue.Resolver
	TickInterval             time.Duration
	FadeInterval             time.Duration
	LockPlaylistWhilePlaying bool
}

type Controller struct {
	sched    loop.Scheduler
	pair     *slot.Pair
	resolver *queue.Resolver
	xfade    *crossfade.Orchestrator
	opts     Options

	state    EngineState
	txnDepth int
	fade     *fade
	failures int
	ticker   loop.Timer
}

// New creates a controller with default settings and no playlist loaded.
func New(sched loop.Scheduler, backend media.Backend, opts Options) *Controller {
	if opts.Resolver == nil {
		opts.Resolver = queue.New(nil)
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.FadeInterval <= 0 {
		opts.FadeInterval = DefaultFadeInterval
	}
	c := &Controller{
		sched:    sched,
		pair:     slot.NewPair(backend),
		resolver: opts.Resolver,
		opts:     opts,
	}
	c.pair.SetHandler(c)
	c.xfade = crossfade.New(c.pair, c.resolver, sched, c)
	c.applyPlayerState(session.DefaultPlayerState())
	return c
}

// Start arms the progress tick.
func (c *Controller) Start() {
	if c.ticker == nil {
		c.ticker = c.sched.Every(c.opts.TickInterval, c.Tick)
	}
}

// Stop halts playback and every timer. The controller can be started again.
func (c *Controller) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.stopFade()
	c.xfade.Cancel()
	for _, s := range c.pair.Slots() {
		s.Pause()
	}
	c.state.Playing = false
}

// Restore applies a stored player state and, when p is non-nil, loads it
// paused at index.
func (c *Controller) Restore(st session.PlayerState, p *library.Playlist, index int) {
	c.applyPlayerState(st)
	if p == nil {
		return
	}
	pl := p.Clone()
	c.state.Playlist = &pl
	c.state.Current = 0
	if index >= 0 && index < len(pl.Tracks) {
		c.state.Current = index
	}
	c.resolver.Reset(len(pl.Tracks), c.state.Current)
	if len(pl.Tracks) > 0 {
		c.loadCurrent()
	}
}

func (c *Controller) applyPlayerState(st session.PlayerState) {
	c.state.Volume = st.Volume
	c.state.Muted = st.Volume == 0
	c.state.PreviousVolume = st.Volume
	c.state.Shuffled = st.Shuffled
	c.state.Repeat = st.Repeat
	c.state.Settings = Settings{
		CrossfadeEnabled:  st.CrossfadeEnabled,
		CrossfadeDuration: st.CrossfadeDuration,
		FadeOutDuration:   st.FadeOutDuration,
		FadeInDuration:    st.FadeInDuration,
	}
	c.resolver.SetRepeat(st.Repeat)
	current := 0
	if c.hasTracks() {
		current = c.state.Current
	}
	c.resolver.SetShuffled(st.Shuffled, current)
	c.pair.Active().SetGain(c.state.Volume, 0)
}

// State returns a copy of the engine state.
func (c *Controller) State() EngineState {
	st := c.state
	if st.Playlist != nil {
		pl := st.Playlist.Clone()
		st.Playlist = &pl
	}
	return st
}

// PlayerState is the record persisted after each change.
func (c *Controller) PlayerState() session.PlayerState {
	st := session.PlayerState{
		CurrentTrackIndex: c.state.Current,
		Volume:            c.state.Volume,
		Shuffled:          c.state.Shuffled,
		Repeat:            c.state.Repeat,
		CrossfadeEnabled:  c.state.Settings.CrossfadeEnabled,
		CrossfadeDuration: c.state.Settings.CrossfadeDuration,
		FadeOutDuration:   c.state.Settings.FadeOutDuration,
		FadeInDuration:    c.state.Settings.FadeInDuration,
	}
	if c.state.Playlist != nil {
		st.CurrentPlaylistID = c.state.Playlist.ID
	}
	return st
}

func (c *Controller) persist() {
	if c.opts.Persister == nil || c.txnDepth > 0 {
		return
	}
	if err := c.opts.Persister.Save(c.PlayerState()); err != nil {
		slog.Warn("failed to persist player state", "error", err)
	}
}

func (c *Controller) notice(level NoticeLevel, msg string) {
	if c.opts.Hooks.Notice != nil {
		c.opts.Hooks.Notice(level, msg)
	}
}

func (c *Controller) trackChanged() {
	if c.opts.Hooks.TrackChanged != nil {
		c.opts.Hooks.TrackChanged(c.Status())
	}
}

func (c *Controller) hasTracks() bool {
	return c.state.Playlist != nil && len(c.state.Playlist.Tracks) > 0
}

func (c *Controller) trackCount() int {
	if c.state.Playlist == nil {
		return 0
	}
	return len(c.state.Playlist.Tracks)
}

// Status is a display snapshot.
type Status struct {
	PlaylistID     string
	PlaylistName   string
	TrackCount     int
	Index          int
	Track          library.Track
	HasTrack       bool
	NextTitle      string
	Playing        bool
	Loading        bool
	Position       time.Duration
	Duration       time.Duration
	Volume         float64
	Muted          bool
	Shuffled       bool
	Repeat         queue.RepeatMode
	Settings       Settings
	SafeMode       bool
	Crossfade      crossfade.State
	CrossfadeStep  int
	CrossfadeSteps int
	Fade           FadeKind
}

func (c *Controller) Status() Status {
	s := Status{
		Index:     c.state.Current,
		Playing:   c.state.Playing,
		Volume:    c.state.Volume,
		Muted:     c.state.Muted,
		Shuffled:  c.state.Shuffled,
		Repeat:    c.state.Repeat,
		Settings:  c.state.Settings,
		SafeMode:  c.state.SafeMode,
		Crossfade: c.xfade.State(),
		Fade:      c.FadeKind(),
	}
	s.CrossfadeStep, s.CrossfadeSteps = c.xfade.Step()
	if c.state.Playlist == nil {
		return s
	}
	s.PlaylistID = c.state.Playlist.ID
	s.PlaylistName = c.state.Playlist.Name
	s.TrackCount = len(c.state.Playlist.Tracks)
	if !c.hasTracks() {
		return s
	}
	s.HasTrack = true
	s.Track = c.state.Playlist.Tracks[c.state.Current]
	active := c.pair.Active()
	s.Loading = active.Loading()
	if active.Track() == c.state.Current {
		s.Position = active.Position()
		s.Duration = active.Duration()
	}
	s.NextTitle = EndOfPlaylist
	if next := c.resolver.PeekNext(c.state.Current); next != queue.End && next != c.state.Current {
		s.NextTitle = c.state.Playlist.Tracks[next].DisplayTitle()
	}
	return s
}

// Tick is the progress report. It starts a crossfade near the end of a track.
func (c *Controller) Tick() {
	if !c.hasTracks() || !c.state.Playing {
		return
	}
	active := c.pair.Active()
	if !active.Loaded() || active.Track() != c.state.Current || !active.Playing() {
		return
	}
	set := c.state.Settings
	if c.xfade.ShouldTrigger(active.Remaining(), set.CrossfadeDuration, set.CrossfadeEnabled, c.state.Repeat, c.trackCount()) {
		c.xfade.Begin(c.state.Current)
	}
}
