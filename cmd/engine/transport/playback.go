package transport

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/crossfade"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/library"
	"github.com/gigurra/crossfader/cmd/engine/queue"
	"github.com/gigurra/crossfader/cmd/engine/slot"
)

// TogglePlayPause flips the play state. Mid-fade both slots pause and the
// fade freezes; pausing while the next track is still priming cancels it.
func (c *Controller) TogglePlayPause() {
	if !c.hasTracks() {
		return
	}
	if c.state.Playing {
		c.pause()
	} else {
		c.play()
	}
}

func (c *Controller) Play() {
	if c.hasTracks() && !c.state.Playing {
		c.play()
	}
}

func (c *Controller) Pause() {
	if c.hasTracks() && c.state.Playing {
		c.pause()
	}
}

func (c *Controller) pause() {
	if c.xfade.State() == crossfade.Priming {
		c.xfade.Cancel()
	}
	c.pair.Active().Pause()
	if c.xfade.Fading() {
		c.pair.Standby().Pause()
		c.xfade.Freeze()
	}
	c.state.Playing = false
}

func (c *Controller) play() {
	active := c.pair.Active()
	c.state.Playing = true
	if active.Loading() {
		return
	}
	if active.Track() != c.state.Current {
		c.loadCurrent()
		return
	}
	if c.xfade.Fading() {
		if c.resumeFade() {
			return
		}
		// The outgoing track already ran out, so the skip it was fading into
		// happens now.
		if active.Remaining() <= 0 {
			c.next()
			return
		}
	} else if active.Remaining() <= 0 {
		active.Seek(0)
	}
	if err := active.Play(); err != nil {
		c.failAndSkip(c.state.Current, err)
	}
}

// resumeFade restarts a frozen crossfade. An outgoing track that already
// ran out stays silent until the handoff. It reports false when the
// incoming track could not resume and the crossfade was cancelled.
func (c *Controller) resumeFade() bool {
	if err := c.pair.Standby().Play(); err != nil {
		slog.Warn("failed to resume incoming track", "error", err)
		c.xfade.Cancel()
		return false
	}
	if active := c.pair.Active(); active.Remaining() > 0 {
		if err := active.Play(); err != nil {
			slog.Warn("failed to resume outgoing track", "error", err)
		}
	}
	c.xfade.Thaw()
	return true
}

// PlayNext advances per the resolver. It is ignored mid-fade, and it
// cancels a crossfade that is still priming.
func (c *Controller) PlayNext() {
	if !c.hasTracks() {
		return
	}
	switch c.xfade.State() {
	case crossfade.Fading:
		return
	case crossfade.Priming:
		c.xfade.Cancel()
	}
	c.next()
}

// PlayPrevious restarts the track when more than RestartThreshold has
// played, otherwise steps back.
func (c *Controller) PlayPrevious() {
	if !c.hasTracks() {
		return
	}
	c.xfade.Cancel()
	active := c.pair.Active()
	if active.Track() == c.state.Current && active.Position() > RestartThreshold {
		active.Seek(0)
		return
	}
	c.state.Current = c.resolver.Previous(c.state.Current)
	c.loadCurrent()
}

// SelectTrack jumps to index and plays it.
func (c *Controller) SelectTrack(index int) error {
	if !c.hasTracks() {
		return errs.Validation("no playlist loaded")
	}
	if index < 0 || index >= c.trackCount() {
		return errs.Validation("track %d out of range (playlist has %d)", index+1, c.trackCount())
	}
	c.xfade.Cancel()
	c.resolver.Select(index)
	c.state.Current = index
	c.state.Playing = true
	c.failures = 0
	c.loadCurrent()
	return nil
}

// Seek clamps to the track and cancels any crossfade.
func (c *Controller) Seek(d time.Duration) {
	if !c.hasTracks() {
		return
	}
	c.xfade.Cancel()
	active := c.pair.Active()
	if active.Track() != c.state.Current || active.Loading() {
		return
	}
	if err := active.Seek(d); err != nil {
		slog.Warn("seek failed", "position", d, "error", err)
	}
}

func (c *Controller) SeekRelative(delta time.Duration) {
	c.Seek(c.pair.Active().Position() + delta)
}

// next is the natural advance: repeat one restarts, End stops.
func (c *Controller) next() {
	if c.state.Repeat == queue.RepeatOne {
		c.restart()
		return
	}
	n := c.resolver.Next(c.state.Current)
	if n == queue.End {
		c.stopAtEnd()
		return
	}
	c.state.Current = n
	c.loadCurrent()
}

func (c *Controller) restart() {
	active := c.pair.Active()
	if active.Track() != c.state.Current {
		c.loadCurrent()
		return
	}
	active.Seek(0)
	if c.state.Playing {
		if err := active.Play(); err != nil {
			c.failAndSkip(c.state.Current, err)
		}
	}
}

func (c *Controller) stopAtEnd() {
	slog.Info("end of playlist", "track", c.state.Current)
	c.xfade.Cancel()
	c.pair.Active().Pause()
	c.state.Playing = false
	c.persist()
	c.trackChanged()
}

// loadCurrent loads the current track into the active slot and plays it
// if the engine is playing.
func (c *Controller) loadCurrent() {
	c.xfade.Cancel()
	index := c.state.Current
	track := c.state.Playlist.Tracks[index]
	c.pair.Standby().Silence()
	active := c.pair.Active()
	slog.Debug("loading track", "index", index, "path", track.Path, "slot", active.Name)
	active.Load(track.Path, index, func(err error) { c.loaded(index, err) })
	c.persist()
	c.trackChanged()
}

func (c *Controller) loaded(index int, err error) {
	if err != nil {
		c.failAndSkip(index, err)
		return
	}
	active := c.pair.Active()
	active.SetGain(c.state.Volume, 0)
	if !c.state.Playing {
		return
	}
	if err := active.Play(); err != nil {
		c.failAndSkip(index, err)
		return
	}
	c.failures = 0
}

// failAndSkip moves past a track that could not be loaded or played. Once
// every track in the playlist has failed in a row, playback stops.
func (c *Controller) failAndSkip(index int, err error) {
	if !c.hasTracks() {
		return
	}
	title := ""
	if index >= 0 && index < c.trackCount() {
		title = c.state.Playlist.Tracks[index].DisplayTitle()
	}
	slog.Warn("track failed", "index", index, "title", title, "error", err)
	c.failures++
	if c.failures >= c.trackCount() {
		c.failures = 0
		c.xfade.Cancel()
		c.pair.Active().Pause()
		c.state.Playing = false
		c.notice(NoticeError, "No playable tracks in playlist, playback stopped")
		c.persist()
		c.trackChanged()
		return
	}
	c.notice(NoticeWarning, fmt.Sprintf("Failed to play %q, skipping", title))
	c.state.Current = index
	if c.state.Repeat == queue.RepeatOne {
		// Looping a broken track would never end.
		n := (index + 1) % c.trackCount()
		c.resolver.Select(n)
		c.state.Current = n
		c.loadCurrent()
		return
	}
	c.next()
}

// LoadPlaylist switches playlists, starting at the first track. The play
// state carries over.
func (c *Controller) LoadPlaylist(p library.Playlist) error {
	if c.opts.LockPlaylistWhilePlaying && c.state.Playing {
		return errs.Validation("cannot change playlists while music is playing, pause first")
	}
	c.xfade.Cancel()
	pl := p.Clone()
	c.state.Playlist = &pl
	c.state.Current = 0
	c.failures = 0
	c.resolver.Reset(len(pl.Tracks), 0)
	slog.Info("playlist loaded", "id", pl.ID, "name", pl.Name, "tracks", len(pl.Tracks))
	if len(pl.Tracks) == 0 {
		c.clearSlots()
		c.persist()
		c.trackChanged()
		return nil
	}
	c.loadCurrent()
	return nil
}

// RefreshPlaylist takes an edited copy of the loaded playlist. The current
// track keeps playing if it is still in the list.
func (c *Controller) RefreshPlaylist(p library.Playlist) {
	if c.state.Playlist == nil || c.state.Playlist.ID != p.ID {
		return
	}
	currentPath := ""
	if c.hasTracks() {
		currentPath = c.state.Playlist.Tracks[c.state.Current].Path
	}
	c.xfade.Cancel()
	pl := p.Clone()
	c.state.Playlist = &pl
	if len(pl.Tracks) == 0 {
		c.state.Current = 0
		c.resolver.Reset(0, 0)
		c.clearSlots()
		c.persist()
		c.trackChanged()
		return
	}

	for i, t := range pl.Tracks {
		if t.Path == currentPath {
			c.state.Current = i
			c.resolver.Reset(len(pl.Tracks), i)
			if c.pair.Active().Path() == currentPath {
				c.rebindActive(i)
			}
			c.persist()
			c.trackChanged()
			return
		}
	}
	c.state.Current = min(c.state.Current, len(pl.Tracks)-1)
	c.resolver.Reset(len(pl.Tracks), c.state.Current)
	c.loadCurrent()
}

// rebindActive re-indexes the loaded track after the list was reordered,
// without reloading it.
func (c *Controller) rebindActive(index int) {
	active := c.pair.Active()
	if active.Track() == index || active.Loading() {
		return
	}
	active.Rebind(index)
}

// UnloadPlaylist stops playback and forgets the playlist.
func (c *Controller) UnloadPlaylist() {
	c.xfade.Cancel()
	c.clearSlots()
	c.state.Playlist = nil
	c.state.Current = 0
	c.resolver.Reset(0, 0)
	c.persist()
	c.trackChanged()
}

func (c *Controller) clearSlots() {
	for _, s := range c.pair.Slots() {
		s.Silence()
		s.Clear()
	}
	c.pair.Active().SetGain(c.state.Volume, 0)
	c.state.Playing = false
}

// SlotEnded implements slot.Handler.
func (c *Controller) SlotEnded(s *slot.Slot) {
	if !c.hasTracks() {
		return
	}
	if !c.pair.IsActive(s) {
		if c.xfade.Fading() {
			c.xfade.Complete()
			c.next()
		}
		return
	}
	switch c.xfade.State() {
	case crossfade.Fading:
		return
	case crossfade.Priming:
		c.xfade.Cancel()
	}
	if s.Track() != c.state.Current {
		return
	}
	c.failures = 0
	c.next()
}

// SlotFailed implements slot.Handler.
func (c *Controller) SlotFailed(s *slot.Slot, err error) {
	if !c.hasTracks() {
		return
	}
	if !c.pair.IsActive(s) {
		if c.xfade.Active() {
			slog.Warn("incoming track failed mid-crossfade", "error", err)
			c.xfade.Cancel()
		}
		return
	}
	if c.xfade.Fading() {
		c.xfade.Complete()
		return
	}
	c.xfade.Cancel()
	c.failAndSkip(c.state.Current, err)
}

// Volume implements crossfade.Host.
func (c *Controller) Volume() float64 { return c.state.Volume }

// CrossfadeDuration implements crossfade.Host.
func (c *Controller) CrossfadeDuration() time.Duration {
	return c.state.Settings.CrossfadeDuration
}

// TrackPath implements crossfade.Host.
func (c *Controller) TrackPath(index int) (string, bool) {
	if !c.hasTracks() || index < 0 || index >= c.trackCount() {
		return "", false
	}
	return c.state.Playlist.Tracks[index].Path, true
}

// CrossfadeCommitted implements crossfade.Host.
func (c *Controller) CrossfadeCommitted(next int) {
	c.state.Current = next
	c.failures = 0
	slog.Info("crossfaded", "track", next)
	c.persist()
	c.trackChanged()
}

// CrossfadeFailed implements crossfade.Host. The failing track is skipped
// with a hard cut.
func (c *Controller) CrossfadeFailed(next int, err error) {
	c.failAndSkip(next, err)
}
