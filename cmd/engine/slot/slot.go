// Package slot models the two playback chains. A Pair holds exactly one
// active slot and one standby slot; roles swap by index, never by copying.
package slot

import (
	"time"

	"github.com/gigurra/crossfader/cmd/engine/media"
)

// NoTrack marks a slot with nothing committed.
const NoTrack = -1

// Handler receives events from either slot of a pair.
type Handler interface {
	SlotEnded(s *Slot)
	SlotFailed(s *Slot, err error)
}

// Slot is one source plus the track it holds.
type Slot struct {
	Name    string
	src     media.Source
	pair    *Pair
	track   int
	path    string
	loading bool
	gen     uint64
}

func newSlot(name string, src media.Source, pair *Pair) *Slot {
	s := &Slot{Name: name, src: src, pair: pair, track: NoTrack}
	src.SetListener(s)
	return s
}

// Load replaces the slot's track. done runs on the control goroutine unless
// the load is superseded or cancelled first.
func (s *Slot) Load(path string, track int, done func(error)) {
	s.gen++
	gen := s.gen
	s.loading = true
	s.src.Load(path, func(err error) {
		if gen != s.gen {
			return
		}
		s.loading = false
		if err != nil {
			s.track = NoTrack
			s.path = ""
		} else {
			s.track = track
			s.path = path
		}
		done(err)
	})
}

// CancelLoad drops a pending load's completion.
func (s *Slot) CancelLoad() {
	s.gen++
	s.loading = false
}

// Clear unloads the slot entirely.
func (s *Slot) Clear() {
	s.CancelLoad()
	s.src.Unload()
	s.track = NoTrack
	s.path = ""
}

func (s *Slot) Play() error             { return s.src.Play() }
func (s *Slot) Pause()                  { s.src.Pause() }
func (s *Slot) Playing() bool           { return s.src.Playing() }
func (s *Slot) Loading() bool           { return s.loading }
func (s *Slot) Loaded() bool            { return s.src.Loaded() && !s.loading }
func (s *Slot) Track() int              { return s.track }
func (s *Slot) Path() string            { return s.path }
func (s *Slot) Gain() float64           { return s.src.Gain() }
func (s *Slot) Position() time.Duration { return s.src.Position() }
func (s *Slot) Duration() time.Duration { return s.src.Duration() }

// SetGain ramps the slot's gain to target over ramp.
func (s *Slot) SetGain(target float64, ramp time.Duration) {
	s.src.SetGain(target, ramp)
}

// Rebind changes the track index of an already loaded file, for when the
// playlist was reordered under it.
func (s *Slot) Rebind(track int) {
	if s.Loaded() {
		s.track = track
	}
}

// Seek clamps to [0, duration].
func (s *Slot) Seek(d time.Duration) error {
	return s.src.Seek(min(max(d, 0), s.src.Duration()))
}

// Remaining is the time left in the loaded track.
func (s *Slot) Remaining() time.Duration {
	return s.src.Duration() - s.src.Position()
}

// Silence pauses the slot and drops its gain to zero immediately.
func (s *Slot) Silence() {
	s.src.Pause()
	s.src.SetGain(0, 0)
}

// Audible reports whether the slot is producing sound.
func (s *Slot) Audible() bool {
	return s.src.Playing() && s.src.Gain() > 0
}

// Ended implements media.Listener.
func (s *Slot) Ended() {
	if s.pair.handler != nil {
		s.pair.handler.SlotEnded(s)
	}
}

// Failed implements media.Listener.
func (s *Slot) Failed(err error) {
	if s.pair.handler != nil {
		s.pair.handler.SlotFailed(s, err)
	}
}

// Pair is the A/B slot pair.
type Pair struct {
	slots   [2]*Slot
	active  int
	handler Handler
}

// NewPair creates slots "A" (initially active) and "B" from the backend.
func NewPair(backend media.Backend) *Pair {
	p := &Pair{}
	p.slots[0] = newSlot("A", backend.NewSource("A"), p)
	p.slots[1] = newSlot("B", backend.NewSource("B"), p)
	return p
}

func (p *Pair) SetHandler(h Handler) { p.handler = h }

func (p *Pair) Active() *Slot  { return p.slots[p.active] }
func (p *Pair) Standby() *Slot { return p.slots[1-p.active] }

// IsActive reports whether s currently holds the active role.
func (p *Pair) IsActive(s *Slot) bool { return p.slots[p.active] == s }

// Swap exchanges the active and standby roles.
func (p *Pair) Swap() { p.active = 1 - p.active }

// Slots returns both slots, active first.
func (p *Pair) Slots() [2]*Slot {
	return [2]*Slot{p.Active(), p.Standby()}
}

// AudibleCount is how many slots are producing sound.
func (p *Pair) AudibleCount() int {
	n := 0
	for _, s := range p.slots {
		if s.Audible() {
			n++
		}
	}
	return n
}
