// Package mediatest provides an in-memory media.Backend whose sources are
// driven by the test: loads complete on the scheduler, playback position is
// set explicitly, and end or error events are raised on demand.
package mediatest

import (
	"fmt"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/loop"
	"github.com/gigurra/crossfader/cmd/engine/media"
)

// DefaultDuration is used for paths without an explicit duration.
const DefaultDuration = 3 * time.Minute

// Backend records every source it creates.
type Backend struct {
	post      loop.Poster
	Sources   []*Source
	Durations map[string]time.Duration
	LoadErrs  map[string]error
	PlayErrs  map[string]error
}

func New(post loop.Poster) *Backend {
	return &Backend{
		post:      post,
		Durations: map[string]time.Duration{},
		LoadErrs:  map[string]error{},
		PlayErrs:  map[string]error{},
	}
}

func (b *Backend) NewSource(name string) media.Source {
	s := &Source{backend: b, Name: name}
	b.Sources = append(b.Sources, s)
	return s
}

func (b *Backend) Close() error { return nil }

// Audible returns the sources currently playing with a gain above zero.
func (b *Backend) Audible() []*Source {
	var out []*Source
	for _, s := range b.Sources {
		if s.playing && s.gain > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Source is a fake media.Source.
type Source struct {
	backend  *Backend
	Name     string
	listener media.Listener

	gen      uint64
	path     string
	loaded   bool
	playing  bool
	position time.Duration
	duration time.Duration
	gain     float64
	ramp     time.Duration

	// Loads lists every path passed to Load.
	Loads []string
}

func (s *Source) SetListener(l media.Listener) { s.listener = l }

func (s *Source) Load(path string, done func(error)) {
	s.gen++
	gen := s.gen
	s.Loads = append(s.Loads, path)
	s.backend.post.Post(func() {
		if gen != s.gen {
			return
		}
		if err := s.backend.LoadErrs[path]; err != nil {
			done(fmt.Errorf("%w: %s: %v", errs.ErrMediaLoad, path, err))
			return
		}
		s.path = path
		s.loaded = true
		s.playing = false
		s.position = 0
		s.duration = DefaultDuration
		if d, ok := s.backend.Durations[path]; ok {
			s.duration = d
		}
		done(nil)
	})
}

func (s *Source) Unload() {
	s.gen++
	s.loaded = false
	s.playing = false
	s.path = ""
	s.position = 0
}

func (s *Source) Loaded() bool { return s.loaded }

func (s *Source) Play() error {
	if !s.loaded {
		return fmt.Errorf("%w: nothing loaded", errs.ErrMediaPlay)
	}
	if err := s.backend.PlayErrs[s.path]; err != nil {
		return fmt.Errorf("%w: %v", errs.ErrMediaPlay, err)
	}
	s.playing = true
	return nil
}

func (s *Source) Pause()                  { s.playing = false }
func (s *Source) Playing() bool           { return s.playing }
func (s *Source) Position() time.Duration { return s.position }
func (s *Source) Duration() time.Duration { return s.duration }
func (s *Source) Gain() float64           { return s.gain }

func (s *Source) Seek(d time.Duration) error {
	s.position = min(max(d, 0), s.duration)
	return nil
}

func (s *Source) SetGain(target float64, ramp time.Duration) {
	s.gain = target
	s.ramp = ramp
}

// Path is the loaded file.
func (s *Source) Path() string { return s.path }

// LastRamp is the ramp passed to the most recent SetGain.
func (s *Source) LastRamp() time.Duration { return s.ramp }

// SetPosition moves the playhead without raising events.
func (s *Source) SetPosition(d time.Duration) { s.position = d }

// End simulates the stream running out.
func (s *Source) End() {
	s.position = s.duration
	s.playing = false
	if s.listener != nil {
		s.listener.Ended()
	}
}

// Fail simulates a playback error.
func (s *Source) Fail(err error) {
	s.playing = false
	if s.listener != nil {
		s.listener.Failed(err)
	}
}
