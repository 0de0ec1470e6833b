//go:build !((linux && cgo) || windows || darwin)

package media

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/loop"
)

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio output requires cgo on linux.
const AudioAvailable = false

// NewBackend returns a backend that decodes files but plays them silently
// against the scheduler clock, so the engine behaves normally without sound.
func NewBackend(sched loop.Scheduler, _ *eq.Graph, _ Options) Backend {
	return &silentBackend{sched: sched}
}

type silentBackend struct {
	sched loop.Scheduler
}

func (b *silentBackend) NewSource(name string) Source {
	return &silentSource{sched: b.sched, name: name}
}

func (b *silentBackend) Close() error { return nil }

type silentSource struct {
	sched    loop.Scheduler
	name     string
	listener Listener

	gen       uint64
	loaded    bool
	playing   bool
	gain      float64
	duration  time.Duration
	position  time.Duration
	startedAt time.Time
	endTimer  loop.Timer
}

func (s *silentSource) SetListener(l Listener) { s.listener = l }

func (s *silentSource) Load(path string, done func(error)) {
	s.gen++
	gen := s.gen
	go func() {
		stream, format, err := Open(path)
		var d time.Duration
		if err == nil {
			d = format.SampleRate.D(stream.Len())
			stream.Close()
		}
		s.sched.Post(func() {
			if gen != s.gen {
				return
			}
			if err != nil {
				done(fmt.Errorf("%w: %s: %v", errs.ErrMediaLoad, filepath.Base(path), err))
				return
			}
			s.stopClock()
			s.loaded = true
			s.playing = false
			s.duration = d
			s.position = 0
			done(nil)
		})
	}()
}

func (s *silentSource) Unload() {
	s.gen++
	s.stopClock()
	s.loaded = false
	s.playing = false
	s.position = 0
	s.duration = 0
}

func (s *silentSource) Loaded() bool { return s.loaded }

func (s *silentSource) Play() error {
	if !s.loaded {
		return fmt.Errorf("%w: %s has nothing loaded", errs.ErrMediaPlay, s.name)
	}
	if s.playing {
		return nil
	}
	if s.position >= s.duration {
		s.position = 0
	}
	s.playing = true
	s.startClock()
	return nil
}

func (s *silentSource) Pause() {
	if !s.playing {
		return
	}
	s.position = s.Position()
	s.stopClock()
	s.playing = false
}

func (s *silentSource) Playing() bool { return s.playing }

func (s *silentSource) Position() time.Duration {
	if !s.playing {
		return s.position
	}
	return min(s.position+s.sched.Now().Sub(s.startedAt), s.duration)
}

func (s *silentSource) Seek(d time.Duration) error {
	s.position = min(max(d, 0), s.duration)
	if s.playing {
		s.stopClock()
		s.startClock()
	}
	return nil
}

func (s *silentSource) Duration() time.Duration { return s.duration }

func (s *silentSource) Gain() float64 { return s.gain }

func (s *silentSource) SetGain(target float64, _ time.Duration) { s.gain = target }

func (s *silentSource) startClock() {
	s.startedAt = s.sched.Now()
	gen := s.gen
	s.endTimer = s.sched.After(s.duration-s.position, func() {
		if gen != s.gen || !s.playing {
			return
		}
		s.position = s.duration
		s.playing = false
		s.endTimer = nil
		if s.listener != nil {
			s.listener.Ended()
		}
	})
}

func (s *silentSource) stopClock() {
	if s.endTimer != nil {
		s.endTimer.Stop()
		s.endTimer = nil
	}
}
