//go:build (linux && cgo) || windows || darwin

package media

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/eq"
	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/loop"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// beepBackend plays every source through one speaker: each source's chain
// is summed by a beep.Mixer, compressed and sent to the output.
type beepBackend struct {
	sched      loop.Scheduler
	graph      *eq.Graph
	sampleRate beep.SampleRate
	buffer     time.Duration

	mu          sync.Mutex
	initialized bool
	sources     []*beepSource
	mix         *beep.Mixer
}

// NewBackend creates the speaker-backed backend. The speaker is initialized
// on first playback.
func NewBackend(sched loop.Scheduler, graph *eq.Graph, opts Options) Backend {
	if opts.SampleRate <= 0 {
		opts = DefaultOptions()
	}
	mix := &beep.Mixer{}
	mix.KeepAlive(true)
	return &beepBackend{
		sched:      sched,
		graph:      graph,
		sampleRate: beep.SampleRate(opts.SampleRate),
		buffer:     opts.Buffer,
		mix:        mix,
	}
}

func (b *beepBackend) initSpeaker() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}
	if err := speaker.Init(b.sampleRate, b.sampleRate.N(b.buffer)); err != nil {
		return err
	}
	speaker.Play(b.graph.NewCompressor(b.mix, b.sampleRate))
	b.initialized = true
	slog.Debug("speaker initialized", "sampleRate", int(b.sampleRate), "buffer", b.buffer)
	return nil
}

func (b *beepBackend) NewSource(name string) Source {
	s := &beepSource{backend: b, name: name}
	speaker.Lock()
	b.mix.Add(s)
	speaker.Unlock()
	b.mu.Lock()
	b.sources = append(b.sources, s)
	b.mu.Unlock()
	return s
}

func (b *beepBackend) Close() error {
	b.mu.Lock()
	sources := b.sources
	b.mu.Unlock()
	for _, s := range sources {
		s.Unload()
	}
	speaker.Clear()
	return nil
}

// beepSource fields below the marker are shared with the audio callback
// and only touched under speaker.Lock.
type beepSource struct {
	backend  *beepBackend
	name     string
	listener Listener

	gen        uint64
	loaded     bool
	playing    bool
	gainTarget float64

	// speaker.Lock
	stream    beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	gain      *gainStage
	out       beep.Streamer
	streamGen uint64
	finished  bool
}

func (s *beepSource) SetListener(l Listener) { s.listener = l }

func (s *beepSource) Load(path string, done func(error)) {
	s.gen++
	gen := s.gen
	post := s.backend.sched.Post
	go func() {
		stream, format, err := Open(path)
		post(func() {
			if gen != s.gen {
				if stream != nil {
					stream.Close()
				}
				return
			}
			if err != nil {
				done(fmt.Errorf("%w: %s: %v", errs.ErrMediaLoad, filepath.Base(path), err))
				return
			}
			s.install(stream, format, gen)
			done(nil)
		})
	}()
}

func (s *beepSource) install(stream beep.StreamSeekCloser, format beep.Format, gen uint64) {
	b := s.backend
	resampled := beep.Resample(4, format.SampleRate, b.sampleRate, stream)
	ctrl := &beep.Ctrl{Streamer: resampled, Paused: true}
	gain := newGainStage(b.graph.NewChain(ctrl, b.sampleRate), s.gainTarget)

	speaker.Lock()
	old := s.stream
	s.stream = stream
	s.format = format
	s.ctrl = ctrl
	s.gain = gain
	s.streamGen = gen
	s.finished = false
	s.out = s.sequence(gen)
	speaker.Unlock()

	if old != nil {
		old.Close()
	}
	s.loaded = true
	s.playing = false
}

func (s *beepSource) Unload() {
	s.gen++
	speaker.Lock()
	old := s.stream
	s.stream = nil
	s.ctrl = nil
	s.gain = nil
	s.out = nil
	speaker.Unlock()
	if old != nil {
		old.Close()
	}
	s.loaded = false
	s.playing = false
}

func (s *beepSource) Loaded() bool { return s.loaded }

func (s *beepSource) Play() error {
	if !s.loaded {
		return fmt.Errorf("%w: %s has nothing loaded", errs.ErrMediaPlay, s.name)
	}
	if err := s.backend.initSpeaker(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrMediaPlay, err)
	}
	speaker.Lock()
	if s.finished {
		if err := s.stream.Seek(0); err != nil {
			speaker.Unlock()
			return fmt.Errorf("%w: %v", errs.ErrMediaPlay, err)
		}
		s.rearm()
	}
	s.ctrl.Paused = false
	speaker.Unlock()
	s.playing = true
	return nil
}

func (s *beepSource) Pause() {
	speaker.Lock()
	if s.ctrl != nil {
		s.ctrl.Paused = true
	}
	speaker.Unlock()
	s.playing = false
}

func (s *beepSource) Playing() bool { return s.playing }

func (s *beepSource) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	if s.stream == nil {
		return 0
	}
	return s.format.SampleRate.D(s.stream.Position())
}

func (s *beepSource) Seek(d time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()
	if s.stream == nil {
		return nil
	}
	n := min(max(s.format.SampleRate.N(d), 0), s.stream.Len())
	if err := s.stream.Seek(n); err != nil {
		return err
	}
	if s.finished {
		s.rearm()
	}
	return nil
}

func (s *beepSource) Duration() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	if s.stream == nil {
		return 0
	}
	return s.format.SampleRate.D(s.stream.Len())
}

func (s *beepSource) Gain() float64 { return s.gainTarget }

func (s *beepSource) SetGain(target float64, ramp time.Duration) {
	s.gainTarget = target
	speaker.Lock()
	if s.gain != nil {
		s.gain.set(target, s.backend.sampleRate.N(ramp))
	}
	speaker.Unlock()
}

// sequence follows the gain stage with the end-of-track callback, which
// runs on the audio goroutine under speaker.Lock.
func (s *beepSource) sequence(gen uint64) beep.Streamer {
	return beep.Seq(s.gain, beep.Callback(func() {
		s.finished = true
		// Posting from the audio callback must not block it.
		go s.backend.sched.Post(func() { s.ended(gen) })
	}))
}

// rearm rebuilds the exhausted sequence after a finished stream is rewound.
// Caller holds speaker.Lock.
func (s *beepSource) rearm() {
	s.finished = false
	s.out = s.sequence(s.streamGen)
}

// Stream is called by the speaker with its lock held. A source never
// drains, so the mixer keeps it across loads.
func (s *beepSource) Stream(samples [][2]float64) (int, bool) {
	if s.out == nil || s.finished {
		clear(samples)
		return len(samples), true
	}
	n, _ := s.out.Stream(samples)
	clear(samples[n:])
	return len(samples), true
}

func (s *beepSource) Err() error { return nil }

func (s *beepSource) ended(gen uint64) {
	if gen != s.gen {
		return
	}
	s.playing = false
	if s.listener == nil {
		return
	}
	speaker.Lock()
	var err error
	if s.stream != nil {
		err = s.stream.Err()
	}
	speaker.Unlock()
	if err != nil {
		s.listener.Failed(fmt.Errorf("%w: %v", errs.ErrMediaPlay, err))
		return
	}
	s.listener.Ended()
}
