package slot

import (
	"errors"
	"testing"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/loop/looptest"
	"github.com/gigurra/crossfader/cmd/engine/media/mediatest"
)

type recorder struct {
	ended  []string
	failed []string
}

func (r *recorder) SlotEnded(s *Slot)             { r.ended = append(r.ended, s.Name) }
func (r *recorder) SlotFailed(s *Slot, err error) { r.failed = append(r.failed, s.Name) }

func newTestPair() (*Pair, *mediatest.Backend, *looptest.Scheduler) {
	sched := looptest.New()
	backend := mediatest.New(sched)
	return NewPair(backend), backend, sched
}

func TestPair_Swap(t *testing.T) {
	p, _, _ := newTestPair()
	a, b := p.Active(), p.Standby()
	if a.Name != "A" || b.Name != "B" {
		t.Fatalf("unexpected initial roles %s/%s", a.Name, b.Name)
	}
	p.Swap()
	if p.Active() != b || p.Standby() != a {
		t.Error("Swap did not exchange roles")
	}
	if !p.IsActive(b) || p.IsActive(a) {
		t.Error("IsActive disagrees with Active")
	}
}

func TestSlot_LoadCommitsTrack(t *testing.T) {
	p, _, sched := newTestPair()
	s := p.Active()

	var loadErr error
	called := false
	s.Load("/music/a.mp3", 3, func(err error) { called, loadErr = true, err })
	if !s.Loading() {
		t.Error("slot should report loading before completion")
	}
	sched.Flush()

	if !called || loadErr != nil {
		t.Fatalf("load callback: called=%v err=%v", called, loadErr)
	}
	if s.Track() != 3 || s.Path() != "/music/a.mp3" || !s.Loaded() {
		t.Errorf("slot state after load: track=%d path=%q", s.Track(), s.Path())
	}
}

func TestSlot_SupersededLoadIsDropped(t *testing.T) {
	p, _, sched := newTestPair()
	s := p.Active()

	var calls []string
	s.Load("/music/a.mp3", 0, func(error) { calls = append(calls, "a") })
	s.Load("/music/b.mp3", 1, func(error) { calls = append(calls, "b") })
	sched.Flush()

	if len(calls) != 1 || calls[0] != "b" {
		t.Errorf("expected only the newest load to complete, got %v", calls)
	}
	if s.Track() != 1 {
		t.Errorf("expected track 1, got %d", s.Track())
	}
}

func TestSlot_CancelLoad(t *testing.T) {
	p, _, sched := newTestPair()
	s := p.Standby()

	called := false
	s.Load("/music/a.mp3", 0, func(error) { called = true })
	s.CancelLoad()
	sched.Flush()
	if called {
		t.Error("cancelled load completed")
	}
}

func TestSlot_LoadError(t *testing.T) {
	p, backend, sched := newTestPair()
	backend.LoadErrs["/music/missing.mp3"] = errors.New("no such file")
	s := p.Active()

	var loadErr error
	s.Load("/music/missing.mp3", 2, func(err error) { loadErr = err })
	sched.Flush()

	if !errors.Is(loadErr, errs.ErrMediaLoad) {
		t.Errorf("expected ErrMediaLoad, got %v", loadErr)
	}
	if s.Track() != NoTrack {
		t.Errorf("failed load should leave no track, got %d", s.Track())
	}
}

func TestSlot_SeekClampsAndAudible(t *testing.T) {
	p, backend, sched := newTestPair()
	backend.Durations["/music/a.mp3"] = 100 * time.Second
	s := p.Active()
	s.Load("/music/a.mp3", 0, func(error) {})
	sched.Flush()

	if err := s.Seek(500 * time.Second); err != nil {
		t.Fatal(err)
	}
	if s.Position() != 100*time.Second {
		t.Errorf("seek not clamped to duration: %v", s.Position())
	}
	s.Seek(-time.Second)
	if s.Position() != 0 {
		t.Errorf("seek not clamped to zero: %v", s.Position())
	}

	s.SetGain(0.5, 0)
	if s.Audible() {
		t.Error("paused slot should not be audible")
	}
	if err := s.Play(); err != nil {
		t.Fatal(err)
	}
	if !s.Audible() || p.AudibleCount() != 1 {
		t.Error("playing slot with gain should be audible")
	}
	s.Silence()
	if s.Audible() || s.Gain() != 0 {
		t.Error("Silence should pause and zero the slot")
	}
}

func TestSlot_EventsReachHandler(t *testing.T) {
	p, backend, _ := newTestPair()
	rec := &recorder{}
	p.SetHandler(rec)

	backend.Sources[1].End()
	backend.Sources[0].Fail(errors.New("boom"))

	if len(rec.ended) != 1 || rec.ended[0] != "B" {
		t.Errorf("ended events: %v", rec.ended)
	}
	if len(rec.failed) != 1 || rec.failed[0] != "A" {
		t.Errorf("failed events: %v", rec.failed)
	}
}
