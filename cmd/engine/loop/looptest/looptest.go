// Package looptest provides a manually advanced loop.Scheduler so engine
// state machines can be stepped deterministically without real timers.
package looptest

import (
	"sort"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/loop"
)

// Scheduler runs callbacks on the calling goroutine when Advance or Flush is called.
type Scheduler struct {
	now    time.Time
	seq    int
	timers []*timer
}

type timer struct {
	at      time.Time
	every   time.Duration
	fn      func()
	seq     int
	stopped bool
}

func (t *timer) Stop() { t.stopped = true }

// New returns a scheduler whose clock starts at a fixed instant.
func New() *Scheduler {
	return &Scheduler{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *Scheduler) Now() time.Time { return s.now }

// Post schedules fn to run on the next Flush or Advance.
func (s *Scheduler) Post(fn func()) {
	s.After(0, fn)
}

func (s *Scheduler) After(d time.Duration, fn func()) loop.Timer {
	return s.add(d, 0, fn)
}

func (s *Scheduler) Every(d time.Duration, fn func()) loop.Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	return s.add(d, d, fn)
}

func (s *Scheduler) add(d, every time.Duration, fn func()) *timer {
	s.seq++
	t := &timer{at: s.now.Add(d), every: every, fn: fn, seq: s.seq}
	s.timers = append(s.timers, t)
	return t
}

// Flush runs everything due now, including work posted by the callbacks themselves.
func (s *Scheduler) Flush() {
	s.Advance(0)
}

// Advance moves the clock forward by d, firing due callbacks in time order.
func (s *Scheduler) Advance(d time.Duration) {
	target := s.now.Add(d)
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		if next.at.After(s.now) {
			s.now = next.at
		}
		if next.every > 0 {
			next.at = next.at.Add(next.every)
		} else {
			next.stopped = true
		}
		next.fn()
	}
	s.now = target
	s.compact()
}

// Pending reports how many timers are still armed.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (s *Scheduler) nextDue(target time.Time) *timer {
	var due []*timer
	for _, t := range s.timers {
		if !t.stopped && !t.at.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

func (s *Scheduler) compact() {
	kept := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped {
			kept = append(kept, t)
		}
	}
	s.timers = kept
}
