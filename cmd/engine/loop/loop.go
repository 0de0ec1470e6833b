// Package loop provides the single control goroutine that every engine
// transition runs on. Intents, timer ticks and media callbacks are posted
// as closures and executed in submission order, so engine state needs no locks.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop()
}

// Poster hands a closure to the control goroutine.
type Poster interface {
	Post(fn func())
}

// Scheduler is the clock and timer source the engine is driven by.
// Callbacks always run on the control goroutine.
type Scheduler interface {
	Poster
	Now() time.Time
	After(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Loop is the real-time Scheduler backed by a goroutine and an event channel.
type Loop struct {
	events    chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a loop with the given event buffer size.
func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.events:
			fn()
		}
	}
}

// Close stops the loop. Pending events are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Post queues fn. It blocks while the buffer is full and drops fn once closed.
func (l *Loop) Post(fn func()) {
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// Do runs fn on the loop and waits for it. Must not be called from the loop itself.
func (l *Loop) Do(fn func()) {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
	case <-l.done:
	}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) After(d time.Duration, fn func()) Timer {
	t := &timer{}
	t.stopTimer = time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.stopped.Load() {
				fn()
			}
		})
	}).Stop
	return t
}

func (l *Loop) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	t := &timer{}
	ticker := time.NewTicker(d)
	stop := make(chan struct{})
	var once sync.Once
	t.stopTimer = func() bool {
		once.Do(func() {
			ticker.Stop()
			close(stop)
		})
		return true
	}
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-l.done:
				ticker.Stop()
				return
			case <-ticker.C:
				l.Post(func() {
					if !t.stopped.Load() {
						fn()
					}
				})
			}
		}
	}()
	return t
}

// timer drops callbacks already queued on the loop once stopped.
type timer struct {
	stopped   atomic.Bool
	stopTimer func() bool
}

func (t *timer) Stop() {
	t.stopped.Store(true)
	if t.stopTimer != nil {
		t.stopTimer()
	}
}
