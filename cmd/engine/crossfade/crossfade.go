// Package crossfade hands playback from the active slot to the standby slot
// near the end of a track, using an equal-power gain law.
package crossfade

import (
	"log/slog"
	"math"
	"time"

	"github.com/gigurra/crossfader/cmd/engine/loop"
	"github.com/gigurra/crossfader/cmd/engine/queue"
	"github.com/gigurra/crossfader/cmd/engine/slot"
)

// DefaultSteps is how many gain steps a fade is divided into.
const DefaultSteps = 60

// State is the orchestrator's phase.
type State int

const (
	Idle State = iota
	Priming
	Fading
)

func (s State) String() string {
	switch s {
	case Priming:
		return "priming"
	case Fading:
		return "fading"
	default:
		return "idle"
	}
}

// EqualPowerGains returns the outgoing and incoming gains at progress p in [0, 1].
// out² + in² equals volume² for every p.
func EqualPowerGains(p, volume float64) (out, in float64) {
	p = math.Min(math.Max(p, 0), 1)
	return math.Cos(p*math.Pi/2) * volume, math.Sin(p*math.Pi/2) * volume
}

// Host is the transport side of a crossfade.
type Host interface {
	Volume() float64
	CrossfadeDuration() time.Duration
	TrackPath(index int) (string, bool)
	// CrossfadeCommitted runs after the slots have swapped; next is now playing.
	CrossfadeCommitted(next int)
	// CrossfadeFailed runs after priming failed and both slots were restored.
	// The resolver has already advanced past next.
	CrossfadeFailed(next int, err error)
}

// Orchestrator runs Idle -> Priming -> Fading -> Idle.
type Orchestrator struct {
	pair     *slot.Pair
	resolver *queue.Resolver
	sched    loop.Scheduler
	host     Host

	steps   int
	state   State
	next    int
	step    int
	stepDur time.Duration
	ticker  loop.Timer
	frozen  bool
	saved   queue.Snapshot
	gen     uint64
}

func New(pair *slot.Pair, resolver *queue.Resolver, sched loop.Scheduler, host Host) *Orchestrator {
	return &Orchestrator{
		pair:     pair,
		resolver: resolver,
		sched:    sched,
		host:     host,
		steps:    DefaultSteps,
		next:     queue.End,
	}
}

func (o *Orchestrator) State() State { return o.state }
func (o *Orchestrator) Active() bool { return o.state != Idle }
func (o *Orchestrator) Fading() bool { return o.state == Fading }
func (o *Orchestrator) Frozen() bool { return o.frozen }

// Target is the track being faded in, or queue.End when idle.
func (o *Orchestrator) Target() int { return o.next }

// Step reports fade progress as (completed steps, total steps).
func (o *Orchestrator) Step() (int, int) { return o.step, o.steps }

// ShouldTrigger decides whether a progress report starts a crossfade.
// Repeat one never crossfades; it loops the same track hard.
func (o *Orchestrator) ShouldTrigger(remaining, window time.Duration, enabled bool, repeat queue.RepeatMode, tracks int) bool {
	return o.state == Idle &&
		enabled &&
		repeat != queue.RepeatOne &&
		tracks > 1 &&
		remaining > 0 &&
		remaining <= window
}

// Begin resolves the next track from current and starts loading it into
// the standby slot. It reports false when there is nothing to fade to.
func (o *Orchestrator) Begin(current int) bool {
	if o.state != Idle {
		return false
	}
	saved := o.resolver.Snapshot()
	next := o.resolver.Next(current)
	if next == queue.End {
		o.resolver.Restore(saved)
		return false
	}
	path, ok := o.host.TrackPath(next)
	if !ok {
		o.resolver.Restore(saved)
		return false
	}

	o.saved = saved
	o.state = Priming
	o.next = next
	o.step = 0
	o.gen++
	gen := o.gen

	standby := o.pair.Standby()
	standby.Silence()
	slog.Debug("crossfade priming", "from", current, "to", next, "slot", standby.Name)
	standby.Load(path, next, func(err error) { o.primed(gen, err) })
	return true
}

func (o *Orchestrator) primed(gen uint64, err error) {
	if gen != o.gen || o.state != Priming {
		return
	}
	standby := o.pair.Standby()
	if err == nil {
		standby.SetGain(0, 0)
		err = standby.Seek(0)
	}
	if err == nil {
		err = standby.Play()
	}
	if err != nil {
		next := o.next
		o.teardown()
		slog.Warn("crossfade priming failed", "track", next, "error", err)
		o.host.CrossfadeFailed(next, err)
		return
	}

	o.state = Fading
	o.stepDur = max(o.host.CrossfadeDuration()/time.Duration(o.steps), time.Millisecond)
	o.rampTo(1)
	o.ticker = o.sched.Every(o.stepDur, o.advance)
}

func (o *Orchestrator) advance() {
	if o.state != Fading {
		return
	}
	o.step++
	if o.step >= o.steps {
		o.finish()
		return
	}
	o.rampTo(o.step + 1)
}

// rampTo moves both gains toward their values at step k over one step interval.
func (o *Orchestrator) rampTo(k int) {
	out, in := EqualPowerGains(float64(k)/float64(o.steps), o.host.Volume())
	o.pair.Active().SetGain(out, o.stepDur)
	o.pair.Standby().SetGain(in, o.stepDur)
}

// Complete hands off immediately. Used when the incoming track ends mid-fade.
func (o *Orchestrator) Complete() {
	if o.state == Fading {
		o.finish()
	}
}

func (o *Orchestrator) finish() {
	o.stopTicker()
	o.pair.Active().Silence()
	o.pair.Swap()
	o.pair.Active().SetGain(o.host.Volume(), 0)

	next := o.next
	o.state = Idle
	o.next = queue.End
	o.frozen = false
	slog.Debug("crossfade committed", "track", next, "slot", o.pair.Active().Name)
	o.host.CrossfadeCommitted(next)
}

// Cancel aborts an in-flight crossfade and puts the shuffle cursor back.
// Afterwards only the active slot can be audible, at full volume.
func (o *Orchestrator) Cancel() {
	if o.state == Idle {
		return
	}
	slog.Debug("crossfade cancelled", "state", o.state.String(), "target", o.next)
	o.resolver.Restore(o.saved)
	o.teardown()
}

func (o *Orchestrator) teardown() {
	o.stopTicker()
	o.gen++
	standby := o.pair.Standby()
	standby.CancelLoad()
	standby.Silence()
	o.pair.Active().SetGain(o.host.Volume(), 0)
	o.state = Idle
	o.next = queue.End
	o.frozen = false
}

// Freeze stops stepping while both slots are paused mid-fade.
func (o *Orchestrator) Freeze() {
	if o.state != Fading || o.frozen {
		return
	}
	o.stopTicker()
	o.frozen = true
}

// Thaw resumes stepping after Freeze.
func (o *Orchestrator) Thaw() {
	if o.state != Fading || !o.frozen {
		return
	}
	o.frozen = false
	o.rampTo(o.step + 1)
	o.ticker = o.sched.Every(o.stepDur, o.advance)
}

// Retarget reapplies the current step's gains after a volume change mid-fade.
func (o *Orchestrator) Retarget() {
	if o.state == Fading {
		o.rampTo(o.step + 1)
	}
}

func (o *Orchestrator) stopTicker() {
	if o.ticker != nil {
		o.ticker.Stop()
		o.ticker = nil
	}
}
