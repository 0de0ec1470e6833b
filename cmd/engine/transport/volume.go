package transport

import (
	"time"

	"github.com/gigurra/crossfader/cmd/engine/loop"
	"github.com/gigurra/crossfader/cmd/engine/units"
)

// FadeKind is the manual fade in progress, if any.
type FadeKind int

const (
	FadeNone FadeKind = iota
	FadeOut
	FadeIn
)

func (k FadeKind) String() string {
	switch k {
	case FadeOut:
		return "fading out"
	case FadeIn:
		return "fading in"
	default:
		return ""
	}
}

// volumeTxn suppresses auto-mute coupling and persistence while open.
// End is idempotent.
type volumeTxn struct {
	c     *Controller
	ended bool
}

func (c *Controller) beginVolumeTxn() *volumeTxn {
	c.txnDepth++
	return &volumeTxn{c: c}
}

func (t *volumeTxn) End() {
	if t.ended {
		return
	}
	t.ended = true
	t.c.txnDepth--
}

type fade struct {
	kind     FadeKind
	from     float64
	to       float64
	start    time.Time
	duration time.Duration
	timer    loop.Timer
	txn      *volumeTxn
}

// SetVolume clamps v to [0, 1] and applies it at once. It takes over from a
// running fade. Zero mutes; a positive value while muted unmutes.
func (c *Controller) SetVolume(v float64) {
	c.stopFade()
	c.setVolume(v)
	c.persist()
}

// SetVolumePercent takes 0-100.
func (c *Controller) SetVolumePercent(percent float64) {
	c.SetVolume(units.PercentToGain(percent))
}

// ChangeVolume steps the volume by whole percent.
func (c *Controller) ChangeVolume(deltaPercent int) {
	c.SetVolumePercent(float64(units.GainToPercent(c.state.Volume) + deltaPercent))
}

func (c *Controller) setVolume(v float64) {
	v = units.Clamp(v, 0, 1)
	c.state.Volume = v
	if c.txnDepth == 0 {
		if v == 0 && !c.state.Muted {
			c.state.Muted = true
		} else if v > 0 && c.state.Muted {
			c.state.Muted = false
		}
		if !c.state.Muted && v > 0 {
			c.state.PreviousVolume = v
		}
	}
	if c.xfade.Fading() {
		c.xfade.Retarget()
	} else {
		c.pair.Active().SetGain(v, 0)
	}
}

// ToggleMute zeroes the volume, remembering it, or restores it. A
// remembered volume of zero restores to full.
func (c *Controller) ToggleMute() {
	c.stopFade()
	txn := c.beginVolumeTxn()
	if c.state.Muted {
		restore := c.state.PreviousVolume
		if restore <= 0 {
			restore = 1
		}
		c.state.Muted = false
		c.setVolume(restore)
	} else {
		c.state.PreviousVolume = c.state.Volume
		c.state.Muted = true
		c.setVolume(0)
	}
	txn.End()
	c.persist()
}

// FadeOut ramps the volume linearly to zero over the configured duration.
// It reports false when a fade is already running or the volume is zero.
func (c *Controller) FadeOut() bool {
	if c.fade != nil || c.state.Volume == 0 {
		return false
	}
	c.state.PreviousVolume = c.state.Volume
	c.startFade(FadeOut, 0, c.state.Settings.FadeOutDuration)
	return true
}

// FadeIn ramps back to the volume remembered by FadeOut or mute, or to full.
// It reports false when a fade is already running or the volume is already
// at or above that target.
func (c *Controller) FadeIn() bool {
	if c.fade != nil {
		return false
	}
	target := c.state.PreviousVolume
	if target <= 0 {
		target = 1
	}
	if c.state.Volume >= target {
		return false
	}
	c.startFade(FadeIn, target, c.state.Settings.FadeInDuration)
	return true
}

// FadeKind reports the running fade.
func (c *Controller) FadeKind() FadeKind {
	if c.fade == nil {
		return FadeNone
	}
	return c.fade.kind
}

func (c *Controller) startFade(kind FadeKind, to float64, d time.Duration) {
	f := &fade{
		kind:     kind,
		from:     c.state.Volume,
		to:       to,
		start:    c.sched.Now(),
		duration: d,
		txn:      c.beginVolumeTxn(),
	}
	c.fade = f
	f.timer = c.sched.Every(c.opts.FadeInterval, c.fadeStep)
}

func (c *Controller) fadeStep() {
	f := c.fade
	if f == nil {
		return
	}
	p := 1.0
	if f.duration > 0 {
		p = float64(c.sched.Now().Sub(f.start)) / float64(f.duration)
	}
	if p >= 1 {
		c.finishFade()
		return
	}
	c.setVolume(f.from + (f.to-f.from)*p)
}

// finishFade closes the transaction first so the final volume goes
// through auto-mute and persistence.
func (c *Controller) finishFade() {
	f := c.fade
	f.timer.Stop()
	f.txn.End()
	c.fade = nil
	c.setVolume(f.to)
	c.persist()
}

func (c *Controller) stopFade() {
	if c.fade == nil {
		return
	}
	c.fade.timer.Stop()
	c.fade.txn.End()
	c.fade = nil
}
