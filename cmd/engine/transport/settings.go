package transport

import (
	"time"

	"github.com/gigurra/crossfader/cmd/engine/errs"
	"github.com/gigurra/crossfader/cmd/engine/queue"
)

// SetSafeMode toggles the settings lock. Transport stays available.
func (c *Controller) SetSafeMode(on bool) {
	c.state.SafeMode = on
}

func (c *Controller) guard(what string) error {
	if c.state.SafeMode {
		return errs.Validation("cannot change %s while safe mode is enabled", what)
	}
	return nil
}

// SetShuffle switches between sequential and shuffled order. Enabling
// always draws a fresh permutation.
func (c *Controller) SetShuffle(on bool) error {
	if err := c.guard("shuffle mode"); err != nil {
		return err
	}
	c.state.Shuffled = on
	c.resolver.SetShuffled(on, c.state.Current)
	c.persist()
	return nil
}

func (c *Controller) ToggleShuffle() error {
	return c.SetShuffle(!c.state.Shuffled)
}

func (c *Controller) SetRepeat(m queue.RepeatMode) error {
	if err := c.guard("repeat mode"); err != nil {
		return err
	}
	if !m.Valid() {
		return errs.Validation("invalid repeat mode %q", m)
	}
	c.state.Repeat = m
	c.resolver.SetRepeat(m)
	c.persist()
	return nil
}

// CycleRepeat steps off -> all -> one -> off.
func (c *Controller) CycleRepeat() error {
	return c.SetRepeat(c.state.Repeat.Next())
}

// SetCrossfadeEnabled turns automatic crossfades on or off. Disabling
// cancels one in flight.
func (c *Controller) SetCrossfadeEnabled(on bool) error {
	if err := c.guard("crossfade settings"); err != nil {
		return err
	}
	c.state.Settings.CrossfadeEnabled = on
	if !on {
		c.xfade.Cancel()
	}
	c.persist()
	return nil
}

func (c *Controller) ToggleCrossfade() error {
	return c.SetCrossfadeEnabled(!c.state.Settings.CrossfadeEnabled)
}

func (c *Controller) SetCrossfadeDuration(d time.Duration) error {
	return c.setDuration("crossfade duration", d, &c.state.Settings.CrossfadeDuration)
}

func (c *Controller) SetFadeOutDuration(d time.Duration) error {
	return c.setDuration("fade out duration", d, &c.state.Settings.FadeOutDuration)
}

func (c *Controller) SetFadeInDuration(d time.Duration) error {
	return c.setDuration("fade in duration", d, &c.state.Settings.FadeInDuration)
}

func (c *Controller) setDuration(what string, d time.Duration, dst *time.Duration) error {
	if err := c.guard(what); err != nil {
		return err
	}
	if d <= 0 {
		return errs.Validation("%s must be greater than zero", what)
	}
	*dst = d
	c.persist()
	return nil
}
