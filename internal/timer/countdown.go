// Package timer provides the bounded session countdown.
package timer

import "sync"

// Countdown tracks remaining whole seconds of a session window. Each Tick is a
// single authoritative one-second decrement while the countdown is active.
// Deadline callbacks run exactly once, on the tick that reaches zero.
type Countdown struct {
	mu         sync.Mutex
	remaining  int
	paused     bool
	cancelled  bool
	fired      bool
	onDeadline []func()
}

// Start creates an active countdown of totalSeconds. A non-positive total is
// treated as already expired on the first tick.
func Start(totalSeconds int) *Countdown {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return &Countdown{remaining: totalSeconds}
}

// Remaining returns the seconds left, never negative.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// OnDeadline registers fn. Registering after the deadline fired or after
// Cancel does nothing.
func (c *Countdown) OnDeadline(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired || c.cancelled {
		return
	}
	c.onDeadline = append(c.onDeadline, fn)
}

// Tick advances the countdown by one second. It reports whether the countdown
// is still running afterwards. Ticks while paused, cancelled or expired are ignored.
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	if c.cancelled || c.fired {
		c.mu.Unlock()
		return false
	}
	if c.paused {
		c.mu.Unlock()
		return true
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		c.mu.Unlock()
		return true
	}
	c.fired = true
	callbacks := c.onDeadline
	c.onDeadline = nil
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return false
}

// Pause stops ticks from advancing the countdown.
func (c *Countdown) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume re-enables ticking after Pause.
func (c *Countdown) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// Cancel stops further callbacks. Cancelling after the deadline fired is a no-op.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired {
		return
	}
	c.cancelled = true
	c.onDeadline = nil
}
