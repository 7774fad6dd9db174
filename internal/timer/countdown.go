// Package timer implements the suspendable one-second countdown shared by
// the quiz and dialogue controllers.
package timer

import (
	"context"
	"sync"
	"time"
)

// Countdown counts whole seconds down to zero. While suspended, ticks are
// ignored so that time spent waiting on a generation call is never charged
// to the learner. Reaching zero fires onExpire exactly once and stops the
// countdown.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	elapsed   int
	holds     int
	stopped   bool
	expired   bool
	onTick    func(remaining int)
	onExpire  func()
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Countdown.
type Option func(*Countdown)

// WithOnTick registers a callback invoked after every counted tick.
func WithOnTick(fn func(remaining int)) Option {
	return func(c *Countdown) { c.onTick = fn }
}

// New creates a countdown of the given number of seconds. onExpire may be
// nil.
func New(seconds int, onExpire func(), opts ...Option) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	c := &Countdown{
		remaining: seconds,
		onExpire:  onExpire,
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Tick advances the countdown by one second. It returns false when the
// tick was not counted (suspended or already stopped).
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	if c.stopped || c.holds > 0 {
		c.mu.Unlock()
		return false
	}
	if c.remaining > 0 {
		c.remaining--
		c.elapsed++
	}
	remaining := c.remaining
	onTick := c.onTick
	var expire func()
	if remaining == 0 {
		c.stopped = true
		c.expired = true
		expire = c.onExpire
	}
	c.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if remaining == 0 {
		c.closeDone()
		if expire != nil {
			expire()
		}
	}
	return true
}

// Suspend pauses the countdown until a matching Resume. Calls nest.
func (c *Countdown) Suspend() {
	c.mu.Lock()
	c.holds++
	c.mu.Unlock()
}

// Resume releases one Suspend.
func (c *Countdown) Resume() {
	c.mu.Lock()
	if c.holds > 0 {
		c.holds--
	}
	c.mu.Unlock()
}

// Suspended reports whether at least one Suspend is outstanding.
func (c *Countdown) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holds > 0
}

// Stop halts the countdown without firing onExpire.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.closeDone()
}

// Stopped reports whether the countdown has stopped or expired.
func (c *Countdown) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Expired reports whether the countdown ran out, as opposed to being
// stopped early.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Elapsed returns the number of counted ticks.
func (c *Countdown) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Done is closed once the countdown stops or expires.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// Run ticks the countdown every interval until it stops or ctx ends.
func (c *Countdown) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-t.C:
			c.Tick()
		}
	}
}

func (c *Countdown) closeDone() {
	c.closeOnce.Do(func() { close(c.done) })
}
