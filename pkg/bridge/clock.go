package bridge

import (
	"time"
)

// Tick is one firing of the sampling clock.
type Tick struct {
	Seq uint64
	At  time.Time
}

// Clock fires at a fixed period. Fires that arrive while the previous tick is
// still being handled are dropped by the underlying ticker, never queued.
type Clock struct {
	period time.Duration
	ticker *time.Ticker
	seq    uint64
}

// NewClock creates a stopped clock.
func NewClock(period time.Duration) *Clock {
	return &Clock{period: period}
}

// Period returns the configured period.
func (c *Clock) Period() time.Duration {
	return c.period
}

// Start begins firing and returns the fire channel.
func (c *Clock) Start() <-chan time.Time {
	if c.ticker == nil {
		c.ticker = time.NewTicker(c.period)
	}
	return c.ticker.C
}

// Next numbers a fire. Sequence numbers start at 1.
func (c *Clock) Next(at time.Time) Tick {
	c.seq++
	return Tick{Seq: c.seq, At: at}
}

// Stop stops the clock. It is safe to call on a clock that never started.
func (c *Clock) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
}
