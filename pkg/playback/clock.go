package playback

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// Clock schedules playback ticks on deadlines spaced by the current interval.
//
// Each Wait schedules exactly one deadline, previous deadline plus the
// interval sampled at that moment. When decoding has fallen behind, Wait
// returns immediately so every elapsed interval still yields one tick.
type Clock struct {
	clk      clock.Clock
	interval func() time.Duration
	last     time.Time
	started  bool
}

// NewClock creates a clock. interval is read once per scheduled tick.
// A nil clk uses the wall clock.
func NewClock(clk clock.Clock, interval func() time.Duration) *Clock {
	if clk == nil {
		clk = clock.New()
	}
	return &Clock{
		clk:      clk,
		interval: interval,
	}
}

// Reset anchors the schedule on the current time.
func (c *Clock) Reset() {
	c.last = c.clk.Now()
	c.started = true
}

// Wait blocks until the next tick is due and returns its scheduled time.
// It returns ctx.Err() as soon as ctx is done.
func (c *Clock) Wait(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if !c.started {
		c.Reset()
	}

	deadline := c.last.Add(c.interval())
	c.last = deadline

	d := deadline.Sub(c.clk.Now())
	if d <= 0 {
		return deadline, nil
	}

	timer := c.clk.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case <-timer.C:
		return deadline, nil
	}
}
