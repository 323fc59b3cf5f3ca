package playback

import "time"

// Controller owns the authoritative playback position of one opened video.
// UI code proposes changes through its methods and never writes the position.
//
// A Controller is not safe for concurrent use. The session calls it from a
// single goroutine, between ticks.
type Controller struct {
	state   State
	jump    int
	hasJump bool
	speed   Speed
	base    time.Duration
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithBaseInterval sets the tick interval at speed 1.
func WithBaseInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.base = d
		}
	}
}

// NewController creates a controller positioned at frame 0.
func NewController(frameCount int, opts ...ControllerOption) (*Controller, error) {
	if frameCount < 1 {
		return nil, ErrEmptyVideo
	}

	c := &Controller{
		state: State{FrameCount: frameCount},
		speed: 1,
		base:  DefaultBaseInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RequestJump schedules a jump for the next tick, replacing any jump that
// has not been consumed yet. Out-of-range targets are rejected and leave the
// pending jump as it was.
func (c *Controller) RequestJump(frame int) error {
	if frame < 0 || frame >= c.state.FrameCount {
		return &OutOfRangeError{Frame: frame, FrameCount: c.state.FrameCount}
	}
	c.jump = frame
	c.hasJump = true
	return nil
}

// PendingJump returns the jump that the next tick will consume, if any.
func (c *Controller) PendingJump() (int, bool) {
	return c.jump, c.hasJump
}

// SetPaused sets the pause flag. The next tick observes it.
func (c *Controller) SetPaused(paused bool) {
	c.state.Paused = paused
}

// TogglePause flips the pause flag and returns the new value.
func (c *Controller) TogglePause() bool {
	c.state.Paused = !c.state.Paused
	return c.state.Paused
}

// Paused reports whether autonomous advance is suspended.
func (c *Controller) Paused() bool {
	return c.state.Paused
}

// SetSpeed changes the multiplier used for ticks scheduled from now on.
func (c *Controller) SetSpeed(s Speed) error {
	if !s.Valid() {
		return &InvalidSpeedError{Value: float64(s)}
	}
	c.speed = s
	return nil
}

// Speed returns the current multiplier.
func (c *Controller) Speed() Speed {
	return c.speed
}

// BaseInterval returns the tick interval at speed 1.
func (c *Controller) BaseInterval() time.Duration {
	return c.base
}

// Interval returns the current tick interval.
func (c *Controller) Interval() time.Duration {
	return c.speed.Interval(c.base)
}

// Position returns the last reconciled position.
func (c *Controller) Position() int {
	return c.state.Position
}

// FrameCount returns the number of frames of the opened video.
func (c *Controller) FrameCount() int {
	return c.state.FrameCount
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state
}

// Tick reconciles the next position from the observed slider value and
// consumes the pending jump.
func (c *Controller) Tick(observedSlider int) Step {
	next, step := Reconcile(c.state, Inputs{
		Jump:    c.jump,
		HasJump: c.hasJump,
		Slider:  observedSlider,
	})
	c.state = next
	c.jump = 0
	c.hasJump = false
	return step
}
