package playback

// DefaultSliderTickInterval is the spacing of slider tick marks.
const DefaultSliderTickInterval = 5

// Slider models the position slider surface: integer range [0, frameCount-1]
// with single step 1. The engine publishes positions to it and reads the
// value back on every tick. A value it did not publish is a user drag.
type Slider struct {
	max          int
	value        int
	tickInterval int
}

// NewSlider creates a slider for a video of frameCount frames.
func NewSlider(frameCount int) *Slider {
	last := frameCount - 1
	if last < 0 {
		last = 0
	}
	return &Slider{
		max:          last,
		tickInterval: DefaultSliderTickInterval,
	}
}

// Range returns the inclusive slider bounds.
func (s *Slider) Range() (lo, hi int) {
	return 0, s.max
}

// SingleStep returns the keyboard step of the slider.
func (s *Slider) SingleStep() int {
	return 1
}

// TickInterval returns the spacing of tick marks.
func (s *Slider) TickInterval() int {
	return s.tickInterval
}

// SetTickInterval changes the spacing of tick marks. Non-positive values are ignored.
func (s *Slider) SetTickInterval(n int) {
	if n > 0 {
		s.tickInterval = n
	}
}

// Value returns the current slider value.
func (s *Slider) Value() int {
	return s.value
}

// Drag moves the slider as the user would. The value is clamped to the
// slider range like a widget handle, and the final value is returned.
func (s *Slider) Drag(v int) int {
	s.value = max(0, min(v, s.max))
	return s.value
}

// Publish sets the slider to a position computed by the engine.
func (s *Slider) Publish(v int) {
	s.value = v
}
