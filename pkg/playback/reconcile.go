// Package playback implements the frame-position engine: the reconcile step
// that turns playback ticks, slider drags, jump requests and wraparound into a
// single decode position, plus the clock that drives it.
package playback

// Cause names the rule that produced a step.
type Cause int

const (
	// CauseOpen is the initial display right after a video is opened.
	CauseOpen Cause = iota
	// CauseJump is an external jump request (index selection, jump command).
	CauseJump
	// CausePaused keeps the current position while paused.
	CausePaused
	// CauseSeek adopts a slider value dragged by the user.
	CauseSeek
	// CauseWrap restarts playback near the beginning after the last frame.
	CauseWrap
	// CauseAdvance is autonomous forward playback.
	CauseAdvance
)

// String returns the lowercase name of the cause.
func (c Cause) String() string {
	switch c {
	case CauseOpen:
		return "open"
	case CauseJump:
		return "jump"
	case CausePaused:
		return "paused"
	case CauseSeek:
		return "seek"
	case CauseWrap:
		return "wrap"
	case CauseAdvance:
		return "advance"
	default:
		return "unknown"
	}
}

// wrapTarget is the position playback restarts from after the last frame.
const wrapTarget = 1

// State is the position state owned by a Controller.
type State struct {
	Position   int
	FrameCount int
	Paused     bool

	// Published is the slider value the engine last handed to the UI.
	// A slider reading that differs from it is a user drag.
	Published int
}

// Inputs are the values observed from outside the engine for one tick.
type Inputs struct {
	Jump    int
	HasJump bool
	Slider  int
}

// Step is the outcome of one tick.
type Step struct {
	Position    int
	Cause       Cause
	EndOfStream bool
}

// Reconcile computes the next position. It is pure: the returned State is a
// modified copy and the caller decides whether to keep it.
//
// Precedence: pending jump, pause, slider drag, wraparound, advance.
// EndOfStream is set when the resulting position is the last frame, unless
// the step merely held a paused position.
func Reconcile(s State, in Inputs) (State, Step) {
	last := s.FrameCount - 1
	step := Step{}

	switch {
	case in.HasJump:
		step.Position = in.Jump
		step.Cause = CauseJump
	case s.Paused:
		step.Position = s.Position
		step.Cause = CausePaused
	case in.Slider != s.Published && in.Slider >= 0 && in.Slider <= last:
		step.Position = in.Slider
		step.Cause = CauseSeek
	case s.Position >= last:
		step.Position = min(wrapTarget, last)
		step.Cause = CauseWrap
	default:
		step.Position = s.Position + 1
		step.Cause = CauseAdvance
	}

	step.EndOfStream = step.Position == last && step.Cause != CausePaused

	s.Position = step.Position
	s.Published = step.Position
	return s, step
}
