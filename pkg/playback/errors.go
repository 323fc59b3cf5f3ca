package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the parent of every validation error reported to callers.
	ErrInvalidInput = errors.New("playback: invalid input")

	// ErrOutOfRange is returned when a frame index falls outside [0, frameCount).
	ErrOutOfRange = errors.New("playback: frame index out of range")

	// ErrInvalidSpeed is returned for a speed multiplier outside the enumerated set.
	ErrInvalidSpeed = errors.New("playback: invalid speed")

	// ErrDecode is returned when an index resource or a video frame cannot be decoded.
	ErrDecode = errors.New("playback: decode failed")

	// ErrIO is returned when a file cannot be found or read.
	ErrIO = errors.New("playback: i/o error")

	// ErrEmptyVideo is returned when a source reports no frames.
	ErrEmptyVideo = errors.New("playback: video has no frames")
)

// OutOfRangeError reports a jump target outside the opened video.
type OutOfRangeError struct {
	Frame      int
	FrameCount int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("playback: frame %d out of range [0, %d)", e.Frame, e.FrameCount)
}

// Is matches ErrOutOfRange and ErrInvalidInput.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange || target == ErrInvalidInput
}

// InvalidSpeedError reports a speed multiplier that is not one of Speeds.
type InvalidSpeedError struct {
	Value float64
}

func (e *InvalidSpeedError) Error() string {
	return fmt.Sprintf("playback: speed %g is not one of %v", e.Value, Speeds)
}

// Is matches ErrInvalidSpeed and ErrInvalidInput.
func (e *InvalidSpeedError) Is(target error) bool {
	return target == ErrInvalidSpeed || target == ErrInvalidInput
}
