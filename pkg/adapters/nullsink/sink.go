// Package nullsink provides a no-op frame sink implementation.
package nullsink

import (
	"context"

	"github.com/user/framereview/pkg/ports"
)

// Sink discards every frame. It counts them so headless runs can report
// how many ticks were shown.
type Sink struct {
	shown int
}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Show does nothing.
func (s *Sink) Show(ctx context.Context, frame ports.DisplayFrame) error {
	s.shown++
	return nil
}

// Shown returns the number of frames passed to Show.
func (s *Sink) Shown() int {
	return s.shown
}

var _ ports.FrameSink = (*Sink)(nil)
