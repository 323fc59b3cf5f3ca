package ports

import (
	"context"
	"image"
)

// DisplayFrame is one decoded frame together with the playback state that
// produced it.
type DisplayFrame struct {
	Index       int
	FrameCount  int
	Image       image.Image
	Cause       string
	EndOfStream bool
	Speed       float64
	Paused      bool
}

// FrameSink abstracts the display surface.
type FrameSink interface {
	// Show presents a frame. It is called once per tick from the playback goroutine.
	Show(ctx context.Context, frame DisplayFrame) error
}
