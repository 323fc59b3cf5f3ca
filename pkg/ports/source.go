package ports

import (
	"context"
	"image"
	"time"
)

// VideoInfo describes an opened frame source.
type VideoInfo struct {
	Path       string
	Backend    string
	Codec      string
	FrameCount int
	Width      int
	Height     int
	FrameRate  float64
	Duration   time.Duration
}

// FrameSource abstracts random-access frame decoding.
// Frame indices are zero-based and must be below Info().FrameCount.
type FrameSource interface {
	// Info returns metadata fixed when the source was opened.
	Info() VideoInfo

	// Seek positions the source so the next ReadFrame decodes frame index.
	Seek(index int) error

	// ReadFrame decodes the frame at the current position and advances by one.
	ReadFrame(ctx context.Context) (image.Image, error)

	// Close releases decoder resources.
	Close() error
}

// SourceOpener opens frame sources by path.
type SourceOpener interface {
	// Open opens the video, image directory or other input at path.
	Open(ctx context.Context, path string) (FrameSource, error)
}
