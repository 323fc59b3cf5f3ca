package mocks

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/user/framereview/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource.
// Frame i is a 4x4 gray image whose pixel value is i%256.
type FrameSource struct {
	mu sync.Mutex

	info   ports.VideoInfo
	next   int
	closed bool

	SeekFunc      func(index int) error
	ReadFrameFunc func(ctx context.Context, index int) (image.Image, error)

	// Recorded calls for verification
	Seeks []int
	Reads []int
}

// NewFrameSource creates a mock source with frameCount frames.
func NewFrameSource(frameCount int) *FrameSource {
	return &FrameSource{
		info: ports.VideoInfo{
			Path:       "mock.mp4",
			Backend:    "mock",
			Codec:      "mock",
			FrameCount: frameCount,
			Width:      4,
			Height:     4,
			FrameRate:  25,
		},
	}
}

// FrameImage returns the image the mock decodes for index.
func FrameImage(index int) image.Image {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(index % 256)
	}
	return img
}

// FrameIndexOf recovers the frame index encoded by FrameImage.
func FrameIndexOf(img image.Image) int {
	g := color.GrayModel.Convert(img.At(0, 0)).(color.Gray)
	return int(g.Y)
}

func (m *FrameSource) Info() ports.VideoInfo {
	return m.info
}

func (m *FrameSource) Seek(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Seeks = append(m.Seeks, index)
	if m.SeekFunc != nil {
		if err := m.SeekFunc(index); err != nil {
			return err
		}
	}
	if index < 0 || index >= m.info.FrameCount {
		return fmt.Errorf("seek out of range: %d", index)
	}
	m.next = index
	return nil
}

func (m *FrameSource) ReadFrame(ctx context.Context) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	index := m.next
	m.Reads = append(m.Reads, index)
	if m.ReadFrameFunc != nil {
		img, err := m.ReadFrameFunc(ctx, index)
		if err != nil {
			return nil, err
		}
		m.next++
		return img, nil
	}
	if index >= m.info.FrameCount {
		return nil, fmt.Errorf("read past end: %d", index)
	}
	m.next++
	return FrameImage(index), nil
}

func (m *FrameSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *FrameSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ ports.FrameSource = (*FrameSource)(nil)

// SourceOpener is a mock implementation of ports.SourceOpener.
type SourceOpener struct {
	Source   ports.FrameSource
	OpenFunc func(ctx context.Context, path string) (ports.FrameSource, error)

	Opened []string
}

func (m *SourceOpener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	m.Opened = append(m.Opened, path)
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, path)
	}
	return m.Source, nil
}

var _ ports.SourceOpener = (*SourceOpener)(nil)
