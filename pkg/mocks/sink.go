package mocks

import (
	"context"
	"sync"

	"github.com/user/framereview/pkg/ports"
)

// FrameSink is a mock implementation of ports.FrameSink that records every frame.
type FrameSink struct {
	mu sync.RWMutex

	ShowFunc func(ctx context.Context, frame ports.DisplayFrame) error

	Frames []ports.DisplayFrame
}

func (m *FrameSink) Show(ctx context.Context, frame ports.DisplayFrame) error {
	m.mu.Lock()
	m.Frames = append(m.Frames, frame)
	m.mu.Unlock()
	if m.ShowFunc != nil {
		return m.ShowFunc(ctx, frame)
	}
	return nil
}

// Indices returns the index of every shown frame in order.
func (m *FrameSink) Indices() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, len(m.Frames))
	for i, f := range m.Frames {
		out[i] = f.Index
	}
	return out
}

// Last returns the most recently shown frame.
func (m *FrameSink) Last() (ports.DisplayFrame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Frames) == 0 {
		return ports.DisplayFrame{}, false
	}
	return m.Frames[len(m.Frames)-1], true
}

var _ ports.FrameSink = (*FrameSink)(nil)
