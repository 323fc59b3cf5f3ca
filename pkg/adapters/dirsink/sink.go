// Package dirsink provides a frame sink that writes displayed frames to a directory.
package dirsink

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

// Sink saves every displayed frame as frame-NNNNNN.png. A paused frame
// overwrites its own file.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	ready    bool
}

// New creates a directory sink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Path returns the file a frame index is written to.
func (s *Sink) Path(index int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("frame-%06d.png", index))
}

// Show encodes the frame as PNG and writes it.
func (s *Sink) Show(ctx context.Context, frame ports.DisplayFrame) error {
	if frame.Image == nil {
		return nil
	}
	if !s.ready {
		if err := s.fs.MkdirAll(s.baseDir); err != nil {
			return fmt.Errorf("create %s: %w: %w", s.baseDir, playback.ErrIO, err)
		}
		s.ready = true
	}
	data, err := s.renderer.EncodeImage(frame.Image, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", frame.Index, err)
	}
	if err := s.fs.WriteFile(s.Path(frame.Index), data); err != nil {
		return fmt.Errorf("write frame %d: %w: %w", frame.Index, playback.ErrIO, err)
	}
	return nil
}

var _ ports.FrameSink = (*Sink)(nil)
