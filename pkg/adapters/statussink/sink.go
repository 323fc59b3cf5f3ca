// Package statussink shows playback progress as a one-line terminal status.
package statussink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

// Sink prints one status line per displayed frame. On a terminal the line
// is redrawn in place. Otherwise each frame gets its own line.
type Sink struct {
	mu      sync.Mutex
	out     io.Writer
	tty     bool
	written bool
}

// New creates a sink writing to out. Redrawing is enabled when out is a terminal.
func New(out io.Writer) *Sink {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return NewWriter(out, tty)
}

// NewWriter creates a sink with explicit redraw behaviour.
func NewWriter(out io.Writer, tty bool) *Sink {
	return &Sink{out: out, tty: tty}
}

// Show writes the status line for frame.
func (s *Sink) Show(ctx context.Context, frame ports.DisplayFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := Format(frame)
	var err error
	if s.tty {
		_, err = fmt.Fprintf(s.out, "\r%s\x1b[K", line)
	} else {
		_, err = fmt.Fprintln(s.out, line)
	}
	s.written = true
	return err
}

// Close ends a redrawn status line so later output starts on a fresh line.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tty && s.written {
		_, err := fmt.Fprintln(s.out)
		s.written = false
		return err
	}
	return nil
}

// Format renders the status text of a frame, e.g.
// "frame 12/99 [advance] 1.25x playing".
func Format(frame ports.DisplayFrame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "frame %d/%d [%s] %sx", frame.Index, frame.FrameCount-1, frame.Cause, speedLabel(frame.Speed))
	if frame.Paused {
		b.WriteString(" paused")
	} else {
		b.WriteString(" playing")
	}
	if frame.EndOfStream {
		b.WriteString(" end")
	}
	return b.String()
}

func speedLabel(v float64) string {
	if v == 0 {
		v = 1
	}
	return playback.Speed(v).String()
}

var _ ports.FrameSink = (*Sink)(nil)
