// Package session ties a frame source, the playback controller, the index
// table and a frame sink into one playback loop.
//
// A Session is single-threaded. Run, Step and Apply must be called from the
// same goroutine. Other goroutines (stdin readers, file watchers) talk to a
// running session by sending Commands on the channel passed to Run.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/user/framereview/pkg/index"
	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
	"github.com/user/framereview/pkg/snapshot"
)

// ErrQuit is returned by Apply for a quit command.
var ErrQuit = errors.New("session: quit")

// FrameError reports a frame that could not be decoded or seeked to.
// Playback is paused when it is returned and the session stays usable.
type FrameError struct {
	Frame int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("session: frame %d: %v", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Is matches playback.ErrDecode.
func (e *FrameError) Is(target error) bool {
	return target == playback.ErrDecode
}

// Ticker paces Run. *playback.Clock satisfies it.
type Ticker interface {
	Reset()
	Wait(ctx context.Context) (time.Time, error)
}

// Deps are the adapters a session talks to.
type Deps struct {
	Sink     ports.FrameSink
	Renderer ports.Renderer
	FS       ports.FileSystem
	Logger   ports.Logger
	// Clock measures decode times and drives NewTicker. Nil means the wall clock.
	Clock clock.Clock
}

// Options configures a session.
type Options struct {
	// Speed is the initial multiplier. Zero means 1.
	Speed playback.Speed
	// BaseInterval is the tick interval at speed 1. Zero means playback.DefaultBaseInterval.
	BaseInterval time.Duration
	// Loop keeps playing past end of stream. When false Run returns after
	// the first end-of-stream cycle.
	Loop bool
	// MaxTicks stops Run after that many ticks. Zero means no limit.
	MaxTicks int
	// IndexEncoding is the expected text encoding of index files.
	IndexEncoding string
	// SnapshotQuality is the JPEG quality of snapshots.
	SnapshotQuality int
	// FontPath is an optional TrueType font for snapshot captions.
	FontPath string
}

// DefaultOptions returns the options of a plain interactive session.
func DefaultOptions() Options {
	return Options{
		Speed:           1,
		BaseInterval:    playback.DefaultBaseInterval,
		Loop:            true,
		IndexEncoding:   index.DefaultEncoding,
		SnapshotQuality: snapshot.DefaultQuality,
	}
}

// Session is one opened video under playback.
type Session struct {
	id     string
	deps   Deps
	opts   Options
	logger ports.Logger

	source ports.FrameSource
	info   ports.VideoInfo
	ctrl   *playback.Controller
	slider *playback.Slider
	table  *index.Table
	snap   *snapshot.Writer

	// next is the frame the source returns on its next read, -1 if unknown.
	next      int
	last      ports.DisplayFrame
	indexPath string
	ticks     int
	closed    bool
}

// Open opens path with opener and displays frame 0.
func Open(ctx context.Context, opener ports.SourceOpener, path string, deps Deps, opts Options) (*Session, error) {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	id := uuid.NewString()
	logger := deps.Logger.WithComponent("session")

	src, err := opener.Open(ctx, path)
	if err != nil {
		logger.Error("Failed to open %s: %v", path, err)
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s, err := newSession(id, src, deps, opts, logger)
	if err != nil {
		src.Close()
		logger.Error("Failed to open %s: %v", path, err)
		return nil, err
	}

	info := s.info
	logger.Info("Opened %s: %d frames, %dx%d, %s backend", path, info.FrameCount, info.Width, info.Height, info.Backend)

	open := playback.Step{Position: 0, Cause: playback.CauseOpen, EndOfStream: info.FrameCount == 1}
	if err := s.display(ctx, open); err != nil {
		src.Close()
		var fe *FrameError
		if errors.As(err, &fe) {
			logger.Warn("Failed to decode frame %d: %v", 0, fe.Err)
		}
		return nil, err
	}
	s.slider.Publish(0)
	return s, nil
}

func newSession(id string, src ports.FrameSource, deps Deps, opts Options, logger ports.Logger) (*Session, error) {
	info := src.Info()
	ctrl, err := playback.NewController(info.FrameCount, playback.WithBaseInterval(opts.BaseInterval))
	if err != nil {
		return nil, err
	}
	if opts.Speed != 0 {
		if err := ctrl.SetSpeed(opts.Speed); err != nil {
			return nil, err
		}
	}
	table, err := index.New(index.Options{Encoding: opts.IndexEncoding})
	if err != nil {
		return nil, err
	}

	return &Session{
		id:     id,
		deps:   deps,
		opts:   opts,
		logger: logger,
		source: src,
		info:   info,
		ctrl:   ctrl,
		slider: playback.NewSlider(info.FrameCount),
		table:  table,
		snap: snapshot.New(deps.Renderer, deps.FS, snapshot.Options{
			Quality:  opts.SnapshotQuality,
			FontPath: opts.FontPath,
		}),
		next: 0,
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Info returns the metadata of the opened source.
func (s *Session) Info() ports.VideoInfo { return s.info }

// Position returns the authoritative playback position.
func (s *Session) Position() int { return s.ctrl.Position() }

// Paused reports whether autonomous advance is suspended.
func (s *Session) Paused() bool { return s.ctrl.Paused() }

// Speed returns the current multiplier.
func (s *Session) Speed() playback.Speed { return s.ctrl.Speed() }

// Slider returns the position slider the host renders.
func (s *Session) Slider() *playback.Slider { return s.slider }

// Index returns the loaded index table.
func (s *Session) Index() *index.Table { return s.table }

// LastFrame returns the most recently displayed frame.
func (s *Session) LastFrame() ports.DisplayFrame { return s.last }

// Ticks returns the number of completed tick cycles.
func (s *Session) Ticks() int { return s.ticks }

// NewTicker returns a playback clock that follows the session's speed.
func (s *Session) NewTicker() *playback.Clock {
	return playback.NewClock(s.deps.Clock, s.ctrl.Interval)
}

// Step runs one tick cycle: reconcile, decode, show and publish the
// position to the slider.
func (s *Session) Step(ctx context.Context) (playback.Step, error) {
	step := s.ctrl.Tick(s.slider.Value())
	s.ticks++

	switch step.Cause {
	case playback.CauseJump:
		s.logger.Info("Jump to frame %d", step.Position)
	case playback.CauseSeek:
		s.logger.Info("Seek to frame %d", step.Position)
	case playback.CauseWrap:
		s.logger.Debug("Wrapped to frame %d", step.Position)
	}
	if step.EndOfStream {
		s.logger.Info("End of stream at frame %d", step.Position)
	}

	err := s.display(ctx, step)
	s.slider.Publish(step.Position)
	if err != nil {
		var fe *FrameError
		if errors.As(err, &fe) {
			s.ctrl.SetPaused(true)
			s.logger.Warn("Failed to decode frame %d: %v", step.Position, fe.Err)
		}
		return step, err
	}
	return step, nil
}

// display decodes the frame at step.Position and hands it to the sink.
func (s *Session) display(ctx context.Context, step playback.Step) error {
	pos := step.Position
	if s.next != pos {
		s.logger.Debug("Seeking source to frame %d", pos)
		if err := s.source.Seek(pos); err != nil {
			s.next = -1
			return &FrameError{Frame: pos, Err: err}
		}
		s.next = pos
	}

	start := s.deps.Clock.Now()
	img, err := s.source.ReadFrame(ctx)
	if err != nil {
		s.next = -1
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &FrameError{Frame: pos, Err: err}
	}
	s.next = pos + 1
	s.logger.Debug("Frame %d decoded in %s (%s)", pos, s.deps.Clock.Since(start), step.Cause)

	frame := ports.DisplayFrame{
		Index:       pos,
		FrameCount:  s.info.FrameCount,
		Image:       img,
		Cause:       step.Cause.String(),
		EndOfStream: step.EndOfStream,
		Speed:       float64(s.ctrl.Speed()),
		Paused:      s.ctrl.Paused(),
	}
	s.last = frame
	if err := s.deps.Sink.Show(ctx, frame); err != nil {
		s.logger.Error("Failed to show frame %d: %v", pos, err)
		return fmt.Errorf("show frame %d: %w", pos, err)
	}
	return nil
}

// Apply executes one command. Invalid commands return an error and leave
// the session unchanged. A quit command returns ErrQuit.
func (s *Session) Apply(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case CmdPause:
		s.ctrl.SetPaused(true)
		s.logger.Info("Paused at frame %d", s.ctrl.Position())
	case CmdResume:
		s.ctrl.SetPaused(false)
		s.logger.Info("Resumed at frame %d", s.ctrl.Position())
	case CmdToggle:
		if s.ctrl.TogglePause() {
			s.logger.Info("Paused at frame %d", s.ctrl.Position())
		} else {
			s.logger.Info("Resumed at frame %d", s.ctrl.Position())
		}
	case CmdSpeed:
		if err := s.ctrl.SetSpeed(cmd.Speed); err != nil {
			return err
		}
		s.logger.Info("Speed set to %sx", cmd.Speed)
	case CmdSeek:
		s.slider.Drag(cmd.Frame)
	case CmdJump:
		return s.ctrl.RequestJump(cmd.Frame)
	case CmdSelect:
		entry, err := s.table.Select(cmd.Entry, s.ctrl)
		if err != nil {
			return err
		}
		s.logger.Info("Selected index entry %d: frame %d", cmd.Entry, entry.Frame)
	case CmdIndex:
		_, err := s.LoadIndex(cmd.Path)
		return err
	case CmdReload:
		if s.indexPath == "" {
			return nil
		}
		s.logger.Info("Index file changed, reloading %s", s.indexPath)
		_, err := s.LoadIndex(s.indexPath)
		return err
	case CmdSnap:
		_, err := s.Snapshot(cmd.Path, cmd.Caption)
		return err
	case CmdStatus:
		if s.last.Image == nil {
			return nil
		}
		return s.deps.Sink.Show(ctx, s.last)
	case CmdQuit:
		return ErrQuit
	default:
		return fmt.Errorf("%w: unknown command kind %d", playback.ErrInvalidInput, cmd.Kind)
	}
	return nil
}

// LoadIndex replaces the index table with the entries of path. An empty
// path is a cancelled dialog and does nothing.
func (s *Session) LoadIndex(path string) (index.Report, error) {
	if path == "" {
		return index.Report{}, nil
	}
	report, err := s.table.LoadFile(s.deps.FS, path)
	if err != nil {
		s.logger.Warn("Failed to load index: %v", err)
		return report, err
	}
	s.indexPath = path
	s.logger.Info("Loaded %d index entries from %s", report.Loaded, path)
	for _, skipped := range report.Skipped {
		s.logger.Warn("Skipped index line %d: %s", skipped.Line, skipped.Err)
	}
	return report, nil
}

// IndexPath returns the file the index table was last loaded from.
func (s *Session) IndexPath() string { return s.indexPath }

// Snapshot saves the displayed frame to path. An empty path is a cancelled
// dialog and reports false. With caption the frame number and the label of
// the first index entry pointing at it are drawn below the image.
func (s *Session) Snapshot(path string, caption bool) (bool, error) {
	text := ""
	if caption && s.last.Image != nil {
		text = snapshot.Caption(s.last, s.labelFor(s.last.Index))
	}
	ok, err := s.snap.Save(path, s.last, text)
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Info("Snapshot cancelled")
		return false, nil
	}
	s.logger.Info("Snapshot of frame %d saved to %s", s.last.Index, path)
	return true, nil
}

func (s *Session) labelFor(frame int) string {
	for _, e := range s.table.Entries() {
		if e.Frame == frame {
			return e.Label
		}
	}
	return ""
}

// Run plays until quit, cancellation, MaxTicks, or end of stream when
// looping is off. Each cycle waits for a tick, steps, then applies the
// commands already queued on cmds without blocking. A nil cmds is allowed.
//
// Frame decode failures pause playback and do not end Run. Sink failures do.
func (s *Session) Run(ctx context.Context, ticker Ticker, cmds <-chan Command) error {
	s.logger.Info("Session %s started at %sx speed", s.id, s.ctrl.Speed())
	ticker.Reset()

	for {
		if _, err := ticker.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Playback stopped: %s", "cancelled")
				return nil
			}
			return err
		}

		step, err := s.Step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Playback stopped: %s", "cancelled")
				return nil
			}
			var fe *FrameError
			if !errors.As(err, &fe) {
				return err
			}
		}

		if s.opts.MaxTicks > 0 && s.ticks >= s.opts.MaxTicks {
			s.logger.Info("Playback stopped: %s", "tick limit reached")
			return nil
		}
		if step.EndOfStream && !s.opts.Loop {
			s.logger.Info("Playback stopped: %s", "end of stream")
			return nil
		}

		if quit := s.drain(ctx, cmds); quit {
			s.logger.Info("Playback stopped: %s", "quit")
			return nil
		}
	}
}

// drain applies every queued command and reports whether one was quit.
func (s *Session) drain(ctx context.Context, cmds <-chan Command) bool {
	for {
		select {
		case cmd, ok := <-cmds:
			if !ok {
				return false
			}
			if err := s.Apply(ctx, cmd); err != nil {
				if errors.Is(err, ErrQuit) {
					return true
				}
				s.logger.Warn("Rejected command %q: %v", cmd.String(), err)
			}
		default:
			return false
		}
	}
}

// Close releases the source. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("Session closed after %d ticks", s.ticks)
	return s.source.Close()
}
