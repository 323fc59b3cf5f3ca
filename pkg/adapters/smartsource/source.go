// Package smartsource picks a frame source backend for a path and opens it.
package smartsource

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/framereview/pkg/adapters/ffgosource"
	"github.com/user/framereview/pkg/adapters/ffmpegsource"
	"github.com/user/framereview/pkg/adapters/imageseq"
	"github.com/user/framereview/pkg/adapters/mp4probe"
	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

// Backend names a decoding backend.
type Backend string

const (
	// BackendAuto selects imageseq for directories, then ffgo, then ffmpeg.
	BackendAuto Backend = "auto"
	// BackendFFgo decodes in-process through the FFmpeg shared libraries.
	BackendFFgo Backend = ffgosource.BackendName
	// BackendFFmpeg runs the ffmpeg binary once per frame.
	BackendFFmpeg Backend = ffmpegsource.BackendName
	// BackendImageSeq plays a directory of numbered images.
	BackendImageSeq Backend = imageseq.BackendName
)

// ErrUnknownBackend is returned for a backend name that is not listed above.
var ErrUnknownBackend = fmt.Errorf("smartsource: unknown backend: %w", playback.ErrInvalidInput)

// ParseBackend parses a backend name. An empty string is BackendAuto.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendFFgo, BackendFFmpeg, BackendImageSeq:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Options configures backend selection.
type Options struct {
	// Backend forces a backend. Empty means BackendAuto.
	Backend Backend
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// FrameRate is the nominal rate reported for image sequences.
	FrameRate float64
}

// Opener opens paths with the backend chosen by its options.
type Opener struct {
	opts   Options
	fs     ports.FileSystem
	logger ports.Logger

	ffgo          ports.SourceOpener
	ffmpeg        ports.SourceOpener
	images        ports.SourceOpener
	ffgoAvailable func() error
}

// New creates an Opener. fs and renderer serve the image sequence backend.
func New(opts Options, fs ports.FileSystem, renderer ports.Renderer, logger ports.Logger) *Opener {
	return &Opener{
		opts:          opts,
		fs:            fs,
		logger:        logger,
		ffgo:          &ffgosource.Opener{},
		ffmpeg:        &ffmpegsource.Opener{FFmpegPath: opts.FFmpegPath},
		images:        &imageseq.Opener{FS: fs, Renderer: renderer, FrameRate: opts.FrameRate},
		ffgoAvailable: ffgosource.Available,
	}
}

// Select returns the backend that Open would use for path.
func (o *Opener) Select(path string) (Backend, error) {
	backend := o.backend()
	if backend != BackendAuto {
		if _, err := ParseBackend(string(backend)); err != nil {
			return "", err
		}
		return backend, nil
	}

	isDir, err := o.fs.IsDir(path)
	if err == nil && isDir {
		return BackendImageSeq, nil
	}
	if err := o.ffgoAvailable(); err != nil {
		o.logger.Warn("ffgo unavailable, using ffmpeg: %v", err)
		return BackendFFmpeg, nil
	}
	return BackendFFgo, nil
}

// Open selects a backend and opens path with it.
func (o *Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	backend, err := o.Select(path)
	if err != nil {
		return nil, err
	}

	if backend != BackendImageSeq && !mp4probe.Supported(path) && !strings.EqualFold(filepath.Ext(path), ".avi") {
		o.logger.Warn("Unexpected video extension: %s", filepath.Ext(path))
	}

	src, err := o.opener(backend).Open(ctx, path)
	if err != nil && backend == BackendFFgo && o.backend() == BackendAuto && errors.Is(err, ffgosource.ErrUnavailable) {
		o.logger.Warn("ffgo unavailable, using ffmpeg: %v", err)
		return o.ffmpeg.Open(ctx, path)
	}
	return src, err
}

func (o *Opener) backend() Backend {
	if o.opts.Backend == "" {
		return BackendAuto
	}
	return o.opts.Backend
}

func (o *Opener) opener(b Backend) ports.SourceOpener {
	switch b {
	case BackendFFgo:
		return o.ffgo
	case BackendImageSeq:
		return o.images
	default:
		return o.ffmpeg
	}
}

var _ ports.SourceOpener = (*Opener)(nil)
