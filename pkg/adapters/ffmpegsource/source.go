// Package ffmpegsource decodes frames by running an external ffmpeg process
// per frame. Each decode is bound to the caller's context, so cancelling the
// session kills an in-flight ffmpeg.
package ffmpegsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/user/framereview/pkg/adapters/mp4probe"
	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg is not found in PATH or common locations.
	ErrFFmpegNotFound = errors.New("ffmpegsource: ffmpeg not found in PATH")

	// ErrClosed is returned by reads after Close.
	ErrClosed = errors.New("ffmpegsource: source closed")
)

// BackendName identifies this adapter in ports.VideoInfo.
const BackendName = "ffmpeg"

// runFunc runs a command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w\nstderr: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// Opener opens videos for ffmpeg decoding.
type Opener struct {
	// FFmpegPath overrides the ffmpeg lookup. ffprobe is expected next to it.
	FFmpegPath string

	run runFunc
}

// Open probes the video and returns a source positioned at frame 0.
func (o *Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, playback.ErrIO, err)
	}

	ffmpegPath, err := findFFmpeg(o.FFmpegPath)
	if err != nil {
		return nil, err
	}
	run := o.run
	if run == nil {
		run = runCommand
	}

	info, err := probe(ctx, run, ffprobeFor(ffmpegPath), path)
	if err != nil {
		return nil, err
	}
	if info.FrameCount < 1 {
		return nil, fmt.Errorf("open %s: %w", path, playback.ErrEmptyVideo)
	}

	return &Source{
		ffmpegPath: ffmpegPath,
		info:       info,
		run:        run,
	}, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source decodes single frames with ffmpeg's select filter.
type Source struct {
	ffmpegPath string
	info       ports.VideoInfo
	run        runFunc

	mu     sync.Mutex
	next   int
	closed bool
}

// Info returns the probed video metadata.
func (s *Source) Info() ports.VideoInfo {
	return s.info
}

// Seek sets the frame the next ReadFrame decodes.
func (s *Source) Seek(index int) error {
	if index < 0 || index >= s.info.FrameCount {
		return &playback.OutOfRangeError{Frame: index, FrameCount: s.info.FrameCount}
	}
	s.mu.Lock()
	s.next = index
	s.mu.Unlock()
	return nil
}

// ReadFrame decodes the current frame and advances by one.
func (s *Source) ReadFrame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	index := s.next
	s.mu.Unlock()

	if index >= s.info.FrameCount {
		return nil, fmt.Errorf("read frame %d: %w", index, &playback.OutOfRangeError{Frame: index, FrameCount: s.info.FrameCount})
	}

	out, err := s.run(ctx, s.ffmpegPath, frameArgs(s.info.Path, index)...)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w: %w", index, playback.ErrDecode, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("decode frame %d: %w: ffmpeg produced no image", index, playback.ErrDecode)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w: %w", index, playback.ErrDecode, err)
	}

	s.mu.Lock()
	if s.next == index {
		s.next = index + 1
	}
	s.mu.Unlock()
	return img, nil
}

// Close marks the source closed. Processes already running end with their context.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ ports.FrameSource = (*Source)(nil)

// frameArgs selects exactly frame index by its decode order number and
// writes it to stdout as PNG.
func frameArgs(path string, index int) []string {
	return []string{
		"-v", "error",
		"-nostdin",
		"-i", path,
		"-vf", fmt.Sprintf(`select=eq(n\,%d)`, index),
		"-vsync", "0",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

// IsAvailable reports whether an ffmpeg binary can be found.
func IsAvailable(customPath string) bool {
	_, err := findFFmpeg(customPath)
	return err == nil
}

// findFFmpeg searches for ffmpeg in PATH and common locations.
// A non-empty customPath is used as is.
func findFFmpeg(customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, customPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	path, err := exec.LookPath(execName)
	if err == nil {
		return path, nil
	}

	var commonPaths []string
	if runtime.GOOS == "windows" {
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	} else {
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/opt/homebrew/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// probe fills VideoInfo from the container when mp4probe understands it
// and from ffprobe otherwise.
func probe(ctx context.Context, run runFunc, ffprobePath, path string) (ports.VideoInfo, error) {
	info := ports.VideoInfo{Path: path, Backend: BackendName}

	if mp4probe.Supported(path) {
		if mi, err := mp4probe.ProbeFile(path); err == nil && mi.FrameCount > 0 {
			info.Codec = string(mi.Codec)
			info.FrameCount = mi.FrameCount
			info.Width = mi.Width
			info.Height = mi.Height
			info.FrameRate = mi.FrameRate
			info.Duration = mi.Duration
			return info, nil
		}
	}

	stream, err := ffprobeStream(ctx, run, ffprobePath, path)
	if err != nil {
		return info, err
	}
	info.Codec = stream.CodecName
	info.FrameCount = stream.frameCount()
	info.Width = stream.Width
	info.Height = stream.Height
	info.FrameRate = stream.frameRate()
	info.Duration = stream.duration()
	return info, nil
}
