//go:build !ios && !android && (amd64 || arm64)

package ffgosource

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/obinnaokechukwu/ffgo"

	"github.com/user/framereview/pkg/adapters/mp4probe"
	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

// Available reports whether the FFmpeg libraries load.
func Available() error {
	if err := ffgo.Init(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Opener opens videos with ffgo.
type Opener struct{}

// Open loads FFmpeg if needed and opens the first video stream of path.
func (o *Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	if err := Available(); err != nil {
		return nil, err
	}

	dec, err := ffgo.NewDecoder(path, ffgo.WithStreams(ffgo.MediaTypeVideo))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, playback.ErrIO, err)
	}

	vs := dec.VideoStream()
	if vs == nil {
		dec.Close()
		return nil, fmt.Errorf("open %s: %w: no video stream", path, playback.ErrDecode)
	}

	info := ports.VideoInfo{
		Path:      path,
		Backend:   BackendName,
		Codec:     vs.CodecName,
		Width:     vs.Width,
		Height:    vs.Height,
		FrameRate: vs.FrameRate.Float64(),
		Duration:  dec.Duration(),
	}

	// The container's sample table is exact. The decoder only estimates
	// duration times frame rate.
	if mp4probe.Supported(path) {
		if mi, err := mp4probe.ProbeFile(path); err == nil && mi.FrameCount > 0 {
			info.FrameCount = mi.FrameCount
		}
	}
	if info.FrameCount == 0 {
		info.FrameCount = int(dec.TotalFrames())
	}
	if info.FrameCount < 1 {
		dec.Close()
		return nil, fmt.Errorf("open %s: %w", path, playback.ErrEmptyVideo)
	}

	return &Source{dec: dec, info: info}, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source reads frames from an ffgo decoder. It seeks only when the
// requested frame is not the one the decoder yields next.
type Source struct {
	mu      sync.Mutex
	dec     *ffgo.Decoder
	scaler  *ffgo.Scaler
	info    ports.VideoInfo
	next    int
	decoded int
}

// Info returns the stream metadata.
func (s *Source) Info() ports.VideoInfo {
	return s.info
}

// Seek sets the frame the next ReadFrame returns.
func (s *Source) Seek(index int) error {
	if index < 0 || index >= s.info.FrameCount {
		return &playback.OutOfRangeError{Frame: index, FrameCount: s.info.FrameCount}
	}
	s.mu.Lock()
	s.next = index
	s.mu.Unlock()
	return nil
}

// ReadFrame decodes the current frame into an RGBA image and advances by one.
// ffgo calls cannot be interrupted. ctx is checked before decoding starts.
func (s *Source) ReadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec == nil {
		return nil, fmt.Errorf("read frame: %w: source closed", playback.ErrIO)
	}

	index := s.next
	if index != s.decoded {
		if err := s.dec.SeekToFrame(int64(index)); err != nil {
			return nil, fmt.Errorf("seek to frame %d: %w: %w", index, playback.ErrDecode, err)
		}
		s.decoded = index
	}

	frame, err := s.dec.DecodeVideo()
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w: %w", index, playback.ErrDecode, err)
	}
	if frame.IsNil() {
		return nil, fmt.Errorf("decode frame %d: %w: end of stream", index, playback.ErrDecode)
	}

	img, err := s.toRGBA(frame)
	if err != nil {
		return nil, fmt.Errorf("convert frame %d: %w: %w", index, playback.ErrDecode, err)
	}

	s.decoded = index + 1
	s.next = index + 1
	return img, nil
}

func (s *Source) toRGBA(frame ffgo.Frame) (*image.RGBA, error) {
	src := ffgo.WrapFrame(frame, ffgo.MediaTypeVideo)
	w, h := src.Width(), src.Height()

	if s.scaler == nil || s.scaler.SrcWidth() != w || s.scaler.SrcHeight() != h || s.scaler.SrcFormat() != src.PixelFormat() {
		if s.scaler != nil {
			s.scaler.Close()
		}
		scaler, err := ffgo.NewScaler(w, h, src.PixelFormat(), w, h, ffgo.PixelFormatRGBA, ffgo.ScaleBilinear)
		if err != nil {
			return nil, err
		}
		s.scaler = scaler
	}

	// The scaled frame is owned by the scaler and reused on the next call.
	scaled, err := s.scaler.Scale(frame)
	if err != nil {
		return nil, err
	}
	dst := ffgo.WrapFrame(scaled, ffgo.MediaTypeVideo)
	data, stride := dst.Data(0), dst.Linesize(0)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := data[y*stride : y*stride+w*4]
		copy(img.Pix[y*img.Stride:], row)
	}
	return img, nil
}

// Close releases the decoder and scaler.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scaler != nil {
		s.scaler.Close()
		s.scaler = nil
	}
	if s.dec == nil {
		return nil
	}
	err := s.dec.Close()
	s.dec = nil
	return err
}

var _ ports.FrameSource = (*Source)(nil)
