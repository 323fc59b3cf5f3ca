// Package imageseq plays a directory of numbered still images as a video.
// Frames are ordered by the numbers in their file names, so frame_2.png
// comes before frame_10.png.
package imageseq

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

// BackendName identifies this adapter in ports.VideoInfo.
const BackendName = "imageseq"

// DefaultFrameRate is the nominal rate reported for image sequences.
const DefaultFrameRate = 25.0

var formats = map[string]ports.ImageFormat{
	".png":  ports.FormatPNG,
	".jpg":  ports.FormatJPEG,
	".jpeg": ports.FormatJPEG,
	".bmp":  ports.FormatBMP,
}

// Opener opens image directories.
type Opener struct {
	FS        ports.FileSystem
	Renderer  ports.Renderer
	FrameRate float64
}

// Open lists the images in dir and decodes the first one for its size.
func (o *Opener) Open(ctx context.Context, dir string) (ports.FrameSource, error) {
	isDir, err := o.FS.IsDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", dir, playback.ErrIO, err)
	}
	if !isDir {
		return nil, fmt.Errorf("open %s: %w: not a directory", dir, playback.ErrIO)
	}

	names, err := o.FS.ListDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w: %w", dir, playback.ErrIO, err)
	}
	files := frames(names)
	if len(files) == 0 {
		return nil, fmt.Errorf("open %s: %w", dir, playback.ErrEmptyVideo)
	}

	rate := o.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}

	s := &Source{
		fs:       o.FS,
		renderer: o.Renderer,
		dir:      dir,
		files:    files,
		info: ports.VideoInfo{
			Path:       dir,
			Backend:    BackendName,
			Codec:      strings.TrimPrefix(filepath.Ext(files[0]), "."),
			FrameCount: len(files),
			FrameRate:  rate,
			Duration:   time.Duration(float64(len(files)) / rate * float64(time.Second)),
		},
	}

	first, err := s.decode(0)
	if err != nil {
		return nil, err
	}
	s.info.Width = first.Bounds().Dx()
	s.info.Height = first.Bounds().Dy()
	return s, nil
}

var _ ports.SourceOpener = (*Opener)(nil)

// Source reads one image file per frame.
type Source struct {
	fs       ports.FileSystem
	renderer ports.Renderer
	dir      string
	files    []string
	info     ports.VideoInfo

	mu   sync.Mutex
	next int
}

// Info returns the sequence metadata.
func (s *Source) Info() ports.VideoInfo {
	return s.info
}

// Files returns the frame file names in playback order.
func (s *Source) Files() []string {
	return append([]string(nil), s.files...)
}

// Seek sets the frame the next ReadFrame returns.
func (s *Source) Seek(index int) error {
	if index < 0 || index >= len(s.files) {
		return &playback.OutOfRangeError{Frame: index, FrameCount: len(s.files)}
	}
	s.mu.Lock()
	s.next = index
	s.mu.Unlock()
	return nil
}

// ReadFrame decodes the current image and advances by one.
func (s *Source) ReadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	index := s.next
	s.mu.Unlock()

	if index >= len(s.files) {
		return nil, fmt.Errorf("read frame: %w", &playback.OutOfRangeError{Frame: index, FrameCount: len(s.files)})
	}
	img, err := s.decode(index)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.next = index + 1
	s.mu.Unlock()
	return img, nil
}

func (s *Source) decode(index int) (image.Image, error) {
	name := s.files[index]
	data, err := s.fs.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read frame %d (%s): %w: %w", index, name, playback.ErrIO, err)
	}
	img, err := s.renderer.DecodeImage(data, formats[strings.ToLower(filepath.Ext(name))])
	if err != nil {
		return nil, fmt.Errorf("decode frame %d (%s): %w: %w", index, name, playback.ErrDecode, err)
	}
	return img, nil
}

// Close does nothing. Files are read per frame.
func (s *Source) Close() error {
	return nil
}

var _ ports.FrameSource = (*Source)(nil)

// frames keeps the image files of names in natural order.
func frames(names []string) []string {
	var out []string
	for _, n := range names {
		if _, ok := formats[strings.ToLower(filepath.Ext(n))]; ok {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return naturalLess(out[i], out[j])
	})
	return out
}

// naturalLess compares strings treating runs of digits as numbers.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		ad, bd := isDigit(a[0]), isDigit(b[0])
		switch {
		case ad && bd:
			na, ra := digitRun(a)
			nb, rb := digitRun(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			a, b = ra, rb
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func digitRun(s string) (run, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
