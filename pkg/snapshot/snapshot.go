// Package snapshot writes the displayed frame to an image file.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

var (
	// ErrUnsupportedFormat is returned for output paths whose extension is not an image format.
	ErrUnsupportedFormat = fmt.Errorf("snapshot: unsupported format: %w", playback.ErrInvalidInput)
	// ErrNoFrame is returned when nothing has been displayed yet.
	ErrNoFrame = fmt.Errorf("snapshot: no frame displayed: %w", playback.ErrInvalidInput)
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 90

const captionHeight = 24

// Options configures a Writer.
type Options struct {
	// Quality is the JPEG quality (1-100).
	Quality int
	// FontPath is an optional TrueType font for captions.
	FontPath string
}

// Writer saves frames through a renderer and a file system.
type Writer struct {
	renderer ports.Renderer
	fs       ports.FileSystem
	opts     Options
}

// New creates a Writer.
func New(renderer ports.Renderer, fs ports.FileSystem, opts Options) *Writer {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	return &Writer{renderer: renderer, fs: fs, opts: opts}
}

// FormatForPath returns the image format implied by the file extension.
func FormatForPath(path string) (ports.ImageFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return ports.FormatJPEG, nil
	case ".png":
		return ports.FormatPNG, nil
	case ".bmp":
		return ports.FormatBMP, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Save writes frame to path. An empty path means the save dialog was
// cancelled: nothing is written and Save reports false. A non-empty caption
// is drawn in a band below the frame.
func (w *Writer) Save(path string, frame ports.DisplayFrame, caption string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if frame.Image == nil {
		return false, ErrNoFrame
	}
	format, err := FormatForPath(path)
	if err != nil {
		return false, err
	}

	img := frame.Image
	if caption != "" {
		img = w.Annotate(img, caption)
	}

	data, err := w.renderer.EncodeImage(img, format, w.opts.Quality)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := w.fs.WriteFile(path, data); err != nil {
		return false, fmt.Errorf("write snapshot %s: %w: %w", path, playback.ErrIO, err)
	}
	return true, nil
}

// Annotate returns img with caption drawn in a band underneath.
func (w *Writer) Annotate(img image.Image, caption string) image.Image {
	b := img.Bounds()
	canvas := w.renderer.CreateCanvas(b.Dx(), b.Dy()+captionHeight, color.Black)
	canvas.DrawImage(img, -b.Min.X, -b.Min.Y)
	canvas.DrawRect(0, b.Dy(), b.Dx(), captionHeight, color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff})
	canvas.DrawText(caption, 6, b.Dy()+captionHeight/2, ports.TextStyle{
		FontSize: 14,
		FontPath: w.opts.FontPath,
		Color:    color.White,
		Align:    ports.AlignLeft,
	})
	return canvas.ToImage()
}

// Caption formats the default caption for a frame and an optional label.
func Caption(frame ports.DisplayFrame, label string) string {
	s := fmt.Sprintf("frame %d/%d", frame.Index, frame.FrameCount-1)
	if label != "" {
		s += "  " + label
	}
	return s
}
