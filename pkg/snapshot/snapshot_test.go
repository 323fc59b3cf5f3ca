package snapshot

import (
	"errors"
	"image"
	"testing"

	"github.com/user/framereview/pkg/adapters/ggrenderer"
	"github.com/user/framereview/pkg/mocks"
	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

func testFrame() ports.DisplayFrame {
	return ports.DisplayFrame{
		Index:      7,
		FrameCount: 100,
		Image:      image.NewRGBA(image.Rect(0, 0, 64, 48)),
	}
}

func TestWriter_FormatFromExtension(t *testing.T) {
	tests := []struct {
		path   string
		format ports.ImageFormat
	}{
		{"/out/a.jpg", ports.FormatJPEG},
		{"/out/a.JPEG", ports.FormatJPEG},
		{"/out/a.png", ports.FormatPNG},
		{"/out/a.bmp", ports.FormatBMP},
	}

	for _, tt := range tests {
		renderer := &mocks.Renderer{}
		fsys := mocks.NewFileSystem()
		w := New(renderer, fsys, Options{Quality: 75})

		saved, err := w.Save(tt.path, testFrame(), "")
		if err != nil || !saved {
			t.Fatalf("Save(%s): expected saved, got %v, %v", tt.path, saved, err)
		}
		if len(renderer.Encoded) != 1 || renderer.Encoded[0].Format != tt.format {
			t.Errorf("Save(%s): expected format %s, got %+v", tt.path, tt.format, renderer.Encoded)
		}
		if renderer.Encoded[0].Quality != 75 {
			t.Errorf("Save(%s): expected quality 75, got %d", tt.path, renderer.Encoded[0].Quality)
		}
		if data, ok := fsys.GetFile(tt.path); !ok || string(data) != tt.format.String() {
			t.Errorf("Save(%s): file not written", tt.path)
		}
	}
}

func TestWriter_EmptyPathIsNoop(t *testing.T) {
	renderer := &mocks.Renderer{}
	fsys := mocks.NewFileSystem()
	w := New(renderer, fsys, Options{})

	saved, err := w.Save("", testFrame(), "caption")
	if saved || err != nil {
		t.Errorf("expected no-op, got %v, %v", saved, err)
	}
	if len(renderer.Encoded) != 0 || len(fsys.GetAllFiles()) != 0 {
		t.Error("empty path must not encode or write")
	}
}

func TestWriter_Errors(t *testing.T) {
	w := New(&mocks.Renderer{}, mocks.NewFileSystem(), Options{})

	if _, err := w.Save("/out/a.gif", testFrame(), ""); !errors.Is(err, ErrUnsupportedFormat) || !errors.Is(err, playback.ErrInvalidInput) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := w.Save("/out/noext", testFrame(), ""); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := w.Save("/out/a.png", ports.DisplayFrame{}, ""); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
}

func TestWriter_WriteFailure(t *testing.T) {
	fsys := mocks.NewFileSystem()
	fsys.WriteFileFunc = func(path string, data []byte) error {
		return errors.New("disk full")
	}
	w := New(&mocks.Renderer{}, fsys, Options{})

	saved, err := w.Save("/out/a.png", testFrame(), "")
	if saved || !errors.Is(err, playback.ErrIO) {
		t.Errorf("expected ErrIO, got %v, %v", saved, err)
	}
}

func TestWriter_CaptionAddsBand(t *testing.T) {
	renderer := &mocks.Renderer{}
	w := New(renderer, mocks.NewFileSystem(), Options{})

	if _, err := w.Save("/out/a.png", testFrame(), "frame 7/99  exit A"); err != nil {
		t.Fatal(err)
	}
	if len(renderer.Canvases) != 1 {
		t.Fatalf("expected one canvas, got %d", len(renderer.Canvases))
	}
	canvas := renderer.Canvases[0]
	if len(canvas.Texts) != 1 || canvas.Texts[0] != "frame 7/99  exit A" {
		t.Errorf("unexpected caption texts: %v", canvas.Texts)
	}
	if got := renderer.Encoded[0].Bounds; got.Dx() != 64 || got.Dy() != 48+captionHeight {
		t.Errorf("expected 64x%d, got %v", 48+captionHeight, got)
	}
}

func TestWriter_RealRenderer(t *testing.T) {
	renderer := ggrenderer.New()
	fsys := mocks.NewFileSystem()
	w := New(renderer, fsys, Options{})

	if _, err := w.Save("/out/a.bmp", testFrame(), Caption(testFrame(), "exit")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, _ := fsys.GetFile("/out/a.bmp")
	img, err := renderer.DecodeImage(data, ports.FormatBMP)
	if err != nil {
		t.Fatalf("decode written BMP: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48+captionHeight {
		t.Errorf("unexpected size %v", b)
	}
}

func TestCaption(t *testing.T) {
	if got := Caption(testFrame(), ""); got != "frame 7/99" {
		t.Errorf("unexpected caption %q", got)
	}
	if got := Caption(testFrame(), "exit A"); got != "frame 7/99  exit A" {
		t.Errorf("unexpected caption %q", got)
	}
}
