//go:build !ios && !android && (amd64 || arm64)

package ffgosource

import (
	"context"
	"errors"
	"image/color"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/user/framereview/pkg/playback"
)

// generateVideo writes a short test pattern video with the ffmpeg CLI.
func generateVideo(t *testing.T, frames int) string {
	t.Helper()
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg CLI not available to generate test video")
	}
	path := filepath.Join(t.TempDir(), "pattern.mkv")
	cmd := exec.Command(ffmpeg, "-v", "error", "-f", "lavfi",
		"-i", "testsrc=size=64x48:rate=10", "-frames:v", strconv.Itoa(frames), "-c:v", "ffv1", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("cannot generate test video: %v: %s", err, out)
	}
	return path
}

func TestSource_DecodeAndSeek(t *testing.T) {
	if err := Available(); err != nil {
		t.Skipf("ffgo unavailable: %v", err)
	}
	path := generateVideo(t, 20)

	src, err := (&Opener{}).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	info := src.Info()
	if info.Width != 64 || info.Height != 48 || info.Backend != BackendName {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.FrameCount < 1 {
		t.Fatalf("expected frames, got %d", info.FrameCount)
	}

	first, err := src.ReadFrame(context.Background())
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if b := first.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("expected 64x48, got %v", b)
	}
	if _, _, _, a := first.At(10, 10).RGBA(); a != 0xffff {
		t.Errorf("expected opaque pixels, got alpha %d", a)
	}

	if err := src.Seek(0); err != nil {
		t.Fatal(err)
	}
	again, err := src.ReadFrame(context.Background())
	if err != nil {
		t.Fatalf("ReadFrame after seek failed: %v", err)
	}
	if color.RGBAModel.Convert(first.At(32, 24)) != color.RGBAModel.Convert(again.At(32, 24)) {
		t.Error("expected seeking back to frame 0 to decode the same image")
	}

	if err := src.Seek(info.FrameCount); !errors.Is(err, playback.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestOpener_MissingFile(t *testing.T) {
	if err := Available(); err != nil {
		t.Skipf("ffgo unavailable: %v", err)
	}
	_, err := (&Opener{}).Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, playback.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}
