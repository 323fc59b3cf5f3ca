package ffmpegsource

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/user/framereview/pkg/playback"
)

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecName     string `json:"codec_name"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	RFrameRate    string `json:"r_frame_rate"`
	Duration      string `json:"duration"`
	NbFrames      string `json:"nb_frames"`
	NbReadPackets string `json:"nb_read_packets"`
}

// ffprobeFor returns the ffprobe binary that sits next to ffmpegPath.
func ffprobeFor(ffmpegPath string) string {
	name := "ffprobe"
	if runtime.GOOS == "windows" {
		name = "ffprobe.exe"
	}
	if dir := filepath.Dir(ffmpegPath); dir != "." {
		return filepath.Join(dir, name)
	}
	return name
}

func ffprobeStream(ctx context.Context, run runFunc, ffprobePath, path string) (probeStream, error) {
	out, err := run(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=codec_name,width,height,r_frame_rate,duration,nb_frames,nb_read_packets",
		"-of", "json",
		path,
	)
	if err != nil {
		return probeStream{}, fmt.Errorf("probe %s: %w: %w", path, playback.ErrDecode, err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return probeStream{}, fmt.Errorf("parse ffprobe output: %w: %w", playback.ErrDecode, err)
	}
	if len(parsed.Streams) == 0 {
		return probeStream{}, fmt.Errorf("probe %s: %w: no video stream", path, playback.ErrDecode)
	}
	return parsed.Streams[0], nil
}

// frameCount prefers the counted packets over the container's claim.
func (s probeStream) frameCount() int {
	for _, v := range []string{s.NbReadPackets, s.NbFrames} {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func (s probeStream) frameRate() float64 {
	num, den, ok := strings.Cut(s.RFrameRate, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s.RFrameRate, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func (s probeStream) duration() time.Duration {
	secs, err := strconv.ParseFloat(s.Duration, 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
