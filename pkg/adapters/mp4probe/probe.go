// Package mp4probe reads video track metadata from MP4 and MOV containers.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecVP9     Codec = "vp9"
	CodecUnknown Codec = "unknown"
)

// ErrNoVideoTrack is returned when the container holds no video track.
var ErrNoVideoTrack = errors.New("mp4probe: no video track found")

// Info describes the first video track of a container.
type Info struct {
	Codec      Codec
	TrackID    uint32
	Width      int
	Height     int
	FrameCount int
	Timescale  uint32
	Duration   time.Duration
	FrameRate  float64
	Fragmented bool
}

// Supported reports whether path has an extension this package can probe.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".mov":
		return true
	}
	return false
}

// ProbeFile reads track metadata from an MP4 file.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Probe reads track metadata from an MP4 stream.
func Probe(r io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(r, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}
	return probeFile(mp4File)
}

func probeFile(f *mp4.File) (Info, error) {
	moov := f.Moov
	if moov == nil && f.Init != nil {
		moov = f.Init.Moov
	}
	if moov == nil {
		return Info{}, ErrNoVideoTrack
	}

	for _, trak := range moov.Traks {
		info, ok := videoTrack(trak)
		if !ok {
			continue
		}

		if f.IsFragmented() {
			info.Fragmented = true
			var trex *mp4.TrexBox
			if moov.Mvex != nil {
				trex, _ = moov.Mvex.GetTrex(info.TrackID)
			}
			count, dur := fragmentSamples(f, info.TrackID, trex)
			info.FrameCount += count
			if dur > 0 && info.Timescale > 0 {
				info.Duration = ticks(dur, info.Timescale)
			}
		}

		if info.Duration > 0 && info.FrameCount > 0 {
			info.FrameRate = float64(info.FrameCount) / info.Duration.Seconds()
		}
		return info, nil
	}

	return Info{}, ErrNoVideoTrack
}

func videoTrack(trak *mp4.TrakBox) (Info, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return Info{}, false
	}

	info := Info{Codec: CodecUnknown}
	if trak.Tkhd != nil {
		info.TrackID = trak.Tkhd.TrackID
	}
	if mdhd := trak.Mdia.Mdhd; mdhd != nil {
		info.Timescale = mdhd.Timescale
		if mdhd.Timescale > 0 {
			info.Duration = ticks(mdhd.Duration, mdhd.Timescale)
		}
	}

	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return info, true
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz != nil {
		info.FrameCount = int(stbl.Stsz.SampleNumber)
	}
	if stbl.Stsd == nil {
		return info, true
	}

	for _, child := range stbl.Stsd.Children {
		codec := codecOf(child.Type())
		if codec == CodecUnknown {
			continue
		}
		info.Codec = codec
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
		break
	}
	return info, true
}

func codecOf(boxType string) Codec {
	switch boxType {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	default:
		return CodecUnknown
	}
}

// fragmentSamples counts the samples of trackID across all fragments and
// returns the summed sample duration in track ticks.
func fragmentSamples(f *mp4.File, trackID uint32, trex *mp4.TrexBox) (int, uint64) {
	var count int
	var dur uint64
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd == nil || traf.Tfhd.TrackID != trackID {
					continue
				}
				for _, trun := range traf.Truns {
					count += int(trun.SampleCount())
					dur += trun.AddSampleDefaultValues(traf.Tfhd, trex)
				}
			}
		}
	}
	return count, dur
}

func ticks(n uint64, timescale uint32) time.Duration {
	return time.Duration(float64(n) / float64(timescale) * float64(time.Second))
}
