// Package ffgosource decodes frames in-process through FFmpeg's shared
// libraries, loaded at runtime with ffgo.
package ffgosource

import "errors"

// BackendName identifies this adapter in ports.VideoInfo.
const BackendName = "ffgo"

// ErrUnavailable is returned when the FFmpeg libraries cannot be loaded on this system.
var ErrUnavailable = errors.New("ffgosource: ffmpeg libraries unavailable")
