// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/framereview/pkg/adapters/smartsource"
	"github.com/user/framereview/pkg/index"
	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
	"github.com/user/framereview/pkg/session"
	"github.com/user/framereview/pkg/snapshot"
)

// Config represents the full configuration for framereview.
// The file is read-only input. Command-line flags override it.
type Config struct {
	// Playback
	Speed        float64       `yaml:"speed"`
	BaseInterval time.Duration `yaml:"base_interval"`
	Loop         bool          `yaml:"loop"`
	MaxTicks     int           `yaml:"max_ticks"`

	// Decoding
	Backend    string  `yaml:"backend"`
	FFmpegPath string  `yaml:"ffmpeg_path"`
	FrameRate  float64 `yaml:"frame_rate"`

	Index    IndexConfig    `yaml:"index"`
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Display
	Sink      string `yaml:"sink"`
	FramesDir string `yaml:"frames_dir"`

	LogLevel string `yaml:"log_level"`
}

// IndexConfig represents index file settings.
type IndexConfig struct {
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding"`
	Watch    bool   `yaml:"watch"`
}

// SnapshotConfig represents snapshot output settings.
type SnapshotConfig struct {
	Quality  int    `yaml:"quality"`
	FontPath string `yaml:"font_path"`
	Caption  bool   `yaml:"caption"`
}

// Sink names accepted by the sink setting.
const (
	SinkStatus = "status"
	SinkDir    = "dir"
	SinkNull   = "null"
)

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Playback
		Speed:        1,
		BaseInterval: playback.DefaultBaseInterval,
		Loop:         true,

		// Decoding
		Backend: string(smartsource.BackendAuto),

		Index: IndexConfig{
			Encoding: index.DefaultEncoding,
		},
		Snapshot: SnapshotConfig{
			Quality: snapshot.DefaultQuality,
		},

		// Display
		Sink:      SinkStatus,
		FramesDir: "./frames",

		LogLevel: ports.LevelInfo.String(),
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w: %w", path, playback.ErrIO, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w: %w", path, playback.ErrInvalidInput, err)
	}

	return cfg, nil
}

// Validate checks the values that cannot be checked by the YAML decoder.
func (c Config) Validate() error {
	if !playback.Speed(c.Speed).Valid() {
		return &playback.InvalidSpeedError{Value: c.Speed}
	}
	if c.BaseInterval <= 0 {
		return fmt.Errorf("%w: base_interval must be positive, got %s", playback.ErrInvalidInput, c.BaseInterval)
	}
	if c.MaxTicks < 0 {
		return fmt.Errorf("%w: max_ticks must not be negative", playback.ErrInvalidInput)
	}
	if _, err := smartsource.ParseBackend(c.Backend); err != nil {
		return err
	}
	switch c.Sink {
	case SinkStatus, SinkDir, SinkNull:
	default:
		return fmt.Errorf("%w: unknown sink %q", playback.ErrInvalidInput, c.Sink)
	}
	if c.Snapshot.Quality < 1 || c.Snapshot.Quality > 100 {
		return fmt.Errorf("%w: snapshot quality must be 1-100, got %d", playback.ErrInvalidInput, c.Snapshot.Quality)
	}
	return nil
}

// ToSessionOptions converts Config to session.Options.
func (c Config) ToSessionOptions() session.Options {
	return session.Options{
		Speed:        playback.Speed(c.Speed),
		BaseInterval: c.BaseInterval,
		Loop:         c.Loop,
		MaxTicks:     c.MaxTicks,

		IndexEncoding: c.Index.Encoding,

		SnapshotQuality: c.Snapshot.Quality,
		FontPath:        c.Snapshot.FontPath,
	}
}

// ToSourceOptions converts Config to smartsource.Options.
func (c Config) ToSourceOptions() smartsource.Options {
	return smartsource.Options{
		Backend:    smartsource.Backend(c.Backend),
		FFmpegPath: c.FFmpegPath,
		FrameRate:  c.FrameRate,
	}
}
