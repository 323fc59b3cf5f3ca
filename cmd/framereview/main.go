// Package main provides the CLI entry point for framereview.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/framereview/pkg/adapters/dirsink"
	"github.com/user/framereview/pkg/adapters/ggrenderer"
	"github.com/user/framereview/pkg/adapters/logger"
	"github.com/user/framereview/pkg/adapters/mp4probe"
	"github.com/user/framereview/pkg/adapters/nullsink"
	"github.com/user/framereview/pkg/adapters/osfilesystem"
	"github.com/user/framereview/pkg/adapters/smartsource"
	"github.com/user/framereview/pkg/adapters/statussink"
	"github.com/user/framereview/pkg/config"
	"github.com/user/framereview/pkg/index"
	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
	"github.com/user/framereview/pkg/session"
	"github.com/user/framereview/pkg/snapshot"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %v", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "framereview",
		Usage:   l10n.T("Review videos frame by frame"),
		Version: version,
		Commands: []*cli.Command{
			playCommand(),
			indexCommand(),
			snapshotCommand(),
			probeCommand(),
		},
	}
}

func decodeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "backend", Category: l10n.T("Decoding"), Usage: l10n.T("Decoding backend (auto, ffgo, ffmpeg, imageseq)")},
		&cli.StringFlag{Name: "ffmpeg", Category: l10n.T("Decoding"), Usage: l10n.T("Path to the ffmpeg binary")},
	}
}

func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: l10n.T("Logging"), Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: l10n.T("Logging"), Usage: l10n.T("Suppress all log output")},
	}
}

func playCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "speed", Aliases: []string{"s"}, Category: l10n.T("Playback"), Usage: l10n.T("Initial speed (1, 0.5, 1.25, 2, 5, 10, 20)")},
		&cli.DurationFlag{Name: "base-interval", Category: l10n.T("Playback"), Usage: l10n.T("Tick interval at speed 1")},
		&cli.IntFlag{Name: "max-ticks", Category: l10n.T("Playback"), Usage: l10n.T("Stop after this many ticks (0 = no limit)")},
		&cli.BoolFlag{Name: "no-loop", Category: l10n.T("Playback"), Usage: l10n.T("Stop at end of stream instead of wrapping")},
		&cli.StringFlag{Name: "index", Aliases: []string{"i"}, Category: l10n.T("Index"), Usage: l10n.T("Index file to load at start")},
		&cli.StringFlag{Name: "index-encoding", Category: l10n.T("Index"), Usage: l10n.T("Text encoding of index files")},
		&cli.BoolFlag{Name: "watch-index", Category: l10n.T("Index"), Usage: l10n.T("Reload the index file when it changes")},
		&cli.StringFlag{Name: "sink", Category: l10n.T("Display"), Usage: l10n.T("Frame display (status, dir, null)")},
		&cli.StringFlag{Name: "frames-dir", Category: l10n.T("Display"), Usage: l10n.T("Directory for the dir display")},
	}
	flags = append(flags, decodeFlags()...)
	flags = append(flags, logFlags()...)

	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play a video and read commands from stdin"),
		ArgsUsage: "<video>",
		Flags:     flags,
		Action:    runPlay,
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     l10n.T("Print the entries of an index file"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "encoding", Value: index.DefaultEncoding, Usage: l10n.T("Text encoding of index files")},
		},
		Action: runIndex,
	}
}

func snapshotCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{Name: "quality", Value: snapshot.DefaultQuality, Usage: l10n.T("JPEG quality (1-100)")},
		&cli.BoolFlag{Name: "caption", Usage: l10n.T("Draw the frame number below the image")},
		&cli.StringFlag{Name: "font", Usage: l10n.T("TrueType font for captions")},
	}
	flags = append(flags, decodeFlags()...)
	flags = append(flags, logFlags()...)

	return &cli.Command{
		Name:      "snapshot",
		Usage:     l10n.T("Save one frame of a video as an image"),
		ArgsUsage: "<video> <frame> <output>",
		Flags:     flags,
		Action:    runSnapshot,
	}
}

func probeCommand() *cli.Command {
	flags := append(decodeFlags(), logFlags()...)
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Print video information"),
		ArgsUsage: "<video>",
		Flags:     flags,
		Action:    runProbe,
	}
}

// loadConfig reads --config over the defaults and applies the flags that were set.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("speed") {
		speed, err := playback.ParseSpeed(c.String("speed"))
		if err != nil {
			return cfg, err
		}
		cfg.Speed = float64(speed)
	}
	if c.IsSet("base-interval") {
		cfg.BaseInterval = c.Duration("base-interval")
	}
	if c.IsSet("max-ticks") {
		cfg.MaxTicks = c.Int("max-ticks")
	}
	if c.Bool("no-loop") {
		cfg.Loop = false
	}
	if c.IsSet("index") {
		cfg.Index.Path = c.String("index")
	}
	if c.IsSet("index-encoding") {
		cfg.Index.Encoding = c.String("index-encoding")
	}
	if c.Bool("watch-index") {
		cfg.Index.Watch = true
	}
	if c.IsSet("sink") {
		cfg.Sink = c.String("sink")
	}
	if c.IsSet("frames-dir") {
		cfg.FramesDir = c.String("frames-dir")
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("quality") {
		cfg.Snapshot.Quality = c.Int("quality")
	}
	if c.IsSet("font") {
		cfg.Snapshot.FontPath = c.String("font")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsoleWriter(ports.ParseLogLevel(cfg.LogLevel), c.App.ErrWriter, c.App.ErrWriter)
}

// signalContext cancels the returned context on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%w: %s", playback.ErrInvalidInput, l10n.T(msg))
}

type closer func() error

func newSink(cfg config.Config, fs ports.FileSystem, renderer ports.Renderer, out io.Writer) (ports.FrameSink, closer) {
	switch cfg.Sink {
	case config.SinkDir:
		return dirsink.New(cfg.FramesDir, fs, renderer), func() error { return nil }
	case config.SinkNull:
		return nullsink.New(), func() error { return nil }
	default:
		s := statussink.New(out)
		return s, s.Close
	}
}

func runPlay(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError("A video argument is required")
	}
	path := c.Args().Get(0)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	ctx, cancel := signalContext(log)
	defer cancel()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	sink, closeSink := newSink(cfg, fs, renderer, c.App.Writer)
	defer closeSink()

	opener := smartsource.New(cfg.ToSourceOptions(), fs, renderer, log)
	sess, err := session.Open(ctx, opener, path, session.Deps{
		Sink:     sink,
		Renderer: renderer,
		FS:       fs,
		Logger:   log,
	}, cfg.ToSessionOptions())
	if err != nil {
		return err
	}
	defer sess.Close()

	cmds := make(chan session.Command, 16)

	if cfg.Index.Path != "" {
		// A broken index is reported and playback starts without it.
		sess.LoadIndex(cfg.Index.Path)
		if cfg.Index.Watch {
			go watchIndex(ctx, cfg.Index.Path, cmds, log)
		}
	}
	go readCommands(ctx, c.App.Reader, cmds, log, cfg.Snapshot.Caption)

	return sess.Run(ctx, sess.NewTicker(), cmds)
}

// readCommands turns stdin lines into session commands until EOF or cancellation.
func readCommands(ctx context.Context, r io.Reader, cmds chan<- session.Command, log ports.Logger, caption bool) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := session.ParseCommand(line)
		if err != nil {
			log.Warn("Rejected command %q: %v", line, err)
			continue
		}
		if cmd.Kind == session.CmdSnap && caption {
			cmd.Caption = true
		}
		select {
		case cmds <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

func watchIndex(ctx context.Context, path string, cmds chan<- session.Command, log ports.Logger) {
	err := index.Watch(ctx, path, func() {
		select {
		case cmds <- session.Command{Kind: session.CmdReload}:
		default:
		}
	})
	if err != nil && ctx.Err() == nil {
		log.Warn("Failed to watch index file: %v", err)
	}
}

func runIndex(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError("An index file argument is required")
	}
	table, err := index.New(index.Options{Encoding: c.String("encoding")})
	if err != nil {
		return err
	}
	report, err := table.LoadFile(osfilesystem.New(), c.Args().Get(0))
	if err != nil {
		return err
	}

	out := c.App.Writer
	for i, e := range table.Entries() {
		fmt.Fprintf(out, "%d\t%d\t%s\n", i, e.Frame, e.Label)
	}
	for _, s := range report.Skipped {
		fmt.Fprintln(c.App.ErrWriter, l10n.F("Skipped index line %d: %s", s.Line, s.Err))
	}
	fmt.Fprintln(out, l10n.F("%d entries, %d skipped", report.Loaded, len(report.Skipped)))
	return nil
}

func runSnapshot(c *cli.Context) error {
	if c.NArg() != 3 {
		return usageError("Video, frame and output arguments are required")
	}
	frame, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("%w: frame must be an integer: %q", playback.ErrInvalidInput, c.Args().Get(1))
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	ctx, cancel := signalContext(log)
	defer cancel()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	opener := smartsource.New(cfg.ToSourceOptions(), fs, renderer, log)
	sess, err := session.Open(ctx, opener, c.Args().Get(0), session.Deps{
		Sink:     nullsink.New(),
		Renderer: renderer,
		FS:       fs,
		Logger:   log,
	}, cfg.ToSessionOptions())
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Apply(ctx, session.Command{Kind: session.CmdJump, Frame: frame}); err != nil {
		return err
	}
	if _, err := sess.Step(ctx); err != nil {
		return err
	}
	_, err = sess.Snapshot(c.Args().Get(2), c.Bool("caption"))
	return err
}

func runProbe(c *cli.Context) error {
	if c.NArg() != 1 {
		return usageError("A video argument is required")
	}
	path := c.Args().Get(0)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	src, err := smartsource.New(cfg.ToSourceOptions(), fs, renderer, log).Open(c.Context, path)
	if err != nil {
		return err
	}
	defer src.Close()

	out := c.App.Writer
	info := src.Info()
	fmt.Fprintf(out, "%s:\t%s\n", l10n.T("Path"), info.Path)
	fmt.Fprintf(out, "%s:\t%s\n", l10n.T("Backend"), info.Backend)
	fmt.Fprintf(out, "%s:\t%s\n", l10n.T("Codec"), info.Codec)
	fmt.Fprintf(out, "%s:\t%d\n", l10n.T("Frame Count"), info.FrameCount)
	fmt.Fprintf(out, "%s:\t%dx%d\n", l10n.T("Size"), info.Width, info.Height)
	fmt.Fprintf(out, "%s:\t%.3f\n", l10n.T("Frame Rate"), info.FrameRate)
	fmt.Fprintf(out, "%s:\t%s\n", l10n.T("Duration"), info.Duration)

	if mp4probe.Supported(path) {
		if mp4, err := mp4probe.ProbeFile(path); err == nil {
			fmt.Fprintf(out, "%s:\t%d\n", l10n.T("Track"), mp4.TrackID)
			fmt.Fprintf(out, "%s:\t%d\n", l10n.T("Timescale"), mp4.Timescale)
			fmt.Fprintf(out, "%s:\t%v\n", l10n.T("Fragmented"), mp4.Fragmented)
		}
	}
	return nil
}
