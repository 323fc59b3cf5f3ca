package session

import (
	"context"
	"errors"
	"image"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/user/framereview/pkg/mocks"
	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

type fixture struct {
	session *Session
	source  *mocks.FrameSource
	sink    *mocks.FrameSink
	fs      *mocks.FileSystem
	render  *mocks.Renderer
	logger  *mocks.Logger
	clock   *clock.Mock
}

func newFixture(t *testing.T, frameCount int, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		source: mocks.NewFrameSource(frameCount),
		sink:   &mocks.FrameSink{},
		fs:     mocks.NewFileSystem(),
		render: &mocks.Renderer{},
		logger: mocks.NewLogger(),
		clock:  clock.NewMock(),
	}
	s, err := Open(context.Background(), &mocks.SourceOpener{Source: f.source}, "clip.mp4", f.deps(), opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	f.session = s
	return f
}

func (f *fixture) deps() Deps {
	return Deps{Sink: f.sink, Renderer: f.render, FS: f.fs, Logger: f.logger, Clock: f.clock}
}

func (f *fixture) step(t *testing.T) playback.Step {
	t.Helper()
	step, err := f.session.Step(context.Background())
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	return step
}

func (f *fixture) apply(t *testing.T, line string) {
	t.Helper()
	cmd, err := ParseCommand(line)
	if err != nil {
		t.Fatalf("ParseCommand(%q) failed: %v", line, err)
	}
	if err := f.session.Apply(context.Background(), cmd); err != nil {
		t.Fatalf("Apply(%q) failed: %v", line, err)
	}
}

func TestOpen_ShowsFirstFrame(t *testing.T) {
	f := newFixture(t, 10, DefaultOptions())

	last, ok := f.sink.Last()
	if !ok {
		t.Fatal("expected frame 0 to be shown on open")
	}
	if last.Index != 0 || last.Cause != "open" || last.FrameCount != 10 {
		t.Errorf("unexpected first frame: %+v", last)
	}
	if mocks.FrameIndexOf(last.Image) != 0 {
		t.Errorf("expected image of frame 0")
	}
	if f.session.Slider().Value() != 0 {
		t.Errorf("expected slider published at 0, got %d", f.session.Slider().Value())
	}
	if _, err := uuid.Parse(f.session.ID()); err != nil {
		t.Errorf("expected uuid session ID, got %q", f.session.ID())
	}
	if !f.logger.Contains(ports.LevelInfo, "Opened clip.mp4: 10 frames, 4x4, mock backend") {
		t.Errorf("expected open log, got %+v", f.logger.Entries())
	}
}

func TestOpen_Errors(t *testing.T) {
	logger := mocks.NewLogger()
	deps := Deps{Sink: &mocks.FrameSink{}, Renderer: &mocks.Renderer{}, FS: mocks.NewFileSystem(), Logger: logger}

	opener := &mocks.SourceOpener{OpenFunc: func(ctx context.Context, path string) (ports.FrameSource, error) {
		return nil, playback.ErrIO
	}}
	if _, err := Open(context.Background(), opener, "missing.mp4", deps, DefaultOptions()); !errors.Is(err, playback.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}

	empty := mocks.NewFrameSource(0)
	if _, err := Open(context.Background(), &mocks.SourceOpener{Source: empty}, "empty.mp4", deps, DefaultOptions()); !errors.Is(err, playback.ErrEmptyVideo) {
		t.Errorf("expected ErrEmptyVideo, got %v", err)
	}
	if !empty.Closed() {
		t.Error("expected empty source to be closed")
	}

	opts := DefaultOptions()
	opts.Speed = 3
	src := mocks.NewFrameSource(5)
	if _, err := Open(context.Background(), &mocks.SourceOpener{Source: src}, "a.mp4", deps, opts); !errors.Is(err, playback.ErrInvalidSpeed) {
		t.Errorf("expected ErrInvalidSpeed, got %v", err)
	}

	broken := mocks.NewFrameSource(5)
	broken.ReadFrameFunc = func(ctx context.Context, index int) (image.Image, error) {
		return nil, errors.New("corrupt")
	}
	_, err := Open(context.Background(), &mocks.SourceOpener{Source: broken}, "bad.mp4", deps, DefaultOptions())
	if !errors.Is(err, playback.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if !broken.Closed() {
		t.Error("expected source to be closed after failed first decode")
	}
}

func TestSession_EndToEnd100Frames(t *testing.T) {
	f := newFixture(t, 100, DefaultOptions())

	var step playback.Step
	for i := 1; i <= 99; i++ {
		step = f.step(t)
		if step.Position != i {
			t.Fatalf("tick %d: expected position %d, got %d", i, i, step.Position)
		}
	}
	if !step.EndOfStream {
		t.Error("expected end of stream on the 99th tick")
	}
	if last, _ := f.sink.Last(); !last.EndOfStream || last.Index != 99 {
		t.Errorf("expected end-of-stream frame 99 on the sink, got %+v", last)
	}

	step = f.step(t)
	if step.Position != 1 || step.Cause != playback.CauseWrap {
		t.Errorf("expected wrap to 1, got %+v", step)
	}

	// Sequential playback reads without seeking. Only the wrap seeks.
	if len(f.source.Seeks) != 1 || f.source.Seeks[0] != 1 {
		t.Errorf("expected a single seek to 1, got %v", f.source.Seeks)
	}
	if f.session.Ticks() != 100 {
		t.Errorf("expected 100 ticks, got %d", f.session.Ticks())
	}
}

func TestSession_JumpOverridesPause(t *testing.T) {
	f := newFixture(t, 50, DefaultOptions())
	f.step(t)
	f.apply(t, "pause")
	f.apply(t, "jump 30")

	step := f.step(t)
	if step.Position != 30 || step.Cause != playback.CauseJump {
		t.Errorf("expected jump to 30, got %+v", step)
	}
	if !f.session.Paused() {
		t.Error("jump must not resume playback")
	}
	if last, _ := f.sink.Last(); mocks.FrameIndexOf(last.Image) != 30 || !last.Paused {
		t.Errorf("expected paused frame 30 on the sink, got %+v", last)
	}

	step = f.step(t)
	if step.Position != 30 || step.Cause != playback.CausePaused {
		t.Errorf("expected to hold at 30, got %+v", step)
	}
}

func TestSession_PauseIgnoresSliderDrag(t *testing.T) {
	f := newFixture(t, 100, DefaultOptions())
	for i := 0; i < 5; i++ {
		f.step(t)
	}
	f.apply(t, "pause")

	for _, drag := range []string{"seek 40", "seek 80", "seek 0"} {
		f.apply(t, drag)
		if step := f.step(t); step.Position != 5 {
			t.Fatalf("%s while paused: expected 5, got %d", drag, step.Position)
		}
	}

	f.apply(t, "resume")
	if step := f.step(t); step.Position != 6 {
		t.Errorf("expected advance to 6 after resume, got %d", step.Position)
	}
}

func TestSession_SliderSeek(t *testing.T) {
	f := newFixture(t, 100, DefaultOptions())
	f.step(t)

	f.apply(t, "seek 60")
	step := f.step(t)
	if step.Position != 60 || step.Cause != playback.CauseSeek {
		t.Fatalf("expected seek to 60, got %+v", step)
	}
	if f.session.Slider().Value() != 60 {
		t.Errorf("expected slider published at 60, got %d", f.session.Slider().Value())
	}
	if step := f.step(t); step.Position != 61 {
		t.Errorf("expected advance to 61, got %d", step.Position)
	}
}

func TestSession_DecodeFailurePauses(t *testing.T) {
	f := newFixture(t, 10, DefaultOptions())
	failures := map[int]bool{3: true}
	f.source.ReadFrameFunc = func(ctx context.Context, index int) (image.Image, error) {
		if failures[index] {
			delete(failures, index)
			return nil, errors.New("corrupt packet")
		}
		return mocks.FrameImage(index), nil
	}

	f.step(t)
	f.step(t)
	step, err := f.session.Step(context.Background())
	var fe *FrameError
	if !errors.As(err, &fe) || fe.Frame != 3 {
		t.Fatalf("expected FrameError for frame 3, got %v", err)
	}
	if !errors.Is(err, playback.ErrDecode) {
		t.Errorf("expected FrameError to match ErrDecode")
	}
	if step.Position != 3 || !f.session.Paused() {
		t.Errorf("expected paused at 3, got %+v paused=%v", step, f.session.Paused())
	}
	if !f.logger.Contains(ports.LevelWarn, "Failed to decode frame 3") {
		t.Errorf("expected decode warning, got %+v", f.logger.Entries())
	}

	// The retry decodes frame 3 again and keeps the position.
	step = f.step(t)
	if step.Position != 3 || step.Cause != playback.CausePaused {
		t.Errorf("expected to hold at 3, got %+v", step)
	}
	if last, _ := f.sink.Last(); mocks.FrameIndexOf(last.Image) != 3 {
		t.Errorf("expected frame 3 shown after retry")
	}
}

func TestSession_IndexSelectJumps(t *testing.T) {
	f := newFixture(t, 50, DefaultOptions())
	f.fs.SetFile("/idx/exits.txt", []byte("5,start\n12,exitA\nbogus\n"))

	f.apply(t, "index /idx/exits.txt")
	if f.session.Index().Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", f.session.Index().Len())
	}
	if !f.logger.Contains(ports.LevelWarn, "Skipped index line 3") {
		t.Errorf("expected skipped line warning, got %+v", f.logger.Entries())
	}

	f.apply(t, "select 1")
	if step := f.step(t); step.Position != 12 || step.Cause != playback.CauseJump {
		t.Errorf("expected jump to 12, got %+v", step)
	}

	err := f.session.Apply(context.Background(), Command{Kind: CmdSelect, Entry: 9})
	if !errors.Is(err, playback.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing entry, got %v", err)
	}
}

func TestSession_IndexErrors(t *testing.T) {
	f := newFixture(t, 50, DefaultOptions())
	f.fs.SetFile("/idx/a.txt", []byte("1,a\n2,b\n"))
	f.apply(t, "index /idx/a.txt")

	err := f.session.Apply(context.Background(), Command{Kind: CmdIndex, Path: "/idx/missing.txt"})
	if !errors.Is(err, playback.ErrIO) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrIO, got %v", err)
	}
	if f.session.Index().Len() != 2 {
		t.Errorf("missing file must leave the table untouched, got %d entries", f.session.Index().Len())
	}

	// A cancelled dialog does nothing.
	f.apply(t, "index")
	if f.session.Index().Len() != 2 || f.session.IndexPath() != "/idx/a.txt" {
		t.Errorf("cancelled dialog changed the index")
	}

	f.fs.SetFile("/idx/a.txt", []byte("1,a\n\xff\xfe\n"))
	err = f.session.Apply(context.Background(), Command{Kind: CmdReload})
	if !errors.Is(err, playback.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if f.session.Index().Len() != 0 {
		t.Errorf("undecodable index must leave the table empty")
	}
}

func TestSession_Reload(t *testing.T) {
	f := newFixture(t, 50, DefaultOptions())
	if err := f.session.Apply(context.Background(), Command{Kind: CmdReload}); err != nil {
		t.Errorf("reload without index must be a no-op, got %v", err)
	}

	f.fs.SetFile("/idx/a.txt", []byte("1,a\n"))
	f.apply(t, "index /idx/a.txt")
	f.fs.SetFile("/idx/a.txt", []byte("1,a\n2,b\n3,c\n"))
	f.apply(t, "reload")

	if f.session.Index().Len() != 3 {
		t.Errorf("expected 3 entries after reload, got %d", f.session.Index().Len())
	}
	if !f.logger.Contains(ports.LevelInfo, "Index file changed, reloading /idx/a.txt") {
		t.Errorf("expected reload log")
	}
}

func TestSession_SpeedChangesTickerInterval(t *testing.T) {
	f := newFixture(t, 10, DefaultOptions())

	ticker := f.session.NewTicker()
	start := f.clock.Now()
	ticker.Reset()

	f.apply(t, "speed 2")
	f.clock.Add(20 * time.Millisecond)
	tick, err := ticker.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := start.Add(20 * time.Millisecond); !tick.Equal(want) {
		t.Errorf("expected tick at %v, got %v", want, tick)
	}

	err = f.session.Apply(context.Background(), Command{Kind: CmdSpeed, Speed: 3})
	if !errors.Is(err, playback.ErrInvalidSpeed) {
		t.Errorf("expected ErrInvalidSpeed, got %v", err)
	}
	if f.session.Speed() != 2 {
		t.Errorf("invalid speed changed the speed to %v", f.session.Speed())
	}
	f.step(t)
	if last, _ := f.sink.Last(); last.Speed != 2 {
		t.Errorf("expected displayed speed 2, got %v", last.Speed)
	}
}

func TestSession_Snapshot(t *testing.T) {
	f := newFixture(t, 50, DefaultOptions())
	f.fs.SetFile("/idx/a.txt", []byte("1,exitA\n"))
	f.apply(t, "index /idx/a.txt")
	f.step(t)

	f.apply(t, "snap")
	if !f.logger.Contains(ports.LevelInfo, "Snapshot cancelled") {
		t.Errorf("expected cancelled snapshot log")
	}

	f.apply(t, "snap /out/plain.png")
	if data, ok := f.fs.GetFile("/out/plain.png"); !ok || string(data) != "png" {
		t.Errorf("expected PNG snapshot, got %q (%v)", data, ok)
	}

	f.apply(t, "snap --caption /out/captioned.jpg")
	if data, ok := f.fs.GetFile("/out/captioned.jpg"); !ok || string(data) != "jpeg" {
		t.Errorf("expected JPEG snapshot, got %q (%v)", data, ok)
	}
	if len(f.render.Canvases) != 1 {
		t.Fatalf("expected one caption canvas, got %d", len(f.render.Canvases))
	}
	texts := strings.Join(f.render.Canvases[0].Texts, "|")
	if !strings.Contains(texts, "frame 1/49") || !strings.Contains(texts, "exitA") {
		t.Errorf("unexpected caption %q", texts)
	}

	err := f.session.Apply(context.Background(), Command{Kind: CmdSnap, Path: "/out/a.gif"})
	if !errors.Is(err, playback.ErrInvalidInput) {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestSession_StatusReshowsFrame(t *testing.T) {
	f := newFixture(t, 10, DefaultOptions())
	f.step(t)
	f.apply(t, "status")

	if got := f.sink.Indices(); len(got) != 3 || got[2] != 1 {
		t.Errorf("expected frame 1 shown again, got %v", got)
	}
}

func TestSession_QuitAndUnknown(t *testing.T) {
	f := newFixture(t, 10, DefaultOptions())
	if err := f.session.Apply(context.Background(), Command{Kind: CmdQuit}); !errors.Is(err, ErrQuit) {
		t.Errorf("expected ErrQuit, got %v", err)
	}
	if err := f.session.Apply(context.Background(), Command{}); !errors.Is(err, playback.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSession_Close(t *testing.T) {
	f := newFixture(t, 10, DefaultOptions())
	f.step(t)

	if err := f.session.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.session.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if !f.source.Closed() {
		t.Error("expected source closed")
	}
	if !f.logger.Contains(ports.LevelInfo, "Session closed after 1 ticks") {
		t.Errorf("expected close log, got %+v", f.logger.Entries())
	}
}

// fakeTicker fires immediately and stops with ctx.Err once ctx is done.
type fakeTicker struct {
	resets int
	waits  int
}

func (f *fakeTicker) Reset() { f.resets++ }

func (f *fakeTicker) Wait(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	f.waits++
	return time.Time{}, nil
}

func queue(t *testing.T, lines ...string) chan Command {
	t.Helper()
	ch := make(chan Command, len(lines))
	for _, l := range lines {
		cmd, err := ParseCommand(l)
		if err != nil {
			t.Fatal(err)
		}
		ch <- cmd
	}
	return ch
}

func TestRun_AppliesQueuedCommandsBetweenTicks(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxTicks = 5
	f := newFixture(t, 10, opts)
	ticker := &fakeTicker{}

	if err := f.session.Run(context.Background(), ticker, queue(t, "jump 8")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []int{0, 1, 8, 9, 1, 2}
	got := f.sink.Indices()
	if len(got) != len(want) {
		t.Fatalf("expected frames %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: expected %d, got %d", i, want[i], got[i])
		}
	}
	if ticker.resets != 1 || ticker.waits != 5 {
		t.Errorf("expected 1 reset and 5 waits, got %d and %d", ticker.resets, ticker.waits)
	}
}

func TestRun_StopsAtEndWithoutLoop(t *testing.T) {
	opts := DefaultOptions()
	opts.Loop = false
	f := newFixture(t, 4, opts)

	if err := f.session.Run(context.Background(), &fakeTicker{}, nil); err != nil {
		t.Fatal(err)
	}
	if f.session.Position() != 3 || f.session.Ticks() != 3 {
		t.Errorf("expected to stop at frame 3 after 3 ticks, got %d after %d", f.session.Position(), f.session.Ticks())
	}
}

func TestRun_Quit(t *testing.T) {
	f := newFixture(t, 10, DefaultOptions())

	cmds := make(chan Command, 2)
	cmds <- Command{Kind: CmdSpeed, Speed: 9}
	cmds <- Command{Kind: CmdQuit}

	if err := f.session.Run(context.Background(), &fakeTicker{}, cmds); err != nil {
		t.Fatal(err)
	}
	if f.session.Ticks() != 1 {
		t.Errorf("expected quit after the first tick, got %d ticks", f.session.Ticks())
	}
	if !f.logger.Contains(ports.LevelWarn, `Rejected command "speed 9"`) {
		t.Errorf("expected rejected command warning, got %+v", f.logger.Entries())
	}
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t, 10, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	f.sink.ShowFunc = func(ctx context.Context, frame ports.DisplayFrame) error {
		if frame.Index == 3 {
			cancel()
		}
		return nil
	}

	if err := f.session.Run(ctx, &fakeTicker{}, nil); err != nil {
		t.Fatalf("expected nil on cancellation, got %v", err)
	}
	if f.session.Position() != 3 {
		t.Errorf("expected to stop at 3, got %d", f.session.Position())
	}
}

func TestRun_SurvivesDecodeFailure(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxTicks = 4
	f := newFixture(t, 10, opts)
	f.source.ReadFrameFunc = func(ctx context.Context, index int) (image.Image, error) {
		if index == 2 {
			return nil, errors.New("corrupt")
		}
		return mocks.FrameImage(index), nil
	}

	if err := f.session.Run(context.Background(), &fakeTicker{}, queue(t)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !f.session.Paused() || f.session.Position() != 2 {
		t.Errorf("expected paused at 2, got %d paused=%v", f.session.Position(), f.session.Paused())
	}
}

func TestRun_SinkFailureEndsRun(t *testing.T) {
	f := newFixture(t, 10, DefaultOptions())
	f.sink.ShowFunc = func(ctx context.Context, frame ports.DisplayFrame) error {
		return errors.New("display gone")
	}

	err := f.session.Run(context.Background(), &fakeTicker{}, nil)
	if err == nil || !strings.Contains(err.Error(), "display gone") {
		t.Errorf("expected sink error, got %v", err)
	}
}
