package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devstat/devstat/pkg/classify"
	"github.com/devstat/devstat/pkg/control"
	"github.com/devstat/devstat/pkg/events"
	"github.com/devstat/devstat/pkg/source"
	"github.com/devstat/devstat/pkg/types"
	"github.com/devstat/devstat/pkg/watcher"
)

type fakeSource struct {
	mu      sync.Mutex
	reading types.DeviceReading
	err     error
	reads   atomic.Int32
	readAt  []time.Time

	// blockOn makes that read (1-based) wait for gate to close.
	blockOn int32
	gate    chan struct{}
}

func (s *fakeSource) Read(context.Context) (types.DeviceReading, error) {
	n := s.reads.Add(1)
	if n == s.blockOn {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readAt = append(s.readAt, time.Now())
	return s.reading, s.err
}

func (s *fakeSource) readTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.readAt...)
}

func (s *fakeSource) set(r types.DeviceReading, err error) {
	s.mu.Lock()
	s.reading, s.err = r, err
	s.mu.Unlock()
}

type fakeController struct {
	mu     sync.Mutex
	err    error
	levels []int
	mutes  []control.MuteAction
}

func (c *fakeController) SetLevel(_ context.Context, level int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.levels = append(c.levels, level)
	return c.err
}

func (c *fakeController) SetMute(_ context.Context, a control.MuteAction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutes = append(c.mutes, a)
	return c.err
}

func (c *fakeController) calls() ([]int, []control.MuteAction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.levels...), append([]control.MuteAction(nil), c.mutes...)
}

type fakePublisher struct {
	mu     sync.Mutex
	states []types.DisplayState
}

func (p *fakePublisher) Publish(_ string, st types.DisplayState) {
	p.mu.Lock()
	p.states = append(p.states, st)
	p.mu.Unlock()
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.states)
}

// burstWatcher sends n signals spaced by gap, then idles. last, when
// set, holds the time of the final signal.
type burstWatcher struct {
	n    int
	gap  time.Duration
	last *atomic.Int64
}

func (burstWatcher) Name() string         { return "burst" }
func (burstWatcher) State() watcher.State { return watcher.Listening }

func (w burstWatcher) Run(ctx context.Context, signals chan<- struct{}) {
	for i := 0; i < w.n; i++ {
		watcher.Notify(signals)
		if w.last != nil {
			w.last.Store(time.Now().UnixNano())
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.gap):
		}
	}
	<-ctx.Done()
}

// chanWatcher forwards every value sent on ch as a signal.
type chanWatcher struct{ ch chan struct{} }

func (chanWatcher) Name() string         { return "chan" }
func (chanWatcher) State() watcher.State { return watcher.Listening }

func (w chanWatcher) Run(ctx context.Context, signals chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.ch:
			watcher.Notify(signals)
		}
	}
}

// stuckWatcher ignores cancellation until released.
type stuckWatcher struct{ release chan struct{} }

func (stuckWatcher) Name() string         { return "stuck" }
func (stuckWatcher) State() watcher.State { return watcher.Disconnected }
func (w stuckWatcher) Run(context.Context, chan<- struct{}) {
	<-w.release
}

func battery(level float64, st types.Status) types.DeviceReading {
	return types.DeviceReading{Level: level, HasLevel: true, Status: st, Device: "BAT0"}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newEngine(t *testing.T, cfg Config, src source.Source, opts ...Option) *Engine {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "test"
	}
	if cfg.Fallback == "" {
		cfg.Fallback = "-"
	}
	e, err := New(cfg, src, classify.BatteryProfile(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func TestStartPublishesUnconditionally(t *testing.T) {
	src := &fakeSource{reading: battery(73, types.StatusDischarging)}
	pub := &fakePublisher{}
	e := newEngine(t, Config{}, src, WithPublisher(pub))

	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if pub.count() != 1 {
		t.Fatalf("published %d states at start, want 1", pub.count())
	}
	snap := e.Snapshot()
	if snap.Level != 73 || snap.Bucket != 60 || snap.Severity != types.SeverityNormal {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if e.State() != Running {
		t.Errorf("State() = %v, want running", e.State())
	}
}

func TestStartWithTransientErrorPublishesUnavailable(t *testing.T) {
	src := &fakeSource{err: source.ErrReadTransient}
	pub := &fakePublisher{}
	e := newEngine(t, Config{}, src, WithPublisher(pub))
	_ = e.Start(context.Background())

	if got := e.Snapshot().Tag; got != types.TagUnavailable {
		t.Errorf("Tag = %v, want unavailable", got)
	}
}

func TestRecomputeTwicePublishesOnce(t *testing.T) {
	src := &fakeSource{reading: battery(50, types.StatusDischarging)}
	pub := &fakePublisher{}
	e := newEngine(t, Config{}, src, WithPublisher(pub))

	e.recompute(context.Background(), "test")
	e.recompute(context.Background(), "test")
	if pub.count() != 1 {
		t.Errorf("published %d times, want 1", pub.count())
	}

	src.set(battery(50.3, types.StatusDischarging), nil)
	e.recompute(context.Background(), "test")
	if pub.count() != 1 {
		t.Errorf("a reading that rounds the same was republished")
	}

	src.set(battery(51, types.StatusDischarging), nil)
	e.recompute(context.Background(), "test")
	if pub.count() != 2 {
		t.Errorf("changed level was not published")
	}
}

func TestRecomputeErrors(t *testing.T) {
	src := &fakeSource{reading: battery(50, types.StatusDischarging)}
	pub := &fakePublisher{}
	e := newEngine(t, Config{}, src, WithPublisher(pub))
	ctx := context.Background()

	e.recompute(ctx, "test")

	src.set(types.Unavailable(""), source.ErrReadTransient)
	e.recompute(ctx, "test")
	if pub.count() != 1 || e.Snapshot().Level != 50 {
		t.Errorf("transient error changed the display: %+v", e.Snapshot())
	}

	src.set(types.Unavailable(""), source.ErrUnavailable)
	e.recompute(ctx, "test")
	if e.Snapshot().Tag != types.TagUnavailable {
		t.Errorf("unavailable source should render N/A, got %+v", e.Snapshot())
	}
}

func TestBurstCoalesces(t *testing.T) {
	src := &fakeSource{reading: battery(50, types.StatusDischarging)}
	var last atomic.Int64
	e := newEngine(t, Config{Debounce: 200 * time.Millisecond}, src,
		WithWatcher(burstWatcher{n: 5, gap: 10 * time.Millisecond, last: &last}))

	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	// One read at start, one for the burst.
	if got := src.reads.Load(); got != 2 {
		t.Fatalf("reads = %d, want 2", got)
	}

	gap := src.readTimes()[1].Sub(time.Unix(0, last.Load()))
	if gap < 190*time.Millisecond || gap > 350*time.Millisecond {
		t.Errorf("recompute %v after the last signal, want about the 200ms window", gap)
	}
}

func TestFallbackRecomputes(t *testing.T) {
	src := &fakeSource{reading: battery(50, types.StatusDischarging)}
	pub := &fakePublisher{}
	e := newEngine(t, Config{Fallback: "@every 1s"}, src, WithPublisher(pub))

	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return !e.Status().NextFallback.IsZero() })

	src.set(battery(40, types.StatusDischarging), nil)
	waitFor(t, func() bool { return pub.count() == 2 })
	if got := e.Snapshot().Level; got != 40 {
		t.Errorf("Level = %d after the fallback read, want 40", got)
	}
}

func TestSignalDuringRecomputeIsNotLost(t *testing.T) {
	src := &fakeSource{
		reading: battery(50, types.StatusDischarging),
		blockOn: 2,
		gate:    make(chan struct{}),
	}
	ch := make(chan struct{})
	e := newEngine(t, Config{Debounce: 20 * time.Millisecond}, src, WithWatcher(chanWatcher{ch: ch}))

	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	ch <- struct{}{}
	waitFor(t, func() bool { return src.reads.Load() == 2 })

	// the second read is in flight; this signal must cause a third
	ch <- struct{}{}
	close(src.gate)

	waitFor(t, func() bool { return src.reads.Load() == 3 })
	time.Sleep(100 * time.Millisecond)
	if got := src.reads.Load(); got != 3 {
		t.Errorf("reads = %d, want 3", got)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		level      float64
		do         func(e *Engine) error
		wantLevels []int
		wantMutes  []control.MuteAction
	}{
		{
			name:       "increase",
			level:      40,
			do:         (*Engine).Increase,
			wantLevels: []int{45},
		},
		{
			name:       "increase clamps to max",
			cfg:        Config{MaxLevel: 100},
			level:      98,
			do:         (*Engine).Increase,
			wantLevels: []int{100},
		},
		{
			name:       "decrease clamps to min",
			cfg:        Config{Step: 10},
			level:      4,
			do:         (*Engine).Decrease,
			wantLevels: []int{0},
		},
		{
			name:       "decrease rounds the current level",
			level:      49.6,
			do:         (*Engine).Decrease,
			wantLevels: []int{45},
		},
		{
			name:       "set clamps to amplified max",
			cfg:        Config{MaxLevel: 130},
			level:      20,
			do:         func(e *Engine) error { return e.Set(200) },
			wantLevels: []int{130},
		},
		{
			name:      "toggle mute",
			level:     20,
			do:        (*Engine).ToggleMute,
			wantMutes: []control.MuteAction{control.MuteToggle},
		},
		{
			name:      "mute",
			level:     20,
			do:        (*Engine).Mute,
			wantMutes: []control.MuteAction{control.MuteOn},
		},
		{
			name:      "unmute",
			level:     20,
			do:        (*Engine).Unmute,
			wantMutes: []control.MuteAction{control.MuteOff},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{reading: battery(tt.level, types.StatusUnmuted)}
			ctrl := &fakeController{}
			e := newEngine(t, tt.cfg, src, WithController(ctrl))
			if err := e.Start(context.Background()); err != nil {
				t.Fatal(err)
			}
			if err := tt.do(e); err != nil {
				t.Fatalf("command error = %v", err)
			}
			waitFor(t, func() bool {
				l, m := ctrl.calls()
				return len(l)+len(m) > 0
			})
			levels, mutes := ctrl.calls()
			if len(levels) != len(tt.wantLevels) || (len(levels) > 0 && levels[0] != tt.wantLevels[0]) {
				t.Errorf("levels = %v, want %v", levels, tt.wantLevels)
			}
			if len(mutes) != len(tt.wantMutes) || (len(mutes) > 0 && mutes[0] != tt.wantMutes[0]) {
				t.Errorf("mutes = %v, want %v", mutes, tt.wantMutes)
			}
		})
	}
}

func TestCommandRecomputes(t *testing.T) {
	src := &fakeSource{reading: battery(40, types.StatusUnmuted)}
	pub := &fakePublisher{}
	ctrl := &fakeController{}
	e := newEngine(t, Config{}, src, WithController(ctrl), WithPublisher(pub))
	_ = e.Start(context.Background())

	src.set(battery(45, types.StatusUnmuted), nil)
	if err := e.Increase(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return pub.count() == 2 })
	if e.Snapshot().Level != 45 {
		t.Errorf("Level = %d, want 45", e.Snapshot().Level)
	}
}

func TestFailedCommandKeepsDisplay(t *testing.T) {
	src := &fakeSource{reading: battery(40, types.StatusUnmuted)}
	pub := &fakePublisher{}
	ctrl := &fakeController{err: errors.New("wpctl: exit status 1")}
	hub := events.NewEventHub()
	failures := hub.Subscribe(events.CommandFailed)

	e := newEngine(t, Config{}, src, WithController(ctrl), WithPublisher(pub), WithEvents(hub))
	_ = e.Start(context.Background())
	before := e.Snapshot()

	src.set(battery(90, types.StatusUnmuted), nil)
	if err := e.Set(90); err != nil {
		t.Fatalf("Set() = %v, commands report failures asynchronously", err)
	}

	select {
	case ev := <-failures:
		got, err := events.DecodeAs[events.CommandFailedEvent](ev)
		if err != nil {
			t.Fatal(err)
		}
		if got.Widget != "test" || got.Command != string(CmdSet) {
			t.Errorf("event = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no command.failed event")
	}

	time.Sleep(100 * time.Millisecond)
	if pub.count() != 1 || !e.Snapshot().Equal(before) {
		t.Errorf("failed command changed the display")
	}
}

func TestNoController(t *testing.T) {
	src := &fakeSource{reading: battery(40, types.StatusDischarging)}
	e := newEngine(t, Config{}, src)
	err := e.apply(context.Background(), request{cmd: CmdIncrease})
	if !errors.Is(err, ErrNoController) {
		t.Errorf("apply() = %v, want ErrNoController", err)
	}
	if err := e.apply(context.Background(), request{cmd: CmdRefresh}); err != nil {
		t.Errorf("refresh needs no controller, got %v", err)
	}
}

func TestIncreaseWithoutLevel(t *testing.T) {
	src := &fakeSource{reading: types.Unavailable("")}
	e := newEngine(t, Config{}, src, WithController(&fakeController{}))
	if err := e.apply(context.Background(), request{cmd: CmdIncrease}); !errors.Is(err, ErrNoLevel) {
		t.Errorf("apply() = %v, want ErrNoLevel", err)
	}
}

func TestDoUnknownCommand(t *testing.T) {
	e := newEngine(t, Config{}, &fakeSource{})
	if err := e.Do("explode", 0); err == nil {
		t.Errorf("Do(unknown) should fail")
	}
}

func TestStop(t *testing.T) {
	src := &fakeSource{reading: battery(40, types.StatusDischarging)}
	pub := &fakePublisher{}
	e := newEngine(t, Config{}, src, WithPublisher(pub))
	_ = e.Start(context.Background())

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	if e.State() != Stopped {
		t.Errorf("State() = %v, want stopped", e.State())
	}
	if err := e.Refresh(); !errors.Is(err, ErrStopped) {
		t.Errorf("Refresh() after stop = %v, want ErrStopped", err)
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after stop = %v, want ErrStopped", err)
	}

	e.publish(types.DisplayState{Tag: types.TagLevel, Level: 1})
	if pub.count() != 1 {
		t.Errorf("stopped engine published")
	}
	if err := e.Stop(); err != nil {
		t.Errorf("second Stop() = %v", err)
	}
}

func TestStopTimeout(t *testing.T) {
	w := stuckWatcher{release: make(chan struct{})}
	defer close(w.release)

	e := newEngine(t, Config{ShutdownTimeout: 50 * time.Millisecond}, &fakeSource{}, WithWatcher(w))
	_ = e.Start(context.Background())

	if err := e.Stop(); !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("Stop() = %v, want ErrShutdownTimeout", err)
	}
	if e.State() != Stopped {
		t.Errorf("State() = %v, want stopped", e.State())
	}
}

func TestResolverRunsBeforeFirstRead(t *testing.T) {
	ref := control.NewDeviceRef("")
	src := source.Func(func(context.Context) (types.DeviceReading, error) {
		return types.DeviceReading{Level: 30, HasLevel: true, Device: ref.Get()}, nil
	})
	e := newEngine(t, Config{}, src, WithResolver(func(context.Context) { ref.Set("57") }))
	_ = e.Start(context.Background())

	if got := e.Snapshot().Reading.Device; got != "57" {
		t.Errorf("Device = %q, want 57", got)
	}
}

func TestStatus(t *testing.T) {
	src := &fakeSource{reading: battery(40, types.StatusDischarging)}
	e := newEngine(t, Config{Name: "bat", Fallback: "@every 1h", Critical: 15}, src)
	_ = e.Start(context.Background())

	waitFor(t, func() bool { return !e.Status().NextFallback.IsZero() })
	s := e.Status()
	if s.Name != "bat" || s.State != "running" || s.Watcher != "none" || s.Controllable {
		t.Errorf("Status() = %+v", s)
	}
	if s.Critical != 15 || s.RecomputesLastMinute != 1 {
		t.Errorf("Status() = %+v", s)
	}
}
