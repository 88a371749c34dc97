// Package monitor runs one widget: it reads a source whenever a watcher,
// a command or the fallback schedule says so, classifies the reading and
// publishes the result when it changed.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/alert"
	"github.com/devstat/devstat/pkg/classify"
	"github.com/devstat/devstat/pkg/control"
	"github.com/devstat/devstat/pkg/debounce"
	"github.com/devstat/devstat/pkg/events"
	"github.com/devstat/devstat/pkg/source"
	"github.com/devstat/devstat/pkg/types"
	"github.com/devstat/devstat/pkg/watcher"
)

const commandQueueSize = 16

// State of an engine's lifecycle.
type State int32

const (
	Starting State = iota
	Running
	ShuttingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting-down"
	default:
		return "stopped"
	}
}

// Publisher receives every changed display state.
type Publisher interface {
	Publish(widget string, st types.DisplayState)
}

// Command is a named operation on a widget.
type Command string

const (
	CmdIncrease   Command = "increase"
	CmdDecrease   Command = "decrease"
	CmdSet        Command = "set"
	CmdToggleMute Command = "toggle-mute"
	CmdMute       Command = "mute"
	CmdUnmute     Command = "unmute"
	CmdRefresh    Command = "refresh"
)

type request struct {
	cmd   Command
	level int
}

type Option func(*Engine)

func WithWatcher(w watcher.Watcher) Option {
	return func(e *Engine) { e.watcher = w }
}

func WithController(c control.Controller) Option {
	return func(e *Engine) { e.ctrl = c }
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.pub = p }
}

// WithEvents makes the engine report watcher states and failed commands.
func WithEvents(h *events.EventHub) Option {
	return func(e *Engine) { e.hub = h }
}

func WithAlerter(a alert.Alerter) Option {
	return func(e *Engine) { e.alerter = a }
}

// WithResolver sets a hook run once before the first read, to pick the
// device the widget follows.
func WithResolver(f func(ctx context.Context)) Option {
	return func(e *Engine) { e.resolve = f }
}

// Engine is the per-widget state machine. All reads, classifications and
// commands run on its loop goroutine, one at a time.
type Engine struct {
	cfg      Config
	schedule cron.Schedule
	src      source.Source
	profile  classify.Profile
	watcher  watcher.Watcher
	ctrl     control.Controller
	pub      Publisher
	hub      *events.EventHub
	alerter  alert.Alerter
	resolve  func(ctx context.Context)
	recorder *Recorder

	lifecycle sync.Mutex
	state     atomic.Int32
	started   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	snapshot     atomic.Pointer[types.DisplayState]
	nextFallback atomic.Int64

	// Owned by the loop goroutine.
	last     types.DisplayState
	watchDeb *debounce.Debouncer
	cmdDeb   *debounce.Debouncer

	signals  chan struct{}
	commands chan request
}

// New validates cfg and builds an engine. Nothing runs until Start.
func New(cfg Config, src source.Source, profile classify.Profile, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, errors.New("engine needs a source")
	}
	cfg, sched, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		schedule: sched,
		src:      src,
		profile:  profile.Normalize(),
		watcher:  watcher.None{},
		recorder: NewRecorder(60),
		watchDeb: debounce.New(cfg.Debounce, cfg.DebounceMaxWait),
		cmdDeb:   debounce.New(cfg.CommandDebounce, 0),
		signals:  make(chan struct{}, 1),
		commands: make(chan request, commandQueueSize),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Engine) Name() string { return e.cfg.Name }

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) State() State { return State(e.state.Load()) }

// Snapshot returns the last published state. Safe from any goroutine.
func (e *Engine) Snapshot() types.DisplayState {
	if p := e.snapshot.Load(); p != nil {
		return *p
	}
	return types.DisplayState{}
}

func (e *Engine) logger() *logrus.Entry {
	return logrus.WithField("widget", e.cfg.Name)
}

// Start resolves the device, publishes a first state synchronously and
// starts the background goroutines.
func (e *Engine) Start(ctx context.Context) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.State() != Starting {
		return ErrStopped
	}
	if e.started {
		return errors.New("engine already started")
	}
	e.started = true

	ctx, e.cancel = context.WithCancel(ctx)

	if e.resolve != nil {
		e.resolve(ctx)
	}

	st, ok := e.read(ctx)
	if !ok {
		st = classify.Classify(types.Unavailable(""), e.profile, e.cfg.Critical)
	}
	e.recorder.AddRecordNow()
	e.publish(st)

	if sr, ok := e.watcher.(watcher.StateReporter); ok {
		name := e.watcher.Name()
		sr.OnStateChange(func(s watcher.State) {
			e.hub.Publish(events.WatcherState, events.WatcherStateEvent{
				Widget:  e.cfg.Name,
				Watcher: name,
				State:   s.String(),
				Ts:      time.Now().UnixMilli(),
			})
		})
	}

	e.state.Store(int32(Running))

	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.watcher.Run(ctx, e.signals)
	}()
	go func() {
		defer e.wg.Done()
		e.loop(ctx)
	}()

	e.logger().WithFields(logrus.Fields{
		"watcher":  e.watcher.Name(),
		"fallback": e.cfg.Fallback,
	}).Info("widget started")
	return nil
}

// Stop cancels the engine and waits up to ShutdownTimeout for its
// goroutines. It is idempotent; a timeout is logged and returned, but the
// engine is Stopped either way.
func (e *Engine) Stop() error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	switch e.State() {
	case Stopped:
		return nil
	case Starting:
		e.state.Store(int32(Stopped))
		return nil
	}

	e.state.Store(int32(ShuttingDown))
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	t := time.NewTimer(e.cfg.ShutdownTimeout)
	defer t.Stop()

	var err error
	select {
	case <-done:
	case <-t.C:
		err = ErrShutdownTimeout
		e.logger().WithError(err).Warn("widget goroutines still running, continuing shutdown")
	}

	e.state.Store(int32(Stopped))
	e.logger().Info("widget stopped")
	return err
}

func (e *Engine) Increase() error     { return e.enqueue(request{cmd: CmdIncrease}) }
func (e *Engine) Decrease() error     { return e.enqueue(request{cmd: CmdDecrease}) }
func (e *Engine) Set(level int) error { return e.enqueue(request{cmd: CmdSet, level: level}) }
func (e *Engine) ToggleMute() error   { return e.enqueue(request{cmd: CmdToggleMute}) }
func (e *Engine) Mute() error         { return e.enqueue(request{cmd: CmdMute}) }
func (e *Engine) Unmute() error       { return e.enqueue(request{cmd: CmdUnmute}) }
func (e *Engine) Refresh() error      { return e.enqueue(request{cmd: CmdRefresh}) }

// Do runs a command by name. level is only used by CmdSet.
func (e *Engine) Do(cmd Command, level int) error {
	switch cmd {
	case CmdIncrease, CmdDecrease, CmdSet, CmdToggleMute, CmdMute, CmdUnmute, CmdRefresh:
		return e.enqueue(request{cmd: cmd, level: level})
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// enqueue never blocks. Results are only visible as a new display state
// or a command.failed event.
func (e *Engine) enqueue(r request) error {
	switch e.State() {
	case ShuttingDown, Stopped:
		return ErrStopped
	}
	select {
	case e.commands <- r:
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *Engine) loop(ctx context.Context) {
	var (
		timer    *time.Timer
		fallback <-chan time.Time
	)
	arm := func() {
		if e.schedule == nil {
			return
		}
		next := e.schedule.Next(time.Now())
		e.nextFallback.Store(next.UnixMilli())
		if timer == nil {
			timer = time.NewTimer(time.Until(next))
			fallback = timer.C
			return
		}
		timer.Reset(time.Until(next))
	}
	arm()

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		e.watchDeb.Stop()
		e.cmdDeb.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.signals:
			e.watchDeb.Signal()
		case <-e.watchDeb.C():
			e.watchDeb.Fire()
			e.recompute(ctx, "watcher")
		case <-e.cmdDeb.C():
			e.cmdDeb.Fire()
			e.recompute(ctx, "command")
		case <-fallback:
			e.recompute(ctx, "fallback")
			arm()
		case r := <-e.commands:
			e.handle(ctx, r)
		}
	}
}

// recompute reads, classifies and publishes if the result differs from
// the cached state. A transient read failure keeps the cache.
func (e *Engine) recompute(ctx context.Context, reason string) {
	e.recorder.AddRecordNow()

	st, ok := e.read(ctx)
	if !ok {
		return
	}
	if e.alerter != nil {
		e.alerter.Observe(st, e.cfg.Critical)
	}
	if st.Equal(e.last) {
		e.logger().WithField("reason", reason).Debug("state unchanged, not publishing")
		return
	}
	e.logger().WithFields(logrus.Fields{
		"reason": reason,
		"tag":    st.Tag,
		"level":  st.Level,
		"status": st.Status,
	}).Debug("state changed")
	e.publish(st)
}

func (e *Engine) read(ctx context.Context) (types.DisplayState, bool) {
	r, err := e.src.Read(ctx)
	switch {
	case err == nil:
	case errors.Is(err, source.ErrUnavailable):
		r = types.Unavailable(r.Device)
	default:
		e.logger().WithError(err).Debug("read failed, keeping last state")
		return types.DisplayState{}, false
	}
	return classify.Classify(r, e.profile, e.cfg.Critical), true
}

func (e *Engine) publish(st types.DisplayState) {
	switch e.State() {
	case ShuttingDown, Stopped:
		return
	}
	e.last = st
	e.snapshot.Store(&st)
	if e.pub != nil {
		e.pub.Publish(e.cfg.Name, st)
	}
}

func (e *Engine) handle(ctx context.Context, r request) {
	if err := e.apply(ctx, r); err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrCommandFailed, r.cmd, err)
		e.logger().WithError(err).Error("command failed")
		e.hub.Publish(events.CommandFailed, events.CommandFailedEvent{
			Widget:  e.cfg.Name,
			Command: string(r.cmd),
			Error:   err.Error(),
			Ts:      time.Now().UnixMilli(),
		})
		return
	}
	e.cmdDeb.Signal()
}

func (e *Engine) apply(ctx context.Context, r request) error {
	if r.cmd == CmdRefresh {
		return nil
	}
	if e.ctrl == nil {
		return ErrNoController
	}

	switch r.cmd {
	case CmdMute:
		return e.ctrl.SetMute(ctx, control.MuteOn)
	case CmdUnmute:
		return e.ctrl.SetMute(ctx, control.MuteOff)
	case CmdToggleMute:
		return e.ctrl.SetMute(ctx, control.MuteToggle)
	case CmdSet:
		return e.setLevel(ctx, r.level)
	}

	rd, err := e.src.Read(ctx)
	if err != nil {
		return err
	}
	if !rd.HasLevel {
		return ErrNoLevel
	}
	cur := int(math.Round(rd.Level))
	if r.cmd == CmdDecrease {
		return e.setLevel(ctx, cur-e.cfg.Step)
	}
	return e.setLevel(ctx, cur+e.cfg.Step)
}

func (e *Engine) setLevel(ctx context.Context, level int) error {
	return e.ctrl.SetLevel(ctx, clampInt(level, e.cfg.MinLevel, e.cfg.MaxLevel))
}
