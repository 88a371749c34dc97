// Package watcher turns asynchronous change notifications from the kernel,
// D-Bus, the filesystem or a subscribe process into coalesced signals.
//
// A watcher never reads device state. It only says "something may have
// changed"; the engine decides what to do about it.
package watcher

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBackoff is the wait between a broken session and the next attempt.
const DefaultBackoff = 3 * time.Second

var (
	// ErrDisconnected is returned by a session that ended on its own.
	ErrDisconnected = errors.New("watcher disconnected")

	// ErrUnsupported is returned by backends not built for this platform.
	ErrUnsupported = errors.New("watcher backend not supported on this platform")
)

// Watcher delivers change signals until ctx is done. Sends on signals must
// never block: the channel is expected to have capacity 1 so bursts merge.
type Watcher interface {
	Name() string
	Run(ctx context.Context, signals chan<- struct{})
	State() State
}

// State of a watcher session.
type State int32

const (
	Disconnected State = iota
	Connecting
	Listening
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Listening:
		return "listening"
	default:
		return "disconnected"
	}
}

// Notify does a non-blocking send, dropping the signal if one is queued.
func Notify(signals chan<- struct{}) {
	select {
	case signals <- struct{}{}:
	default:
	}
}

// session opens one connection and blocks until it breaks or ctx is done.
// It must call listening() once the connection is established.
type session func(ctx context.Context, listening func()) error

// supervisor runs sessions forever with a fixed backoff. It is embedded by
// every watcher for the shared state handling.
type supervisor struct {
	name    string
	backoff time.Duration
	state   atomic.Int32

	// onListening runs each time a session becomes ready, with the number
	// of sessions started before it.
	onListening func(ctx context.Context, attempt int)
	stateHook   func(State)
}

// StateReporter is implemented by watchers that can report session state
// transitions as they happen.
type StateReporter interface {
	OnStateChange(f func(State))
}

// OnStateChange registers f to run on every state transition. It must be
// called before Run.
func (s *supervisor) OnStateChange(f func(State)) { s.stateHook = f }

func (s *supervisor) Name() string { return s.name }

func (s *supervisor) State() State { return State(s.state.Load()) }

func (s *supervisor) setState(st State) {
	if State(s.state.Swap(int32(st))) != st {
		logrus.WithFields(logrus.Fields{
			"watcher": s.name,
			"state":   st.String(),
		}).Debug("watcher state changed")
		if s.stateHook != nil {
			s.stateHook(st)
		}
	}
}

func (s *supervisor) run(ctx context.Context, open session) {
	backoff := s.backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	defer s.setState(Disconnected)

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return
		}

		s.setState(Connecting)
		n := attempt
		err := open(ctx, func() {
			s.setState(Listening)
			if s.onListening != nil {
				s.onListening(ctx, n)
			}
		})
		s.setState(Disconnected)

		if ctx.Err() != nil {
			return
		}
		logrus.WithFields(logrus.Fields{
			"watcher": s.name,
			"backoff": backoff,
		}).WithError(err).Warn("watcher session ended, reconnecting")

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// None never signals. Engines fall back to polling.
type None struct{}

func (None) Name() string { return "none" }

func (None) State() State { return Disconnected }

func (None) Run(ctx context.Context, _ chan<- struct{}) { <-ctx.Done() }
