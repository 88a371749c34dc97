package daemon

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devstat/devstat/pkg/monitor"
)

// registry holds the running engines in config order.
type registry struct {
	mu      sync.RWMutex
	engines []*monitor.Engine
}

func (r *registry) get(name string) (*monitor.Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.engines {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

func (r *registry) all() []*monitor.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*monitor.Engine(nil), r.engines...)
}

// swap installs engines and returns the previous ones.
func (r *registry) swap(engines []*monitor.Engine) []*monitor.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.engines
	r.engines = engines
	return old
}

// startAll starts engines concurrently. On any failure every engine is
// stopped again. Engines live as long as ctx.
func startAll(ctx context.Context, engines []*monitor.Engine) error {
	var g errgroup.Group
	for _, e := range engines {
		e := e
		g.Go(func() error {
			return e.Start(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		stopAll(engines)
		return err
	}
	return nil
}

// stopAll stops engines concurrently. Timeouts are logged by the engines
// and never block the rest of the shutdown.
func stopAll(engines []*monitor.Engine) {
	var g errgroup.Group
	for _, e := range engines {
		e := e
		g.Go(func() error {
			return e.Stop()
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, monitor.ErrShutdownTimeout) {
		logrus.WithError(err).Error("failed to stop widgets")
	}
}
