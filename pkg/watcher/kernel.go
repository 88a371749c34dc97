package watcher

import (
	"context"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
)

// Uevent is a kernel device event, reduced to what filtering needs.
type Uevent struct {
	Action    string
	Subsystem string
	Name      string
	Props     map[string]string
}

// Monitor is a source of kernel uevents. Listen blocks, calling handle for
// each event of subsystem, until ctx is done or the connection breaks.
type Monitor interface {
	Listen(ctx context.Context, subsystem string, ready func(), handle func(Uevent)) error
}

const powerSupplySubsystem = "power_supply"

// KernelWatcher signals on power_supply uevents for the tracked supplies
// and for any AC adapter.
type KernelWatcher struct {
	supervisor
	monitor Monitor
	tracked []string
}

var _ Watcher = &KernelWatcher{}

// NewKernelWatcher watches power_supply events through m. An empty tracked
// list accepts every power_supply event.
func NewKernelWatcher(name string, m Monitor, tracked []string, backoff time.Duration) *KernelWatcher {
	w := &KernelWatcher{
		supervisor: supervisor{name: name, backoff: backoff},
		monitor:    m,
		tracked:    tracked,
	}
	return w
}

func (w *KernelWatcher) Run(ctx context.Context, signals chan<- struct{}) {
	w.onListening = func(_ context.Context, attempt int) {
		// Events may have been missed while disconnected.
		if attempt > 0 {
			Notify(signals)
		}
	}
	w.run(ctx, func(ctx context.Context, ready func()) error {
		return w.monitor.Listen(ctx, powerSupplySubsystem, ready, func(ev Uevent) {
			if !w.relevant(ev) {
				return
			}
			logrus.WithFields(logrus.Fields{
				"watcher": w.name,
				"action":  ev.Action,
				"device":  ev.Name,
			}).Trace("uevent")
			Notify(signals)
		})
	})
}

func (w *KernelWatcher) relevant(ev Uevent) bool {
	if ev.Subsystem != "" && ev.Subsystem != powerSupplySubsystem {
		return false
	}
	if len(w.tracked) == 0 || slices.Contains(w.tracked, ev.Name) {
		return true
	}
	switch ev.Props["POWER_SUPPLY_TYPE"] {
	case "Mains", "USB":
		return true
	}
	return false
}
