// Package alert sends desktop notifications when a battery runs low.
package alert

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/runner"
	"github.com/devstat/devstat/pkg/types"
)

const (
	MinInterval     = time.Minute
	DefaultInterval = 5 * time.Minute
)

// DefaultCommand is the notifier used when none is configured.
var DefaultCommand = []string{"notify-send"}

// Alerter is told about every newly published state.
type Alerter interface {
	Observe(st types.DisplayState, critical int)
}

// LowBattery runs Command with a title and a body when a discharging
// battery is at or below the critical level, at most once per Interval.
type LowBattery struct {
	Command  []string
	Interval time.Duration

	mu   sync.Mutex
	last time.Time

	// Seams for tests.
	start  func(argv []string) error
	now    func() time.Time
	getenv func(string) string
}

var _ Alerter = &LowBattery{}

func NewLowBattery(command []string, interval time.Duration) *LowBattery {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if interval == 0 {
		interval = DefaultInterval
	}
	return &LowBattery{
		Command:  command,
		Interval: max(interval, MinInterval),
		start:    runner.Start,
		now:      time.Now,
		getenv:   os.Getenv,
	}
}

func (a *LowBattery) Observe(st types.DisplayState, critical int) {
	if critical <= 0 || st.Tag != types.TagLevel || st.Level > critical {
		return
	}
	if st.Status != types.StatusDischarging {
		return
	}

	a.mu.Lock()
	now := a.now()
	if !a.last.IsZero() && now.Sub(a.last) < a.Interval {
		a.mu.Unlock()
		return
	}
	a.last = now
	a.mu.Unlock()

	// notify-send without a session bus only prints an error.
	if a.Command[0] == "notify-send" && a.getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		logrus.Debug("no session bus, skipping low battery notification")
		return
	}

	argv := append(append([]string{}, a.Command...), "Low Battery", fmt.Sprintf("%d%% remaining", st.Level))
	if err := a.start(argv); err != nil {
		logrus.WithError(err).Error("failed to send low battery notification")
		return
	}
	logrus.WithField("level", st.Level).Info("low battery notification sent")
}
