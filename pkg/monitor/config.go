package monitor

import (
	"time"

	"github.com/robfig/cron/v3"
	pkgerrors "github.com/pkg/errors"
)

const (
	MinStep     = 1
	MaxStep     = 25
	DefaultStep = 5
	MaxLevel    = 150

	DefaultFallback = "@every 60s"

	DefaultDebounce        = 200 * time.Millisecond
	DefaultCommandDebounce = 20 * time.Millisecond
	DefaultShutdownTimeout = 2 * time.Second
)

var scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config is a widget's engine configuration. It is clamped once by New and
// never changes afterwards.
type Config struct {
	Name string

	Step     int
	MinLevel int
	MaxLevel int
	// Critical is the level at or below which the display turns critical.
	// Zero disables it.
	Critical int

	Debounce        time.Duration
	CommandDebounce time.Duration
	// DebounceMaxWait caps how long a continuous signal stream can hold
	// back a recompute. Zero leaves bursts unbounded.
	DebounceMaxWait time.Duration
	// Fallback is a cron expression for periodic reads, so a dead watcher
	// never freezes the display. "-" disables it.
	Fallback        string
	ShutdownTimeout time.Duration
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// normalize applies defaults and bounds. The only error is an unparsable
// fallback schedule.
func (c Config) normalize() (Config, cron.Schedule, error) {
	if c.Step == 0 {
		c.Step = DefaultStep
	}
	c.Step = clampInt(c.Step, MinStep, MaxStep)

	if c.MaxLevel == 0 {
		c.MaxLevel = 100
	}
	c.MaxLevel = clampInt(c.MaxLevel, 0, MaxLevel)
	c.MinLevel = clampInt(c.MinLevel, 0, c.MaxLevel)
	c.Critical = clampInt(c.Critical, 0, 100)

	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.CommandDebounce <= 0 {
		c.CommandDebounce = DefaultCommandDebounce
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Fallback == "" {
		c.Fallback = DefaultFallback
	}
	if c.Fallback == "-" {
		return c, nil, nil
	}
	sched, err := scheduleParser.Parse(c.Fallback)
	if err != nil {
		return c, nil, pkgerrors.Wrapf(err, "invalid fallback schedule %q", c.Fallback)
	}
	return c, sched, nil
}
