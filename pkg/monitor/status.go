package monitor

import (
	"time"

	"github.com/devstat/devstat/pkg/types"
)

// Status is a point-in-time view of an engine for the API and CLI.
type Status struct {
	Name         string             `json:"name"`
	State        string             `json:"state"`
	Watcher      string             `json:"watcher"`
	WatcherState string             `json:"watcherState"`
	Display      types.DisplayState `json:"display"`
	Controllable bool               `json:"controllable"`

	Step     int `json:"step"`
	MinLevel int `json:"minLevel"`
	MaxLevel int `json:"maxLevel"`
	Critical int `json:"critical"`

	LastRecompute        time.Time `json:"lastRecompute"`
	RecomputesLastMinute int       `json:"recomputesLastMinute"`
	NextFallback         time.Time `json:"nextFallback"`
}

func (e *Engine) Status() Status {
	s := Status{
		Name:                 e.cfg.Name,
		State:                e.State().String(),
		Watcher:              e.watcher.Name(),
		WatcherState:         e.watcher.State().String(),
		Display:              e.Snapshot(),
		Controllable:         e.ctrl != nil,
		Step:                 e.cfg.Step,
		MinLevel:             e.cfg.MinLevel,
		MaxLevel:             e.cfg.MaxLevel,
		Critical:             e.cfg.Critical,
		LastRecompute:        e.recorder.Last(),
		RecomputesLastMinute: e.recorder.CountIn(time.Minute),
	}
	if ms := e.nextFallback.Load(); ms > 0 {
		s.NextFallback = time.UnixMilli(ms)
	}
	return s
}
