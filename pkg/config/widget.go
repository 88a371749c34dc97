package config

import (
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/devstat/devstat/pkg/utils/ptr"
)

// Widget kinds.
const (
	KindBattery    = "battery"
	KindVolume     = "volume"
	KindMic        = "mic"
	KindBrightness = "brightness"
)

// Widget is a fully defaulted widget section.
type Widget struct {
	Name      string
	Kind      string
	Source    string
	Watcher   string
	Device    string
	SysfsRoot string

	Step     int
	MinLevel int
	MaxLevel int
	Critical int

	Debounce        time.Duration
	CommandDebounce time.Duration
	DebounceMaxWait time.Duration
	Fallback        string

	ShowIcon bool
	ShowTime bool
	Colors   map[string]string

	Alert         bool
	AlertInterval time.Duration
	AlertCommand  []string
}

// RawWidget is a [[widget]] section as written. Unset fields take the
// defaults of the widget's kind.
type RawWidget struct {
	Name            *string           `toml:"name,omitempty"`
	Kind            *string           `toml:"kind,omitempty"`
	Source          *string           `toml:"source,omitempty"`
	Watcher         *string           `toml:"watcher,omitempty"`
	Device          *string           `toml:"device,omitempty"`
	SysfsRoot       *string           `toml:"sysfs_root,omitempty"`
	Step            *int              `toml:"step,omitempty"`
	MinLevel        *int              `toml:"min_level,omitempty"`
	MaxLevel        *int              `toml:"max_level,omitempty"`
	Critical        *int              `toml:"critical,omitempty"`
	Debounce        *Duration         `toml:"debounce,omitempty"`
	CommandDebounce *Duration         `toml:"command_debounce,omitempty"`
	DebounceMaxWait *Duration         `toml:"debounce_max_wait,omitempty"`
	Fallback        *string           `toml:"fallback,omitempty"`
	ShowIcon        *bool             `toml:"show_icon,omitempty"`
	ShowTime        *bool             `toml:"show_time,omitempty"`
	Colors          map[string]string `toml:"colors,omitempty"`
	Alert           *bool             `toml:"alert,omitempty"`
	AlertInterval   *Duration         `toml:"alert_interval,omitempty"`
	AlertCommand    []string          `toml:"alert_command,omitempty"`
}

var kindDefaults = map[string]Widget{
	KindBattery: {
		Source:        "sysfs",
		Watcher:       "udev",
		MaxLevel:      100,
		Critical:      25,
		ShowIcon:      true,
		Alert:         true,
		AlertInterval: 5 * time.Minute,
		AlertCommand:  []string{"notify-send"},
	},
	KindVolume: {
		Source:   "wpctl",
		Watcher:  "subscribe",
		Step:     5,
		MaxLevel: 100,
		ShowIcon: true,
	},
	KindMic: {
		Source:   "wpctl",
		Watcher:  "subscribe",
		Step:     5,
		MaxLevel: 100,
		ShowIcon: true,
	},
	KindBrightness: {
		Source:   "brightnessctl",
		Watcher:  "file",
		Step:     5,
		MinLevel: 1,
		MaxLevel: 100,
		ShowIcon: true,
	},
}

// Resolve applies the kind's defaults. It fails on a missing name or an
// unknown kind.
func (r RawWidget) Resolve() (Widget, error) {
	name := ptr.Deref(r.Name, "")
	if name == "" {
		return Widget{}, pkgerrors.New("widget has no name")
	}
	kind := ptr.Deref(r.Kind, name)
	d, ok := kindDefaults[kind]
	if !ok {
		return Widget{}, pkgerrors.Errorf("widget %s: unknown kind %q", name, kind)
	}

	w := Widget{
		Name:      name,
		Kind:      kind,
		Source:    ptr.Deref(r.Source, d.Source),
		Watcher:   ptr.Deref(r.Watcher, d.Watcher),
		Device:    ptr.Deref(r.Device, ""),
		SysfsRoot: ptr.Deref(r.SysfsRoot, ""),
		Step:      ptr.Deref(r.Step, d.Step),
		MinLevel:  ptr.Deref(r.MinLevel, d.MinLevel),
		MaxLevel:  ptr.Deref(r.MaxLevel, d.MaxLevel),
		Critical:  ptr.Deref(r.Critical, d.Critical),
		Fallback:  ptr.Deref(r.Fallback, ""),
		ShowIcon:  ptr.Deref(r.ShowIcon, d.ShowIcon),
		ShowTime:  ptr.Deref(r.ShowTime, d.ShowTime),
		Colors:    r.Colors,
		Alert:     ptr.Deref(r.Alert, d.Alert),

		AlertInterval: d.AlertInterval,
		AlertCommand:  d.AlertCommand,
	}
	if r.Debounce != nil {
		w.Debounce = r.Debounce.Duration
	}
	if r.CommandDebounce != nil {
		w.CommandDebounce = r.CommandDebounce.Duration
	}
	if r.DebounceMaxWait != nil {
		w.DebounceMaxWait = r.DebounceMaxWait.Duration
	}
	if r.AlertInterval != nil {
		w.AlertInterval = r.AlertInterval.Duration
	}
	if len(r.AlertCommand) > 0 {
		w.AlertCommand = r.AlertCommand
	}

	// Audio can be amplified, but not below half or past 150%.
	if kind == KindVolume || kind == KindMic {
		w.MaxLevel = max(50, min(w.MaxLevel, 150))
	}
	return w, nil
}
