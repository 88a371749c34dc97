// Package widget builds monitor engines from configuration sections.
package widget

import (
	"context"
	"os"
	"path/filepath"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/devstat/devstat/pkg/alert"
	"github.com/devstat/devstat/pkg/classify"
	"github.com/devstat/devstat/pkg/config"
	"github.com/devstat/devstat/pkg/control"
	"github.com/devstat/devstat/pkg/monitor"
	"github.com/devstat/devstat/pkg/runner"
	"github.com/devstat/devstat/pkg/source"
	"github.com/devstat/devstat/pkg/watcher"
)

// DefaultBacklightRoot is where backlight devices live in sysfs.
const DefaultBacklightRoot = "/sys/class/backlight"

var audioKeywords = []string{"default-node", "volume", "mute"}

// Builder wires sources, watchers and controllers for widget sections.
// The zero value uses the real system.
type Builder struct {
	Runner runner.Runner
	// Require checks that a binary is installed. Defaults to runner.Require.
	Require func(name string) (string, error)
	// BacklightRoot defaults to DefaultBacklightRoot.
	BacklightRoot string
	Backoff       time.Duration
}

// parts is what a kind contributes to an engine.
type parts struct {
	src     source.Source
	watcher watcher.Watcher
	ctrl    control.Controller
	resolve func(ctx context.Context)
	alerter alert.Alerter
}

// Build returns an engine for w. Missing binaries are fatal here, so a
// widget never starts half working. opts are appended after the wiring
// done by Build.
func (b Builder) Build(w config.Widget, opts ...monitor.Option) (*monitor.Engine, error) {
	if b.Runner == nil {
		b.Runner = runner.Default
	}
	if b.Require == nil {
		b.Require = runner.Require
	}
	if b.BacklightRoot == "" {
		b.BacklightRoot = DefaultBacklightRoot
	}

	profile, err := classify.ProfileFor(w.Kind)
	if err != nil {
		return nil, err
	}
	profile = profile.Remap(w.Colors)
	profile.ShowIcon = w.ShowIcon
	profile.ShowTime = w.ShowTime

	var p parts
	switch w.Kind {
	case config.KindBattery:
		p, err = b.battery(w)
	case config.KindVolume, config.KindMic:
		p, err = b.audio(w, w.Kind == config.KindMic)
	case config.KindBrightness:
		p, err = b.brightness(w)
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "widget %s", w.Name)
	}

	cfg := monitor.Config{
		Name:            w.Name,
		Step:            w.Step,
		MinLevel:        w.MinLevel,
		MaxLevel:        w.MaxLevel,
		Critical:        w.Critical,
		Debounce:        w.Debounce,
		CommandDebounce: w.CommandDebounce,
		DebounceMaxWait: w.DebounceMaxWait,
		Fallback:        w.Fallback,
	}

	all := []monitor.Option{monitor.WithWatcher(p.watcher)}
	if p.ctrl != nil {
		all = append(all, monitor.WithController(p.ctrl))
	}
	if p.resolve != nil {
		all = append(all, monitor.WithResolver(p.resolve))
	}
	if p.alerter != nil {
		all = append(all, monitor.WithAlerter(p.alerter))
	}
	all = append(all, opts...)

	e, err := monitor.New(cfg, p.src, profile, all...)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "widget %s", w.Name)
	}
	return e, nil
}

func (b Builder) battery(w config.Widget) (parts, error) {
	var p parts
	var tracked []string

	switch w.Source {
	case "sysfs":
		s := source.NewSysfsSource(w.SysfsRoot, w.Device)
		tracked = s.Tracked()
		p.src = s
	case "acpi":
		if _, err := b.Require("acpi"); err != nil {
			return p, err
		}
		p.src = source.NewLineSource(b.Runner, source.StaticArgv("acpi", "-b"), runner.DefaultTimeout, source.ParseBatteryLine)
	case "battery-lib":
		p.src = source.NewBatteryLibSource()
	default:
		return p, pkgerrors.Errorf("unknown battery source %q", w.Source)
	}

	switch w.Watcher {
	case "udev":
		p.watcher = watcher.NewKernelWatcher("udev", watcher.UdevMonitor{}, tracked, b.Backoff)
	case "netlink":
		p.watcher = watcher.NewKernelWatcher("netlink", watcher.NetlinkMonitor{}, tracked, b.Backoff)
	case "dbus":
		p.watcher = watcher.NewDBusWatcher("upower", b.Backoff)
	case "subscribe":
		if _, err := b.Require("upower"); err != nil {
			return p, err
		}
		p.watcher = watcher.NewStreamWatcher("upower", []string{"upower", "--monitor"}, nil, b.Backoff)
	case "none":
		p.watcher = watcher.None{}
	default:
		return p, pkgerrors.Errorf("unknown battery watcher %q", w.Watcher)
	}

	if w.Alert {
		p.alerter = alert.NewLowBattery(w.AlertCommand, w.AlertInterval)
	}
	return p, nil
}

func (b Builder) audio(w config.Widget, input bool) (parts, error) {
	var p parts
	if w.Source != "wpctl" {
		return p, pkgerrors.Errorf("unknown audio source %q", w.Source)
	}
	if _, err := b.Require("wpctl"); err != nil {
		return p, err
	}

	fallback := source.DefaultAudioSink
	if input {
		fallback = source.DefaultAudioSource
	}
	device := control.NewDeviceRef(fallback)
	if w.Device != "" {
		device.Set(w.Device)
	} else {
		p.resolve = func(ctx context.Context) {
			device.Set(source.ResolveDefaultAudioDevice(ctx, b.Runner, input))
		}
	}

	p.src = source.NewLineSource(b.Runner, func() []string {
		return []string{"wpctl", "get-volume", device.Get()}
	}, runner.DefaultTimeout, source.ParseVolumeLine)
	p.ctrl = control.NewWpctl(b.Runner, device)

	switch w.Watcher {
	case "subscribe":
		sw := watcher.NewStreamWatcher("wpctl", []string{"wpctl", "subscribe"}, audioKeywords, b.Backoff)
		// The default node may have changed while the stream was down.
		sw.OnReconnect = p.resolve
		p.watcher = sw
	case "none":
		p.watcher = watcher.None{}
	default:
		return p, pkgerrors.Errorf("unknown audio watcher %q", w.Watcher)
	}
	return p, nil
}

func (b Builder) brightness(w config.Widget) (parts, error) {
	var p parts
	if w.Source != "brightnessctl" {
		return p, pkgerrors.Errorf("unknown brightness source %q", w.Source)
	}
	if _, err := b.Require("brightnessctl"); err != nil {
		return p, err
	}

	ctrl := control.NewBrightnessctl(b.Runner, w.Device, w.MinLevel)
	p.ctrl = ctrl
	p.src = source.NewLineSource(b.Runner, source.StaticArgv(ctrl.Argv("-m", "info")...), runner.DefaultTimeout, source.ParseBrightnessLine)

	switch w.Watcher {
	case "file":
		p.watcher = watcher.NewFileWatcher("backlight", b.backlightFiles(w.Device), b.Backoff)
	case "none":
		p.watcher = watcher.None{}
	default:
		return p, pkgerrors.Errorf("unknown brightness watcher %q", w.Watcher)
	}
	return p, nil
}

// backlightFiles lists the brightness files to watch: the named device's,
// or every backlight's.
func (b Builder) backlightFiles(device string) []string {
	if device != "" {
		return []string{filepath.Join(b.BacklightRoot, device, "brightness")}
	}
	entries, _ := os.ReadDir(b.BacklightRoot)
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		files = append(files, filepath.Join(b.BacklightRoot, e.Name(), "brightness"))
	}
	return files
}
