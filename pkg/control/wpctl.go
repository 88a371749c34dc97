package control

import (
	"context"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/devstat/devstat/pkg/runner"
)

// Wpctl drives a PipeWire node through wpctl.
type Wpctl struct {
	Runner  runner.Runner
	Device  *DeviceRef
	Timeout time.Duration
}

var _ Controller = &Wpctl{}

func NewWpctl(r runner.Runner, device *DeviceRef) *Wpctl {
	if r == nil {
		r = runner.Default
	}
	return &Wpctl{Runner: r, Device: device, Timeout: runner.DefaultTimeout}
}

func (w *Wpctl) SetLevel(ctx context.Context, level int) error {
	argv := []string{"wpctl", "set-volume", w.Device.Get(), strconv.Itoa(level) + "%"}
	if _, err := w.Runner.Run(ctx, argv, w.Timeout); err != nil {
		return pkgerrors.Wrapf(err, "failed to set volume of %s to %d%%", w.Device.Get(), level)
	}
	return nil
}

func (w *Wpctl) SetMute(ctx context.Context, action MuteAction) error {
	argv := []string{"wpctl", "set-mute", w.Device.Get(), string(action)}
	if _, err := w.Runner.Run(ctx, argv, w.Timeout); err != nil {
		return pkgerrors.Wrapf(err, "failed to set mute of %s to %s", w.Device.Get(), action)
	}
	return nil
}
