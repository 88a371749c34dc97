package control

import (
	"context"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/devstat/devstat/pkg/runner"
)

// Brightnessctl drives a backlight or LED through brightnessctl.
type Brightnessctl struct {
	Runner runner.Runner
	// Device is passed with -d when set.
	Device string
	// MinLevel keeps the screen from going fully dark.
	MinLevel int
	Timeout  time.Duration
}

var _ Controller = &Brightnessctl{}

func NewBrightnessctl(r runner.Runner, device string, minLevel int) *Brightnessctl {
	if r == nil {
		r = runner.Default
	}
	return &Brightnessctl{
		Runner:   r,
		Device:   device,
		MinLevel: max(1, min(minLevel, 100)),
		Timeout:  runner.DefaultTimeout,
	}
}

// Argv prefixes args with the brightnessctl invocation for the device.
func (b *Brightnessctl) Argv(args ...string) []string {
	argv := []string{"brightnessctl"}
	if b.Device != "" {
		argv = append(argv, "-d", b.Device)
	}
	return append(argv, args...)
}

func (b *Brightnessctl) SetLevel(ctx context.Context, level int) error {
	level = max(b.MinLevel, min(level, 100))
	if _, err := b.Runner.Run(ctx, b.Argv("set", strconv.Itoa(level)+"%"), b.Timeout); err != nil {
		return pkgerrors.Wrapf(err, "failed to set brightness to %d%%", level)
	}
	return nil
}

func (b *Brightnessctl) SetMute(context.Context, MuteAction) error {
	return ErrUnsupported
}
