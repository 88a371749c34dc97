// Package control changes device levels through external control binaries.
package control

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrUnsupported is returned by controllers for operations their device
// does not have, such as muting a backlight.
var ErrUnsupported = errors.New("operation not supported by this device")

// MuteAction is the argument of a mute command.
type MuteAction string

const (
	MuteOn     MuteAction = "1"
	MuteOff    MuteAction = "0"
	MuteToggle MuteAction = "toggle"
)

// Controller applies commands to a device. Implementations do not clamp;
// callers pass an already clamped level.
type Controller interface {
	SetLevel(ctx context.Context, level int) error
	SetMute(ctx context.Context, action MuteAction) error
}

// DeviceRef holds a device id that may be re-resolved while readers and
// controllers are using it.
type DeviceRef struct {
	v atomic.Pointer[string]
}

func NewDeviceRef(id string) *DeviceRef {
	d := &DeviceRef{}
	d.Set(id)
	return d
}

func (d *DeviceRef) Get() string {
	if p := d.v.Load(); p != nil {
		return *p
	}
	return ""
}

func (d *DeviceRef) Set(id string) {
	d.v.Store(&id)
}
