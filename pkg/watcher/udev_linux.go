//go:build linux && cgo

package watcher

import (
	"context"
	"path/filepath"

	"github.com/jochenvg/go-udev"
	pkgerrors "github.com/pkg/errors"
)

// UdevMonitor receives events from udevd through libudev, after udev rules
// have run.
type UdevMonitor struct{}

var _ Monitor = UdevMonitor{}

// device is the part of *udev.Device we use.
type device interface {
	Syspath() string
	Action() string
	Properties() map[string]string
	PropertyValue(string) string
}

func (UdevMonitor) Listen(ctx context.Context, subsystem string, ready func(), handle func(Uevent)) error {
	u := udev.Udev{}
	m := u.NewMonitorFromNetlink("udev")
	if m == nil {
		return pkgerrors.New("failed to create udev monitor")
	}
	if err := m.FilterAddMatchSubsystem(subsystem); err != nil {
		return pkgerrors.Wrapf(err, "failed to filter subsystem %s", subsystem)
	}

	done := make(chan struct{})
	defer close(done)

	ch, err := m.DeviceChan(done)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to start udev monitor")
	}
	ready()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-ch:
			if !ok {
				return ErrDisconnected
			}
			if d == nil {
				continue
			}
			handle(toUevent(d))
		}
	}
}

func toUevent(d device) Uevent {
	name := d.PropertyValue("POWER_SUPPLY_NAME")
	if name == "" {
		name = filepath.Base(d.Syspath())
	}
	return Uevent{
		Action:    d.Action(),
		Subsystem: d.PropertyValue("SUBSYSTEM"),
		Name:      name,
		Props:     d.Properties(),
	}
}
