//go:build !linux || !cgo

package watcher

import "context"

// UdevMonitor needs libudev through cgo.
type UdevMonitor struct{}

func (UdevMonitor) Listen(context.Context, string, func(), func(Uevent)) error {
	return ErrUnsupported
}
