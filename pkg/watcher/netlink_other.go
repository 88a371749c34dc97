//go:build !linux

package watcher

import "context"

// NetlinkMonitor is only available on Linux.
type NetlinkMonitor struct{}

func (NetlinkMonitor) Listen(context.Context, string, func(), func(Uevent)) error {
	return ErrUnsupported
}
