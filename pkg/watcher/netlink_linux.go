package watcher

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// pollTimeout bounds each wait on the socket so cancellation is noticed.
const pollTimeout = time.Second

// NetlinkMonitor reads raw kernel uevents from a NETLINK_KOBJECT_UEVENT
// socket. It needs no libudev.
type NetlinkMonitor struct{}

var _ Monitor = NetlinkMonitor{}

func (NetlinkMonitor) Listen(ctx context.Context, subsystem string, ready func(), handle func(Uevent)) error {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to open uevent socket")
	}
	defer unix.Close(fd)

	// Group 1 carries the kernel broadcast.
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: 1}); err != nil {
		return pkgerrors.Wrap(err, "failed to bind uevent socket")
	}
	ready()

	buf := make([]byte, 64*1024)
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.Poll(fds, int(pollTimeout.Milliseconds()))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return pkgerrors.Wrap(err, "poll on uevent socket")
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
			return ErrDisconnected
		}

		m, _, err := unix.Recvfrom(fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			// ENOBUFS means the kernel dropped events. Resync by reconnecting.
			return pkgerrors.Wrap(err, "recv on uevent socket")
		}

		ev, ok := ParseUevent(buf[:m])
		if !ok || ev.Subsystem != subsystem {
			continue
		}
		handle(ev)
	}
}

// ParseUevent decodes a kernel uevent datagram:
//
//	change@/devices/.../power_supply/BAT0\0ACTION=change\0SUBSYSTEM=power_supply\0...
//
// Messages re-broadcast by udevd start with "libudev" and are ignored.
func ParseUevent(msg []byte) (Uevent, bool) {
	if bytes.HasPrefix(msg, []byte("libudev")) {
		return Uevent{}, false
	}
	parts := bytes.Split(msg, []byte{0})
	if len(parts) == 0 || !bytes.Contains(parts[0], []byte("@")) {
		return Uevent{}, false
	}

	ev := Uevent{Props: make(map[string]string, len(parts))}
	action, devpath, _ := strings.Cut(string(parts[0]), "@")
	ev.Action = action
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(string(p), "=")
		if !ok {
			continue
		}
		ev.Props[k] = v
	}
	if a := ev.Props["ACTION"]; a != "" {
		ev.Action = a
	}
	ev.Subsystem = ev.Props["SUBSYSTEM"]
	ev.Name = ev.Props["POWER_SUPPLY_NAME"]
	if ev.Name == "" {
		ev.Name = path.Base(devpath)
	}
	return ev, true
}
