package watcher

import (
	"context"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	upowerName       = "org.freedesktop.UPower"
	upowerPath       = "/org/freedesktop/UPower"
	propertiesSignal = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

// DBusWatcher signals on UPower property changes on the system bus.
type DBusWatcher struct {
	supervisor
	connect func() (*dbus.Conn, error)
}

var _ Watcher = &DBusWatcher{}

func NewDBusWatcher(name string, backoff time.Duration) *DBusWatcher {
	return &DBusWatcher{
		supervisor: supervisor{name: name, backoff: backoff},
		connect:    func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() },
	}
}

func (w *DBusWatcher) Run(ctx context.Context, signals chan<- struct{}) {
	w.onListening = func(_ context.Context, attempt int) {
		if attempt > 0 {
			Notify(signals)
		}
	}
	w.run(ctx, func(ctx context.Context, ready func()) error {
		return w.session(ctx, ready, signals)
	})
}

func (w *DBusWatcher) session(ctx context.Context, ready func(), signals chan<- struct{}) error {
	conn, err := w.connect()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to connect to system bus")
	}
	defer conn.Close()

	rule := "type='signal',sender='" + upowerName + "',interface='org.freedesktop.DBus.Properties',member='PropertiesChanged'"
	if call := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule); call.Err != nil {
		return pkgerrors.Wrap(call.Err, "failed to add UPower match")
	}

	ch := make(chan *dbus.Signal, 16)
	conn.Signal(ch)
	defer conn.RemoveSignal(ch)
	ready()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return ErrDisconnected
			}
			if !relevantSignal(sig) {
				continue
			}
			logrus.WithFields(logrus.Fields{
				"watcher": w.name,
				"path":    sig.Path,
			}).Trace("upower signal")
			Notify(signals)
		}
	}
}

func relevantSignal(sig *dbus.Signal) bool {
	return sig != nil &&
		sig.Name == propertiesSignal &&
		strings.HasPrefix(string(sig.Path), upowerPath)
}
