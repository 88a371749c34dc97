package client

import "errors"

var (
	// ErrDaemonNotRunning is returned when nothing listens on the socket
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the socket belongs to another user
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when the daemon has no such widget or route
	ErrNotFound = errors.New("404 not found")

	// ErrWidgetStopped is returned when the widget is shutting down, e.g. during a reload
	ErrWidgetStopped = errors.New("widget stopped")

	// ErrBusy is returned when the widget has too many queued commands
	ErrBusy = errors.New("widget busy")
)
