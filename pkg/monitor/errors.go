package monitor

import "errors"

var (
	// ErrStopped is returned by commands sent to a stopped engine.
	ErrStopped = errors.New("engine is stopped")

	// ErrCommandFailed wraps a controller error. The display is left as is.
	ErrCommandFailed = errors.New("command failed")

	// ErrShutdownTimeout is logged when goroutines outlive Stop's deadline.
	ErrShutdownTimeout = errors.New("shutdown timed out")

	// ErrQueueFull is returned when commands arrive faster than they run.
	ErrQueueFull = errors.New("command queue is full")

	// ErrNoController is returned for level commands on read-only widgets.
	ErrNoController = errors.New("widget has no controller")

	// ErrNoLevel is returned when a relative change has nothing to start from.
	ErrNoLevel = errors.New("current level is unavailable")
)
