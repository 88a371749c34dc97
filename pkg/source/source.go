// Package source reads raw device state from the kernel or from external
// tools and normalizes it into a types.DeviceReading.
package source

import (
	"context"
	"errors"

	"github.com/devstat/devstat/pkg/types"
)

var (
	// ErrUnavailable means the source can never produce a reading, e.g. no
	// battery directory exists at all.
	ErrUnavailable = errors.New("device unavailable")

	// ErrReadTransient wraps a failed read that may succeed next time.
	ErrReadTransient = errors.New("transient read failure")
)

// Source produces a fresh reading on every call. Implementations never
// cache and never panic on malformed input; fields they cannot read are
// reported as unknown.
type Source interface {
	Read(ctx context.Context) (types.DeviceReading, error)
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context) (types.DeviceReading, error)

func (f Func) Read(ctx context.Context) (types.DeviceReading, error) { return f(ctx) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
