// Package debounce coalesces bursts of signals into a single trailing call.
//
// A Debouncer is owned by one goroutine, which calls Signal, selects on C
// and calls Fire after receiving from it. It is not safe for concurrent use.
package debounce

import "time"

type Debouncer struct {
	window  time.Duration
	maxWait time.Duration

	timer   *time.Timer
	pending bool
	first   time.Time
}

// New returns a trailing-edge debouncer. A burst fires once, window after
// the last signal. A positive maxWait bounds how long a continuous stream
// can delay the call; zero or less leaves bursts unbounded.
func New(window, maxWait time.Duration) *Debouncer {
	if window <= 0 {
		window = time.Millisecond
	}
	return &Debouncer{window: window, maxWait: max(maxWait, 0)}
}

// Signal records an event and re-arms the timer.
func (d *Debouncer) Signal() {
	now := time.Now()
	if !d.pending {
		d.pending = true
		d.first = now
	}

	wait := d.window
	if d.maxWait > 0 {
		if left := d.first.Add(d.maxWait).Sub(now); left < wait {
			wait = max(left, 0)
		}
	}

	if d.timer == nil {
		d.timer = time.NewTimer(wait)
		return
	}
	if !d.timer.Stop() {
		// drop a fire from the previous burst that was never received
		select {
		case <-d.timer.C:
		default:
		}
	}
	d.timer.Reset(wait)
}

// C fires when the pending burst should be handled. It is nil while
// nothing is pending, so it can sit in a select unconditionally.
func (d *Debouncer) C() <-chan time.Time {
	if !d.pending || d.timer == nil {
		return nil
	}
	return d.timer.C
}

// Fire clears the pending state. Call it after receiving from C.
func (d *Debouncer) Fire() {
	d.pending = false
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	return d.pending
}

// Window returns the quiet period.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}
