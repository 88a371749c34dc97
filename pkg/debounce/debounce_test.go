package debounce

import (
	"testing"
	"time"
)

func TestBurstFiresOnce(t *testing.T) {
	d := New(200*time.Millisecond, 0)

	var last time.Time
	for i := 0; i < 5; i++ {
		d.Signal()
		last = time.Now()
		time.Sleep(10 * time.Millisecond)
	}

	fires := 0
	var firedAt time.Time
	timeout := time.After(700 * time.Millisecond)
loop:
	for {
		select {
		case <-d.C():
			d.Fire()
			fires++
			firedAt = time.Now()
		case <-timeout:
			break loop
		}
	}

	if fires != 1 {
		t.Fatalf("fires = %d, want 1", fires)
	}
	if gap := firedAt.Sub(last); gap < 190*time.Millisecond {
		t.Errorf("fired %v after the last signal, want at least the window", gap)
	}
}

func TestMaxWaitBoundsStarvation(t *testing.T) {
	d := New(50*time.Millisecond, 150*time.Millisecond)

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	stopSignals := time.After(500 * time.Millisecond)
	timeout := time.After(800 * time.Millisecond)

	fires := 0
	signalling := true
loop:
	for {
		select {
		case <-tick.C:
			if signalling {
				d.Signal()
			}
		case <-stopSignals:
			signalling = false
		case <-d.C():
			d.Fire()
			fires++
		case <-timeout:
			break loop
		}
	}

	// 500ms of continuous signals with a 150ms cap must fire during the
	// stream, plus once more for the trailing edge.
	if fires < 3 {
		t.Errorf("fires = %d, want at least 3", fires)
	}
}

func TestLongBurstFiresOnceAtTrailingEdge(t *testing.T) {
	d := New(200*time.Millisecond, 0)

	// 15 signals 100ms apart: far longer than any multiple of the window
	// that could be mistaken for a quiet period.
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	var fires []time.Time
	var last time.Time
	sent := 0
	timeout := time.After(2500 * time.Millisecond)
loop:
	for {
		select {
		case <-tick.C:
			if sent < 15 {
				d.Signal()
				last = time.Now()
				sent++
			}
		case <-d.C():
			d.Fire()
			fires = append(fires, time.Now())
		case <-timeout:
			break loop
		}
	}

	if len(fires) != 1 {
		t.Fatalf("fires = %d, want 1", len(fires))
	}
	if gap := fires[0].Sub(last); gap < 190*time.Millisecond || gap > 400*time.Millisecond {
		t.Errorf("fired %v after the last signal, want about the window", gap)
	}
}

func TestNoMaxWaitStarves(t *testing.T) {
	d := New(50*time.Millisecond, 0)

	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(300 * time.Millisecond)

loop:
	for {
		select {
		case <-tick.C:
			d.Signal()
		case <-d.C():
			t.Fatalf("fired during a continuous stream with max wait disabled")
		case <-timeout:
			break loop
		}
	}
	d.Stop()
}

func TestStopAndPending(t *testing.T) {
	d := New(20*time.Millisecond, 0)
	if d.Pending() || d.C() != nil {
		t.Fatalf("new debouncer should be idle")
	}

	d.Signal()
	if !d.Pending() {
		t.Fatalf("Pending() = false after Signal")
	}

	d.Stop()
	if d.Pending() || d.C() != nil {
		t.Fatalf("Stop() should clear the pending call")
	}

	select {
	case <-time.After(60 * time.Millisecond):
	case <-d.C():
		t.Fatalf("stopped debouncer fired")
	}

	if d.Window() != 20*time.Millisecond {
		t.Errorf("Window() = %v", d.Window())
	}
}
