package monitor

import (
	"testing"
	"time"
)

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "defaults",
			in:   Config{},
			want: Config{Step: 5, MaxLevel: 100, Debounce: DefaultDebounce, CommandDebounce: DefaultCommandDebounce, Fallback: DefaultFallback, ShutdownTimeout: DefaultShutdownTimeout},
		},
		{
			name: "clamped",
			in:   Config{Step: 90, MinLevel: 200, MaxLevel: 400, Critical: 300, Fallback: "-"},
			want: Config{Step: 25, MinLevel: 150, MaxLevel: 150, Critical: 100, Debounce: DefaultDebounce, CommandDebounce: DefaultCommandDebounce, Fallback: "-", ShutdownTimeout: DefaultShutdownTimeout},
		},
		{
			name: "min above max",
			in:   Config{Step: -3, MinLevel: 80, MaxLevel: 60, Debounce: time.Second, Fallback: "*/30 * * * * *"},
			want: Config{Step: 1, MinLevel: 60, MaxLevel: 60, Debounce: time.Second, CommandDebounce: DefaultCommandDebounce, Fallback: "*/30 * * * * *", ShutdownTimeout: DefaultShutdownTimeout},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := tt.in.normalize()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfigSchedule(t *testing.T) {
	_, sched, err := Config{}.normalize()
	if err != nil || sched == nil {
		t.Fatalf("default fallback: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if next := sched.Next(now); next.Sub(now) != time.Minute {
		t.Errorf("next fallback in %v, want 1m", next.Sub(now))
	}

	_, sched, _ = Config{Fallback: "-"}.normalize()
	if sched != nil {
		t.Errorf("disabled fallback returned a schedule")
	}

	if _, _, err := (Config{Fallback: "every minute"}).normalize(); err == nil {
		t.Errorf("bad schedule accepted")
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(3)
	if !r.Last().IsZero() {
		t.Errorf("Last() on empty recorder should be zero")
	}
	now := time.Now()
	r.AddRecord(now.Add(-2 * time.Hour))
	r.AddRecord(now.Add(-time.Hour))
	r.AddRecord(now.Add(-time.Second))
	r.AddRecordNow()

	if n := len(r.Records()); n != 3 {
		t.Errorf("len(Records()) = %d, want 3", n)
	}
	if got := r.CountIn(time.Minute); got != 2 {
		t.Errorf("CountIn(1m) = %d, want 2", got)
	}
	r.Clear()
	if len(r.Records()) != 0 {
		t.Errorf("Clear() left records")
	}
}
