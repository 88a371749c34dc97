package monitor

import (
	"sync"
	"time"
)

// Recorder keeps the times of the last N recomputes of an engine.
type Recorder struct {
	MaxRecordCount int

	mu      sync.Mutex
	records []time.Time
}

func NewRecorder(maxRecordCount int) *Recorder {
	return &Recorder{
		MaxRecordCount: maxRecordCount,
		records:        make([]time.Time, 0, maxRecordCount),
	}
}

// AddRecord adds a new record.
func (r *Recorder) AddRecord(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip the monotonic reading so durations stay right across suspend.
	t = t.Round(0)

	if len(r.records) >= r.MaxRecordCount {
		r.records = r.records[1:]
	}
	r.records = append(r.records, t)
}

// AddRecordNow adds a new record with the current time.
func (r *Recorder) AddRecordNow() {
	r.AddRecord(time.Now())
}

// Records returns a copy of the records, oldest first.
func (r *Recorder) Records() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]time.Time(nil), r.records...)
}

// Last returns the newest record, or the zero time.
func (r *Recorder) Last() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) == 0 {
		return time.Time{}
	}
	return r.records[len(r.records)-1]
}

// CountIn returns how many records fall within the last d.
func (r *Recorder) CountIn(d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for i := len(r.records) - 1; i >= 0; i-- {
		if time.Since(r.records[i]) > d {
			break
		}
		count++
	}
	return count
}

// Clear removes all records.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = r.records[:0]
}
