package events

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devstat/devstat/pkg/types"
)

type recordingSink struct {
	mu      sync.Mutex
	updates []Update
}

func (s *recordingSink) Update(u Update) {
	s.mu.Lock()
	s.updates = append(s.updates, u)
	s.mu.Unlock()
}

func (s *recordingSink) snapshot() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Update(nil), s.updates...)
}

func TestPublisherLatestWins(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(nil, sink)

	// Nothing runs the UI loop yet, so these all land in the mailbox.
	for i := 0; i < 5; i++ {
		p.Publish("volume", types.DisplayState{Level: i})
	}
	p.Publish("battery", types.DisplayState{Level: 80})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for len(sink.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	got := sink.snapshot()
	if len(got) != 2 {
		t.Fatalf("got %d updates, want 2: %+v", len(got), got)
	}
	if got[0].Widget != "volume" || got[0].State.Level != 4 {
		t.Errorf("first update = %+v, want latest volume", got[0])
	}
	if got[1].Widget != "battery" {
		t.Errorf("second update = %+v", got[1])
	}
}

func TestPublisherForwardsToHub(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe(DisplayUpdate)
	p := NewPublisher(h)

	p.Publish("battery", types.DisplayState{Text: "x", Tag: types.TagLevel})

	select {
	case ev := <-ch:
		got, err := DecodeAs[DisplayUpdateEvent](ev)
		if err != nil {
			t.Fatal(err)
		}
		if got.Widget != "battery" || got.State.Text != "x" {
			t.Errorf("event = %+v", got)
		}
	default:
		t.Fatalf("no display.update event")
	}
}

func TestPublisherRecoversSinkPanic(t *testing.T) {
	good := &recordingSink{}
	p := NewPublisher(nil, SinkFunc(func(Update) { panic("boom") }), good)
	p.Publish("battery", types.DisplayState{})
	p.flush()
	if len(good.snapshot()) != 1 {
		t.Errorf("sink after a panicking one did not receive the update")
	}
}

func TestLineSink(t *testing.T) {
	var buf bytes.Buffer
	u := Update{Widget: "battery", State: types.DisplayState{Icon: "󰂀", Value: "73%", Text: `<span foreground="khaki">󰂀  73%</span>`}}

	NewLineSink(&buf, true).Update(u)
	NewLineSink(&buf, false).Update(u)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != u.State.Text {
		t.Errorf("markup line = %q", lines[0])
	}
	if lines[1] != "󰂀  73%" {
		t.Errorf("plain line = %q", lines[1])
	}
}

func TestLineSinkPlainFollowsProfile(t *testing.T) {
	var buf bytes.Buffer
	// icon hidden and remaining time shown
	u := Update{Widget: "battery", State: types.DisplayState{
		Icon:      "󰂀",
		Value:     "73%",
		Text:      `<span foreground="khaki">73% (1h 45m)</span>`,
		PlainText: "73% (1h 45m)",
	}}

	NewLineSink(&buf, false).Update(u)
	if got := strings.TrimSpace(buf.String()); got != "73% (1h 45m)" {
		t.Errorf("plain line = %q, want %q", got, "73% (1h 45m)")
	}
}

func TestI3barSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewI3barSink(&buf)
	s.Update(Update{Widget: "battery", State: types.DisplayState{Text: "a"}})
	s.Update(Update{Widget: "volume", State: types.DisplayState{Text: "b"}})
	s.Update(Update{Widget: "battery", State: types.DisplayState{Text: "c", Severity: types.SeverityHardCritical}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != `{"version":1}` || lines[1] != "[" {
		t.Errorf("header = %q", lines[:2])
	}
	want := `[{"name":"battery","full_text":"c","markup":"pango","urgent":true},{"name":"volume","full_text":"b","markup":"pango"}],`
	if lines[4] != want {
		t.Errorf("last line = %q, want %q", lines[4], want)
	}
}
