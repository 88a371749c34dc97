package events

import (
	"encoding/json"

	"github.com/devstat/devstat/pkg/types"
)

// Event name constants
const (
	DisplayUpdate = "display.update"
	WatcherState  = "watcher.state"
	CommandFailed = "command.failed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// DisplayUpdateEvent is the typed payload for display.update.
type DisplayUpdateEvent struct {
	Widget string             `json:"widget"`
	State  types.DisplayState `json:"state"`
	Ts     int64              `json:"ts"`
}

// WatcherStateEvent is the typed payload for watcher.state.
type WatcherStateEvent struct {
	Widget  string `json:"widget"`
	Watcher string `json:"watcher"`
	State   string `json:"state"`
	Ts      int64  `json:"ts"`
}

// CommandFailedEvent is the typed payload for command.failed.
type CommandFailedEvent struct {
	Widget  string `json:"widget"`
	Command string `json:"command"`
	Error   string `json:"error"`
	Ts      int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.DisplayUpdateEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Widget, payload.State.Text)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
