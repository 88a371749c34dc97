package gui

import (
	"fmt"

	"github.com/devstat/devstat/pkg/events"
	"github.com/devstat/devstat/pkg/types"
)

// trayTitle is the plain text shown next to the tray icon. Trays do not
// render pango markup.
func trayTitle(widget string, st types.DisplayState) string {
	if st.IsZero() {
		return titleLoading
	}
	return events.Plain(events.Update{Widget: widget, State: st})
}

func statusLine(st types.DisplayState) string {
	switch st.Tag {
	case "":
		return "Status: Connecting..."
	case types.TagUnavailable:
		return "Status: Unavailable"
	}

	line := fmt.Sprintf("Status: %s", st.Status)
	if st.Severity != types.SeverityNormal && st.Severity != "" {
		line += fmt.Sprintf(" (%s)", st.Severity)
	}
	return line
}

func commandFailedTooltip(ev events.CommandFailedEvent) string {
	return fmt.Sprintf("%s: %s failed: %s", ev.Widget, ev.Command, ev.Error)
}
