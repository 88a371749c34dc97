package events

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/devstat/devstat/pkg/types"
)

// LineSink writes one line per update, for bars that read a process's
// stdout (polybar, waybar custom modules, lemonbar).
type LineSink struct {
	w      io.Writer
	markup bool
}

func NewLineSink(w io.Writer, markup bool) *LineSink {
	return &LineSink{w: w, markup: markup}
}

func (s *LineSink) Update(u Update) {
	if s.markup {
		fmt.Fprintln(s.w, u.State.Text)
		return
	}
	fmt.Fprintln(s.w, Plain(u))
}

// Plain renders an update without markup. States built by the classifier
// carry their own plain text; others fall back to icon and value.
func Plain(u Update) string {
	if u.State.PlainText != "" {
		return u.State.PlainText
	}
	if u.State.Icon == "" {
		return u.State.Value
	}
	return u.State.Icon + "  " + u.State.Value
}

type i3Block struct {
	Name     string `json:"name"`
	FullText string `json:"full_text"`
	Markup   string `json:"markup"`
	Urgent   bool   `json:"urgent,omitempty"`
}

// I3barSink speaks the i3bar JSON protocol. Every update rewrites the full
// status line with the latest block of each widget.
type I3barSink struct {
	w       io.Writer
	once    sync.Once
	blocks  map[string]i3Block
	widgets []string
}

func NewI3barSink(w io.Writer) *I3barSink {
	return &I3barSink{w: w, blocks: make(map[string]i3Block)}
}

func (s *I3barSink) Update(u Update) {
	s.once.Do(func() {
		fmt.Fprintln(s.w, `{"version":1}`)
		fmt.Fprintln(s.w, "[")
	})

	if !slices.Contains(s.widgets, u.Widget) {
		s.widgets = append(s.widgets, u.Widget)
	}
	s.blocks[u.Widget] = i3Block{
		Name:     u.Widget,
		FullText: u.State.Text,
		Markup:   "pango",
		Urgent:   u.State.Severity == types.SeverityHardCritical,
	}

	line := make([]i3Block, 0, len(s.widgets))
	for _, w := range s.widgets {
		line = append(line, s.blocks[w])
	}
	b, err := json.Marshal(line)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "%s,\n", b)
}
