package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/types"
)

// Update is one widget's new display state.
type Update struct {
	Widget string
	State  types.DisplayState
}

// Sink is the UI side. Update is only ever called from the publisher's
// goroutine, so sinks need no locking of their own.
type Sink interface {
	Update(u Update)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(u Update)

func (f SinkFunc) Update(u Update) { f(u) }

// Publisher hands display states from engine goroutines to a single UI
// goroutine. Each widget has a one slot mailbox: a slow UI only ever sees
// the newest state. Every update is also forwarded to the hub.
type Publisher struct {
	sinks []Sink
	hub   *EventHub

	mu      sync.Mutex
	pending map[string]types.DisplayState
	order   []string

	wake chan struct{}
}

func NewPublisher(hub *EventHub, sinks ...Sink) *Publisher {
	return &Publisher{
		sinks:   sinks,
		hub:     hub,
		pending: make(map[string]types.DisplayState),
		wake:    make(chan struct{}, 1),
	}
}

// Publish never blocks.
func (p *Publisher) Publish(widget string, st types.DisplayState) {
	p.mu.Lock()
	if _, ok := p.pending[widget]; !ok {
		p.order = append(p.order, widget)
	}
	p.pending[widget] = st
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}

	p.hub.Publish(DisplayUpdate, DisplayUpdateEvent{Widget: widget, State: st, Ts: now()})
}

// Run delivers updates to the sinks until ctx is done. Call it from the
// goroutine that owns the UI.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return
		case <-p.wake:
			p.flush()
		}
	}
}

func (p *Publisher) flush() {
	p.mu.Lock()
	if len(p.order) == 0 {
		p.mu.Unlock()
		return
	}
	batch := make([]Update, 0, len(p.order))
	for _, w := range p.order {
		batch = append(batch, Update{Widget: w, State: p.pending[w]})
	}
	p.order = p.order[:0]
	clear(p.pending)
	p.mu.Unlock()

	for _, u := range batch {
		for _, s := range p.sinks {
			deliver(s, u)
		}
	}
}

func deliver(s Sink, u Update) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"widget": u.Widget,
				"panic":  r,
			}).Error("sink panicked")
		}
	}()
	s.Update(u)
}
