package client

import (
	"bufio"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/events"
)

const resubscribeDelay = 2 * time.Second

// SubscribeEvents streams daemon events until ctx is done, reconnecting
// when the daemon goes away. names limits the stream to those events. The
// channel is closed when ctx is done.
func (c *Client) SubscribeEvents(ctx context.Context, names ...string) <-chan events.Event {
	out := make(chan events.Event, 16)

	go func() {
		defer close(out)
		for {
			err := c.stream(ctx, names, out)
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Debug("event stream ended, resubscribing")

			t := time.NewTimer(resubscribeDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
	}()

	return out
}

func (c *Client) stream(ctx context.Context, names []string, out chan<- events.Event) error {
	q := url.Values{}
	for _, n := range names {
		q.Add("event", n)
	}
	u := "http://unix/events"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var ev events.Event
	var data strings.Builder
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.Name != "" || data.Len() > 0 {
				ev.Data = []byte(data.String())
				select {
				case out <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			ev = events.Event{}
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return ErrDaemonNotRunning
}
