package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/events"
	"github.com/devstat/devstat/pkg/monitor"
	"github.com/devstat/devstat/pkg/version"
)

func (s *Server) listWidgets(c *gin.Context) {
	engines := s.reg.all()
	statuses := make([]monitor.Status, 0, len(engines))
	for _, e := range engines {
		statuses = append(statuses, e.Status())
	}
	c.IndentedJSON(http.StatusOK, statuses)
}

func (s *Server) engine(c *gin.Context) (*monitor.Engine, bool) {
	name := c.Param("name")
	e, ok := s.reg.get(name)
	if !ok {
		err := fmt.Errorf("no widget named %q", name)
		c.IndentedJSON(http.StatusNotFound, err.Error())
		_ = c.AbortWithError(http.StatusNotFound, err)
		return nil, false
	}
	return e, true
}

func (s *Server) getWidget(c *gin.Context) {
	e, ok := s.engine(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, e.Status())
}

func (s *Server) command(cmd monitor.Command) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := s.engine(c)
		if !ok {
			return
		}
		s.run(c, e, cmd, 0)
	}
}

func (s *Server) setLevel(c *gin.Context) {
	e, ok := s.engine(c)
	if !ok {
		return
	}

	var l int
	if err := c.BindJSON(&l); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	s.run(c, e, monitor.CmdSet, l)
}

func (s *Server) run(c *gin.Context, e *monitor.Engine, cmd monitor.Command, level int) {
	if err := e.Do(cmd, level); err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, monitor.ErrStopped):
			code = http.StatusServiceUnavailable
		case errors.Is(err, monitor.ErrQueueFull):
			code = http.StatusTooManyRequests
		}
		c.IndentedJSON(code, err.Error())
		_ = c.AbortWithError(code, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"widget":  e.Name(),
		"command": cmd,
	}).Debug("command queued")

	c.IndentedJSON(http.StatusAccepted, fmt.Sprintf("%s: %s queued", e.Name(), cmd))
}

func (s *Server) getConfig(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.conf.Widgets())
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

// streamEvents is a server-sent event stream. It starts with the current
// state of every widget. ?event= limits it to the given event names.
func (s *Server) streamEvents(c *gin.Context) {
	names := c.QueryArray("event")
	ch := s.hub.Subscribe(names...)
	defer s.hub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	initial := s.reg.all()
	if len(names) > 0 && !slices.Contains(names, events.DisplayUpdate) {
		initial = nil
	}
	for _, e := range initial {
		b, err := json.Marshal(events.DisplayUpdateEvent{
			Widget: e.Name(),
			State:  e.Snapshot(),
			Ts:     time.Now().UnixMilli(),
		})
		if err != nil {
			continue
		}
		c.SSEvent(events.DisplayUpdate, string(b))
	}
	c.Writer.Flush()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-s.closing:
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
}
