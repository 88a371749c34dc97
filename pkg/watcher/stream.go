package watcher

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/runner"
)

// terminateGrace is how long a subscribe process gets after SIGTERM.
const terminateGrace = time.Second

// StreamWatcher runs a long-lived subscribe process, such as
// `wpctl subscribe` or `upower --monitor`, and signals on every output
// line containing one of the keywords.
type StreamWatcher struct {
	supervisor
	argv     []string
	keywords []string

	// OnReconnect runs after a session re-establishes, before the signal
	// that follows it. Audio widgets use it to re-resolve the default device.
	OnReconnect func(ctx context.Context)
}

var _ Watcher = &StreamWatcher{}

// NewStreamWatcher matches keywords case-insensitively. No keywords means
// every line is a change.
func NewStreamWatcher(name string, argv []string, keywords []string, backoff time.Duration) *StreamWatcher {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		kw = append(kw, strings.ToLower(k))
	}
	return &StreamWatcher{
		supervisor: supervisor{name: name, backoff: backoff},
		argv:       argv,
		keywords:   kw,
	}
}

func (w *StreamWatcher) Run(ctx context.Context, signals chan<- struct{}) {
	w.onListening = func(ctx context.Context, attempt int) {
		if attempt == 0 {
			return
		}
		if w.OnReconnect != nil {
			w.OnReconnect(ctx)
		}
		Notify(signals)
	}
	w.run(ctx, func(ctx context.Context, ready func()) error {
		return w.session(ctx, ready, signals)
	})
}

func (w *StreamWatcher) session(ctx context.Context, ready func(), signals chan<- struct{}) error {
	if len(w.argv) == 0 {
		return runner.ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, w.argv[0], w.argv[1:]...)
	cmd.Env = runner.Env()
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = terminateGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return pkgerrors.Wrapf(err, "failed to start %s", w.argv[0])
	}
	ready()

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if w.matches(line) {
			logrus.WithFields(logrus.Fields{
				"watcher": w.name,
				"line":    line,
			}).Trace("stream event")
			Notify(signals)
		}
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if waitErr != nil {
		return pkgerrors.Wrapf(ErrDisconnected, "%s exited: %v", w.argv[0], waitErr)
	}
	return pkgerrors.Wrapf(ErrDisconnected, "%s closed its output", w.argv[0])
}

func (w *StreamWatcher) matches(line string) bool {
	if len(w.keywords) == 0 {
		return strings.TrimSpace(line) != ""
	}
	l := strings.ToLower(line)
	for _, k := range w.keywords {
		if strings.Contains(l, k) {
			return true
		}
	}
	return false
}
