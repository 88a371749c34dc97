package source

import (
	"context"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/runner"
	"github.com/devstat/devstat/pkg/types"
)

// LineSource runs a command and parses the first non-empty line of its
// output. Only a failed command is an error.
type LineSource struct {
	runner  runner.Runner
	argv    func() []string
	timeout time.Duration
	parse   Parser
}

var _ Source = &LineSource{}

// NewLineSource builds a source around argv. argv is called for every read
// so the device it names can change at runtime.
func NewLineSource(r runner.Runner, argv func() []string, timeout time.Duration, parse Parser) *LineSource {
	if r == nil {
		r = runner.Default
	}
	return &LineSource{
		runner:  r,
		argv:    argv,
		timeout: runner.ClampTimeout(timeout),
		parse:   parse,
	}
}

// StaticArgv is a convenience for commands that never change.
func StaticArgv(argv ...string) func() []string {
	return func() []string { return argv }
}

func (s *LineSource) Read(ctx context.Context) (types.DeviceReading, error) {
	argv := s.argv()
	out, err := s.runner.Run(ctx, argv, s.timeout)
	if err != nil {
		return types.Unavailable(""), pkgerrors.Wrapf(ErrReadTransient, "%s: %v", strings.Join(argv, " "), err)
	}

	line := firstLine(out)
	r := s.parse(line)

	logrus.WithFields(logrus.Fields{
		"argv":   argv,
		"line":   line,
		"level":  r.Level,
		"status": r.Status,
	}).Trace("line read")

	return r, nil
}

func firstLine(out string) string {
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
