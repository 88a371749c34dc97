// Package runner executes short-lived external commands with a bounded
// timeout and a fixed C.UTF-8 locale, so their output is parseable.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	MinTimeout     = 100 * time.Millisecond
	MaxTimeout     = 5 * time.Second
	DefaultTimeout = time.Second

	// waitDelay bounds how long we wait for pipes after the process is killed.
	waitDelay = 100 * time.Millisecond
)

// Runner runs a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, argv []string, timeout time.Duration) (string, error)
}

// Exec runs commands with os/exec.
type Exec struct{}

var _ Runner = Exec{}

// Default is the Runner used by the package level helpers.
var Default Runner = Exec{}

// Run runs argv with Default.
func Run(ctx context.Context, argv []string, timeout time.Duration) (string, error) {
	return Default.Run(ctx, argv, timeout)
}

// ClampTimeout keeps d in [MinTimeout, MaxTimeout]. Zero means DefaultTimeout.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// Env returns the current environment with the locale forced to C.UTF-8.
func Env() []string {
	env := os.Environ()
	out := make([]string, 0, len(env)+2)
	for _, kv := range env {
		if strings.HasPrefix(kv, "LC_ALL=") || strings.HasPrefix(kv, "LANG=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "LC_ALL=C.UTF-8", "LANG=C.UTF-8")
}

// Require resolves name on PATH. The error wraps ErrNotFound.
func Require(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", pkgerrors.Wrapf(ErrNotFound, "%s is required but was not found in PATH", name)
	}
	return p, nil
}

func (Exec) Run(ctx context.Context, argv []string, timeout time.Duration) (string, error) {
	if len(argv) == 0 {
		return "", ErrEmptyCommand
	}
	timeout = ClampTimeout(timeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = Env()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	logrus.WithFields(logrus.Fields{
		"argv":    argv,
		"timeout": timeout,
	}).Trace("running command")

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return "", pkgerrors.Wrapf(ErrNotFound, "%s", argv[0])
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "", pkgerrors.Wrapf(ErrTimeout, "%s after %s", argv[0], timeout)
	case ctx.Err() != nil:
		return "", ctx.Err()
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return stdout.String(), &ExitError{
			Argv:   argv,
			Code:   ee.ExitCode(),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}

	return "", pkgerrors.Wrapf(err, "failed to run %s", argv[0])
}

// Start launches argv detached from the caller and reaps it in the
// background. Used for fire-and-forget notifications.
func Start(argv []string) error {
	if len(argv) == 0 {
		return ErrEmptyCommand
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = Env()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return pkgerrors.Wrapf(ErrNotFound, "%s", argv[0])
		}
		return pkgerrors.Wrapf(err, "failed to start %s", argv[0])
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logrus.WithError(err).WithField("argv", argv).Debug("detached command failed")
		}
	}()
	return nil
}
