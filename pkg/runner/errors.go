package runner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the executable is not on PATH.
	ErrNotFound = errors.New("executable not found")

	// ErrTimeout is returned when the command did not finish in time.
	ErrTimeout = errors.New("command timed out")

	// ErrNonZeroExit is returned when the command exited with a failure code.
	ErrNonZeroExit = errors.New("command exited with non-zero status")

	// ErrEmptyCommand is returned when argv is empty.
	ErrEmptyCommand = errors.New("empty command")
)

// ExitError carries the exit code and stderr of a failed command.
type ExitError struct {
	Argv   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", strings.Join(e.Argv, " "), e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return ErrNonZeroExit
}
