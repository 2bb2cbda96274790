package harness

import (
	"fmt"
	"strings"
	"time"
)

// FixtureStartupError is returned when the database fixture never becomes ready.
type FixtureStartupError struct {
	Image   string
	Stage   string // container, connect, migrate or seed
	Timeout time.Duration
	Err     error
}

func (e *FixtureStartupError) Error() string {
	return fmt.Sprintf("fixture %s failed to start (stage %s, timeout %s): %v", e.Image, e.Stage, e.Timeout, e.Err)
}

func (e *FixtureStartupError) Unwrap() error {
	return e.Err
}

// ConnectionError is returned when the service under test cannot be reached.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("service unreachable at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ExecError is returned when a command inside the fixture exits non-zero.
// Stderr carries the captured output for diagnostics.
type ExecError struct {
	Cmd      []string
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command %q exited with code %d: %s", strings.Join(e.Cmd, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

// AssertionFailure reports every violated condition of a check group.
type AssertionFailure struct {
	Group    string
	Failures []string
}

func (e *AssertionFailure) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "%s: %d failure(s)", e.Group, len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&buf, "\n  - %s", f)
	}

	return buf.String()
}
