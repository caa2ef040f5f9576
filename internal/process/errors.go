package process

import (
	"errors"
	"fmt"
)

// ErrCommandExecutionFailed is matched by every *ExitError.
var ErrCommandExecutionFailed = errors.New("command execution failed")

// ExitError is returned when a command exits with a non-zero status.
// Both streams are attached so callers can diagnose the failure without
// scraping the build log.
type ExitError struct {
	// Command is the rendered command line.
	Command string
	// ExitCode is the status reported by the process.
	ExitCode int
	// Stdout is everything the process wrote to standard output.
	Stdout string
	// Stderr is everything the process wrote to standard error.
	Stderr string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s with return value: %d", ErrCommandExecutionFailed, e.ExitCode)
}

// Is lets errors.Is match ErrCommandExecutionFailed.
func (e *ExitError) Is(target error) bool {
	return target == ErrCommandExecutionFailed
}
