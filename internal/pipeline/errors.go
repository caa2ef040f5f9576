package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidGraph reports a structurally broken stage graph.
	ErrInvalidGraph = errors.New("invalid stage graph")
	// ErrCycleFound reports a dependency cycle.
	ErrCycleFound = errors.New("cycle detected")
	// ErrUnknownStage reports a target that is not part of the graph.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrLocked reports that another live process owns the build directory.
	ErrLocked = errors.New("build directory is locked by another process")
)

// GraphError wraps graph validation failures.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}

	return &GraphError{Kind: ErrCycleFound, Msg: msg}
}

// StageError attributes a failure to the stage that produced it.
type StageError struct {
	// Stage is the failing stage name.
	Stage string
	// Err is the underlying failure.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
