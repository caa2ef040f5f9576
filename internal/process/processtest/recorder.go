// Package processtest provides a process.Runner double that records commands
// instead of spawning them.
package processtest

import (
	"context"
	"slices"
	"sync"

	"github.com/tanin47/single-instance-deep-link/internal/process"
)

// Recorder records every command it receives and optionally simulates its effect.
type Recorder struct {
	// OnRun, when set, is invoked for every command; its results are returned to the caller.
	OnRun func(cmd process.Command) (string, error)

	mu       sync.Mutex
	commands []process.Command
}

// Run records cmd and delegates to OnRun.
func (r *Recorder) Run(_ context.Context, cmd process.Command) (string, error) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()

	if r.OnRun == nil {
		return "", nil
	}

	return r.OnRun(cmd)
}

// Commands returns a copy of the recorded commands in call order.
func (r *Recorder) Commands() []process.Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]process.Command(nil), r.commands...)
}

// Count returns how many commands were recorded.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.commands)
}

// FlagValue returns the argument following flag in cmd, if present.
func FlagValue(cmd process.Command, flag string) (string, bool) {
	for i, arg := range cmd.Args {
		if arg == flag && i+1 < len(cmd.Args) {
			return cmd.Args[i+1], true
		}
	}

	return "", false
}

// HasArg reports whether arg appears anywhere in cmd's arguments.
func HasArg(cmd process.Command, arg string) bool {
	return slices.Contains(cmd.Args, arg)
}
