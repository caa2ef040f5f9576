package process

import (
	"context"
	"maps"
	"slices"
	"strings"
)

// Command describes one invocation of an external tool.
type Command struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is merged on top of the inherited environment; overlay values win.
	Env map[string]string
	// Name is the executable path or name.
	Name string
	// Args are passed to the executable in order.
	Args []string
}

// String renders the command line the way it is logged.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Name))

	for _, arg := range c.Args {
		parts = append(parts, quote(arg))
	}

	return strings.Join(parts, " ")
}

// Runner executes commands. Stages depend on this interface so tests can
// substitute a recording double.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// MergeEnv overlays KEY=VALUE pairs from overlay on top of base.
// Keys present in both keep the overlay value; the result is sorted by key.
func MergeEnv(base []string, overlay map[string]string) []string {
	merged := make(map[string]string, len(base)+len(overlay))

	for _, entry := range base {
		if k, v, ok := strings.Cut(entry, "="); ok {
			merged[k] = v
		}
	}

	maps.Copy(merged, overlay)

	keys := slices.Sorted(maps.Keys(merged))

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+merged[k])
	}

	return result
}

func quote(s string) string {
	if s == "" {
		return `""`
	}

	if strings.ContainsAny(s, " \t\"'") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}

	return s
}
