package process

import (
	"context"

	"github.com/tanin47/single-instance-deep-link/internal/logger"
)

// DryRunner logs commands instead of executing them.
type DryRunner struct{}

// Run logs cmd and reports success without spawning anything.
func (DryRunner) Run(ctx context.Context, cmd Command) (string, error) {
	logger.InfoKV(ctx, "Dry run, command not executed", "command", cmd.String(), "dir", cmd.Dir)

	return "", nil
}
