package pipeline

import (
	"fmt"
	"os"
	"os/user"

	domain "github.com/tanin47/single-instance-deep-link/internal/domain/build"
)

// DetectActor gathers host and user information for the stage records.
func DetectActor() (*domain.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &domain.Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
