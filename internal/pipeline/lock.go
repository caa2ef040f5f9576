package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/tanin47/single-instance-deep-link/internal/fsutil"
	"github.com/tanin47/single-instance-deep-link/internal/logger"
)

// DefaultLockFilename is the lock file created inside the build directory.
const DefaultLockFilename = ".native-packager.lock"

// Lock is an exclusive hold on a build directory.
type Lock struct {
	path string
}

// AcquireLock creates the lock file at path and writes the current PID into it.
// A lock left behind by a process that is no longer running is taken over.
func AcquireLock(ctx context.Context, path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), fsutil.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fsutil.DefaultFileMode)
		if err == nil {
			_, writeErr := file.WriteString(strconv.Itoa(os.Getpid()))
			closeErr := file.Close()

			if err = errors.Join(writeErr, closeErr); err != nil {
				_ = os.Remove(path)

				return nil, fmt.Errorf("write lock file: %w", err)
			}

			return &Lock{path: path}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		pid, alive := lockOwner(path)
		if alive {
			return nil, fmt.Errorf("%w (pid %d, %s)", ErrLocked, pid, path)
		}

		logger.WarnKV(ctx, "Removing stale lock", "path", path, "pid", pid)

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock: %w", err)
		}
	}

	return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}

	return nil
}

// lockOwner reads the PID from the lock file and reports whether that process still runs.
// An unreadable or malformed lock file counts as stale.
func lockOwner(path string) (int, bool) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	if pid == os.Getpid() {
		return pid, true
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		// Unable to tell; keep the lock.
		return pid, true
	}

	return pid, process != nil
}
