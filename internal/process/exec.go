package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tanin47/single-instance-deep-link/internal/logger"
)

// ExecRunner runs commands as real subprocesses.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and blocks until it exits. There is no timeout; only a
// cancelled context stops a running tool.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (string, error) {
	ctx = logger.WithName(ctx, toolName(cmd.Name))

	logger.InfoKV(ctx, "Executing command", "command", cmd.String())

	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	proc.Env = MergeEnv(os.Environ(), cmd.Env)

	stdoutPipe, err := proc.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("open stdout of %s: %w", cmd.Name, err)
	}

	stderrPipe, err := proc.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("open stderr of %s: %w", cmd.Name, err)
	}

	if err = proc.Start(); err != nil {
		return "", fmt.Errorf("start %s: %w", cmd.Name, err)
	}

	ctx = logger.WithKV(ctx, "pid", proc.Process.Pid)

	var (
		stdout, stderr       strings.Builder
		stdoutErr, stderrErr error
		wg                   sync.WaitGroup
	)

	// Both pipes must be drained concurrently, otherwise a tool that fills
	// the stderr buffer blocks while we wait on stdout.
	wg.Add(2)

	go func() {
		defer wg.Done()
		stdoutErr = drain(ctx, stdoutPipe, "stdout", &stdout)
	}()

	go func() {
		defer wg.Done()
		stderrErr = drain(ctx, stderrPipe, "stderr", &stderr)
	}()

	wg.Wait()

	waitErr := proc.Wait()
	if waitErr == nil {
		if readErr := errors.Join(stdoutErr, stderrErr); readErr != nil {
			return stdout.String(), fmt.Errorf("read output of %s: %w", cmd.Name, readErr)
		}

		return stdout.String(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0 {
		return stdout.String(), &ExitError{
			Command:  cmd.String(),
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}

	return stdout.String(), fmt.Errorf("wait for %s: %w", cmd.Name, waitErr)
}

// drain copies r line by line into sink and echoes every line to the log.
// Lines of any length are kept whole; a final line without a newline gets one.
func drain(ctx context.Context, r io.Reader, stream string, sink *strings.Builder) error {
	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

			logger.InfoKV(ctx, line, "stream", stream)
			sink.WriteString(line)
			sink.WriteByte('\n')
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			// Keep the pipe flowing so the process is not blocked on a full buffer.
			_, _ = io.Copy(io.Discard, r)

			return fmt.Errorf("read %s: %w", stream, err)
		}
	}
}

func toolName(name string) string {
	base := filepath.Base(name)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
