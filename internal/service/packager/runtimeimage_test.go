package packager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanin47/single-instance-deep-link/internal/platform"
	"github.com/tanin47/single-instance-deep-link/internal/process"
	"github.com/tanin47/single-instance-deep-link/internal/process/processtest"
)

// TestRuntimeImageBuilder_Args verifies the exact jlink invocation.
func TestRuntimeImageBuilder_Args(t *testing.T) {
	t.Parallel()

	build := NewBuild(newTestConfig(t), platform.Mac)
	layout := build.Layout

	require.Equal(t, []string{
		"--ignore-signing-information",
		"--strip-native-commands",
		"--no-header-files",
		"--no-man-pages",
		"--strip-debug",
		"-p", layout.StagingDir,
		"--module-path", layout.HostModules + ":" + layout.StagingDir,
		"--add-modules", "java.base,java.desktop,java.logging",
		"--output", layout.RuntimeImageDir,
	}, NewRuntimeImageBuilder(build, nil).Args())
}

// TestRuntimeImageBuilder_Run verifies that the previous image is removed and jlink runs once.
func TestRuntimeImageBuilder_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := newTestConfig(t)
	cfg.Env = map[string]string{"JAVA_TOOL_OPTIONS": "-Xmx1g"}
	build := NewBuild(cfg, platform.Mac)

	require.NoError(t, NewStager(build).Run(ctx))

	stale := filepath.Join(build.Layout.RuntimeImageDir, "stale")
	writeFile(t, stale, "stale")

	recorder := fakeTools(t)
	require.NoError(t, NewRuntimeImageBuilder(build, recorder).Run(ctx))

	require.Equal(t, 1, recorder.Count())

	cmd := recorder.Commands()[0]
	require.Equal(t, build.Layout.JLink, cmd.Name)
	require.Equal(t, cfg.Env, cmd.Env)
	require.NoFileExists(t, stale)
	require.FileExists(t, filepath.Join(build.Layout.RuntimeImageDir, "release"))
}

// TestRuntimeImageBuilder_MissingStaging verifies validation before jlink is spawned.
func TestRuntimeImageBuilder_MissingStaging(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty staging directory", func(t *testing.T) {
		t.Parallel()

		build := NewBuild(newTestConfig(t), platform.Mac)
		recorder := fakeTools(t)

		err := NewRuntimeImageBuilder(build, recorder).Run(ctx)
		require.ErrorIs(t, err, ErrMissingInput)
		require.Zero(t, recorder.Count())
	})

	t.Run("archive not staged", func(t *testing.T) {
		t.Parallel()

		build := NewBuild(newTestConfig(t), platform.Mac)
		require.NoError(t, NewStager(build).Run(ctx))
		require.NoError(t, os.Remove(build.MainJar()))

		recorder := fakeTools(t)

		err := NewRuntimeImageBuilder(build, recorder).Run(ctx)
		require.ErrorIs(t, err, ErrMissingInput)
		require.Zero(t, recorder.Count())
	})
}

// TestRuntimeImageBuilder_ToolFailure verifies that a jlink failure is returned unchanged.
func TestRuntimeImageBuilder_ToolFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	build := NewBuild(newTestConfig(t), platform.Windows)
	require.NoError(t, NewStager(build).Run(ctx))

	exitErr := &process.ExitError{ExitCode: 3, Stderr: "Error: module not found: java.desktop"}
	recorder := &processtest.Recorder{
		OnRun: func(process.Command) (string, error) { return "", exitErr },
	}

	err := NewRuntimeImageBuilder(build, recorder).Run(ctx)
	require.ErrorIs(t, err, process.ErrCommandExecutionFailed)

	var got *process.ExitError
	require.True(t, errors.As(err, &got))
	require.Equal(t, 3, got.ExitCode)
	require.Contains(t, got.Stderr, "module not found")
}
