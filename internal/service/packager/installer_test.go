package packager

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tanin47/single-instance-deep-link/internal/fsutil"
	"github.com/tanin47/single-instance-deep-link/internal/logger"
	"github.com/tanin47/single-instance-deep-link/internal/platform"
	"github.com/tanin47/single-instance-deep-link/internal/process"
	"github.com/tanin47/single-instance-deep-link/internal/process/processtest"
)

// TestInstallerBuilder_MacArgs verifies the common and macOS arguments.
func TestInstallerBuilder_MacArgs(t *testing.T) {
	t.Parallel()

	build := NewBuild(newTestConfig(t), platform.Mac)
	cfg := build.Config
	layout := build.Layout

	args, err := NewInstallerBuilder(build, nil).Args()
	require.NoError(t, err)
	require.Equal(t, []string{
		"--name", "Demo",
		"--app-version", "1.0",
		"--main-jar", filepath.Join(layout.StagingDir, "demo-1.0.jar"),
		"--main-class", "com.demo.Main",
		"--runtime-image", layout.RuntimeImageDir,
		"--input", layout.StagingDir,
		"--dest", layout.DestDir,
		"--vendor", "Demo Vendor",
		"--copyright", "2025 Demo Vendor",
		"--java-options", "-XstartOnFirstThread -Dbackdoor.packaged=true -Djava.library.path=$APPDIR/resources " +
			"--add-exports java.base/sun.security.x509=ALL-UNNAMED " +
			"--add-exports java.base/sun.security.tools.keytool=ALL-UNNAMED",
		"--mac-package-identifier", "com.demo",
		"--mac-package-name", "Demo",
		"--resource-dir", cfg.Mac.ResourceDir,
	}, args)
}

// TestInstallerBuilder_WindowsArgs verifies the Windows arguments and the absence of macOS ones.
func TestInstallerBuilder_WindowsArgs(t *testing.T) {
	t.Parallel()

	build := NewBuild(newTestConfig(t), platform.Windows)
	cmd := process.Command{}

	args, err := NewInstallerBuilder(build, nil).Args()
	require.NoError(t, err)

	cmd.Args = args

	icon, ok := processtest.FlagValue(cmd, "--icon")
	require.True(t, ok)
	require.Equal(t, build.Config.Windows.Icon, icon)

	kind, ok := processtest.FlagValue(cmd, "--type")
	require.True(t, ok)
	require.Equal(t, "msi", kind)

	require.True(t, processtest.HasArg(cmd, "--win-menu"))
	require.True(t, processtest.HasArg(cmd, "--win-shortcut"))
	require.False(t, processtest.HasArg(cmd, "--mac-package-identifier"))
	require.False(t, processtest.HasArg(cmd, "--resource-dir"))

	options, _ := processtest.FlagValue(cmd, "--java-options")
	require.NotContains(t, options, "-XstartOnFirstThread")
}

// TestInstallerBuilder_UnsupportedPlatform verifies fail-fast without side effects or subprocesses.
func TestInstallerBuilder_UnsupportedPlatform(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	build := NewBuild(newTestConfig(t), platform.Linux)
	recorder := fakeTools(t)
	stage := NewInstallerBuilder(build, recorder)

	marker := filepath.Join(build.Layout.DestDir, "keep")
	writeFile(t, marker, "keep")

	_, err := stage.Declare(ctx)
	require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)

	err = stage.Run(ctx)
	require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)

	_, err = stage.Commands()
	require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)

	require.Zero(t, recorder.Count())
	require.FileExists(t, marker)
}

// TestInstallerBuilder_Idempotent verifies the destination holds exactly one installer after repeated runs.
func TestInstallerBuilder_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	build := NewBuild(newTestConfig(t), platform.Windows)
	recorder := fakeTools(t)
	stage := NewInstallerBuilder(build, recorder)

	// A leftover from a previous version.
	writeFile(t, filepath.Join(build.Layout.DestDir, "Demo-0.9.msi"), "old")

	for range 2 {
		require.NoError(t, stage.Run(ctx))

		entries, err := os.ReadDir(build.Layout.DestDir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "Demo-1.0.msi", entries[0].Name())
	}

	require.Equal(t, 2, recorder.Count())
}

// TestInstallerBuilder_ArtifactMissing verifies that a silent jpackage without output is an error.
func TestInstallerBuilder_ArtifactMissing(t *testing.T) {
	t.Parallel()

	build := NewBuild(newTestConfig(t), platform.Mac)

	err := NewInstallerBuilder(build, &processtest.Recorder{}).Run(context.Background())
	require.ErrorIs(t, err, errArtifactMissing)
}

// TestInstallerBuilder_Declare verifies the declared output is the artifact itself.
func TestInstallerBuilder_Declare(t *testing.T) {
	t.Parallel()

	build := NewBuild(newTestConfig(t), platform.Mac)

	spec, err := NewInstallerBuilder(build, nil).Declare(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(build.Layout.DestDir, "Demo-1.0.dmg")}, spec.Outputs)
	require.Contains(t, spec.Inputs, build.Config.Mac.ResourceDir)
}

// TestInstallerBuilder_LogsChecksum verifies the created installer is reported with its checksum.
func TestInstallerBuilder_LogsChecksum(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	build := NewBuild(newTestConfig(t), platform.Mac)
	require.NoError(t, NewInstallerBuilder(build, fakeTools(t)).Run(ctx))

	artifact, err := build.ArtifactPath()
	require.NoError(t, err)

	want, err := fsutil.FileChecksum(artifact)
	require.NoError(t, err)

	created := logs.FilterMessage("Installer created").All()
	require.Len(t, created, 1)
	require.Equal(t, artifact, created[0].ContextMap()["path"])
	require.Equal(t, hex.EncodeToString(want), created[0].ContextMap()["sha512"])
}
