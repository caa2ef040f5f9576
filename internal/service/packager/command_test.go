package packager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanin47/single-instance-deep-link/internal/config"
	"github.com/tanin47/single-instance-deep-link/internal/pipeline"
	"github.com/tanin47/single-instance-deep-link/internal/platform"
	"github.com/tanin47/single-instance-deep-link/internal/process/processtest"
)

// saveTestConfig writes the test configuration and returns its path.
func saveTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "packaging.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

func outcomes(report *pipeline.Report) map[string]pipeline.Outcome {
	out := make(map[string]pipeline.Outcome, len(report.Stages))
	for _, s := range report.Stages {
		out[s.Name] = s.Outcome
	}

	return out
}

// TestRun_Incremental verifies a full run, an up-to-date rerun and a targeted plan after a change.
func TestRun_Incremental(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := newTestConfig(t)
	mac := platform.Mac
	recorder := fakeTools(t)
	opts := &Options{ConfigPath: saveTestConfig(t, cfg), Platform: &mac, Runner: recorder}

	require.NoError(t, Run(ctx, opts))
	require.Equal(t, 2, recorder.Count())
	require.FileExists(t, filepath.Join(cfg.BuildDir, "jpackage", "Demo-1.0.dmg"))
	require.FileExists(t, filepath.Join(cfg.BuildDir, ".native-packager-state.yaml"))
	require.NoFileExists(t, filepath.Join(cfg.BuildDir, pipeline.DefaultLockFilename))

	require.NoError(t, Run(ctx, opts))
	require.Equal(t, 2, recorder.Count(), "unchanged inputs must not spawn tools again")

	writeFile(t, cfg.AppArchive, "application v2")

	report, err := Plan(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, map[string]pipeline.Outcome{
		StageArtifacts:    pipeline.Executed,
		StageRuntimeImage: pipeline.Executed,
		StageManifest:     pipeline.UpToDate,
		StageInstaller:    pipeline.Executed,
	}, outcomes(report))
	require.Equal(t, 2, recorder.Count())

	force := *opts
	force.Force = true
	force.Target = StageRuntimeImage

	require.NoError(t, Run(ctx, &force))
	require.Equal(t, 3, recorder.Count())
}

// TestRun_UnsupportedPlatform verifies that nothing is written for a platform without an installer.
func TestRun_UnsupportedPlatform(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	linux := platform.Linux
	recorder := fakeTools(t)

	err := Run(context.Background(), &Options{ConfigPath: saveTestConfig(t, cfg), Platform: &linux, Runner: recorder})
	require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)
	require.Zero(t, recorder.Count())
	require.NoDirExists(t, filepath.Join(cfg.BuildDir, "jmods"))
}

// TestRun_LinuxRuntimeImage verifies that targets before the installer work on a platform without one.
func TestRun_LinuxRuntimeImage(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	linux := platform.Linux
	recorder := fakeTools(t)

	err := Run(context.Background(), &Options{
		ConfigPath: saveTestConfig(t, cfg),
		Platform:   &linux,
		Target:     StageRuntimeImage,
		Runner:     recorder,
	})
	require.NoError(t, err)
	require.Equal(t, 1, recorder.Count())
	require.FileExists(t, filepath.Join(cfg.BuildDir, "jmods", "demo-1.0.jar"))
	require.FileExists(t, filepath.Join(cfg.BuildDir, "jlink", "release"))
	require.NoDirExists(t, filepath.Join(cfg.BuildDir, "jpackage"))

	modulePath, ok := processtest.FlagValue(recorder.Commands()[0], "--module-path")
	require.True(t, ok)
	require.Equal(t, filepath.Join(cfg.JavaHome, "jmods")+":"+filepath.Join(cfg.BuildDir, "jmods"), modulePath)
}

// TestPlan_LinuxStaging verifies that planning the staging stage needs no installer.
func TestPlan_LinuxStaging(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	linux := platform.Linux

	report, err := Plan(context.Background(), &Options{
		ConfigPath: saveTestConfig(t, cfg),
		Platform:   &linux,
		Target:     StageArtifacts,
	})
	require.NoError(t, err)
	require.Equal(t, map[string]pipeline.Outcome{StageArtifacts: pipeline.Executed}, outcomes(report))
}

// TestRun_DryRun verifies that a dry run spawns nothing and writes nothing.
func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	win := platform.Windows
	recorder := fakeTools(t)

	err := Run(context.Background(), &Options{
		ConfigPath: saveTestConfig(t, cfg),
		Platform:   &win,
		Runner:     recorder,
		DryRun:     true,
	})
	require.NoError(t, err)
	require.Zero(t, recorder.Count())
	require.NoDirExists(t, filepath.Join(cfg.BuildDir, "jmods"))
	require.NoFileExists(t, filepath.Join(cfg.BuildDir, ".native-packager-state.yaml"))
}

// TestPlan_UnknownTarget verifies the error for a stage that does not exist.
func TestPlan_UnknownTarget(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t)
	mac := platform.Mac

	_, err := Plan(context.Background(), &Options{ConfigPath: saveTestConfig(t, cfg), Platform: &mac, Target: "publish"})
	require.ErrorIs(t, err, pipeline.ErrUnknownStage)
}
