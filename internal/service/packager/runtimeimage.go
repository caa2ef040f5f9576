package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tanin47/single-instance-deep-link/internal/fsutil"
	"github.com/tanin47/single-instance-deep-link/internal/logger"
	"github.com/tanin47/single-instance-deep-link/internal/pipeline"
	"github.com/tanin47/single-instance-deep-link/internal/platform"
	"github.com/tanin47/single-instance-deep-link/internal/process"
)

// RuntimeImageBuilder links a trimmed runtime image with jlink.
type RuntimeImageBuilder struct {
	build  *Build
	runner process.Runner
}

// NewRuntimeImageBuilder creates the jlink stage.
func NewRuntimeImageBuilder(build *Build, runner process.Runner) *RuntimeImageBuilder {
	return &RuntimeImageBuilder{build: build, runner: runner}
}

// Name implements pipeline.Stage.
func (r *RuntimeImageBuilder) Name() string { return StageRuntimeImage }

// Declare implements pipeline.Stage.
func (r *RuntimeImageBuilder) Declare(context.Context) (pipeline.Spec, error) {
	layout := r.build.Layout

	return pipeline.Spec{
		Inputs:  []string{layout.StagingDir, layout.HostModules},
		Outputs: []string{layout.RuntimeImageDir},
		Properties: map[string]string{
			"args": strings.Join(r.Args(), "\n"),
			"tool": layout.JLink,
		},
	}, nil
}

// Args returns the jlink arguments. Flag order is part of the tool's contract.
func (r *RuntimeImageBuilder) Args() []string {
	layout := r.build.Layout
	modulePath := layout.HostModules + platform.PathListSeparator(r.build.Platform) + layout.StagingDir

	return []string{
		"--ignore-signing-information",
		"--strip-native-commands",
		"--no-header-files",
		"--no-man-pages",
		"--strip-debug",
		"-p", layout.StagingDir,
		"--module-path", modulePath,
		"--add-modules", strings.Join(r.build.Config.Modules, ","),
		"--output", layout.RuntimeImageDir,
	}
}

// Commands implements Commander.
func (r *RuntimeImageBuilder) Commands() ([]process.Command, error) {
	return []process.Command{r.command()}, nil
}

func (r *RuntimeImageBuilder) command() process.Command {
	return process.Command{
		Env:  r.build.Config.Env,
		Name: r.build.Layout.JLink,
		Args: r.Args(),
	}
}

// Run validates the staging directory, removes the previous image and runs jlink.
func (r *RuntimeImageBuilder) Run(ctx context.Context) error {
	layout := r.build.Layout

	empty, err := fsutil.IsEmptyDir(layout.StagingDir)
	if err != nil {
		return fmt.Errorf("inspect staging directory: %w", err)
	}

	if empty {
		return fmt.Errorf("%w: staging directory %s is missing or empty", ErrMissingInput, layout.StagingDir)
	}

	if _, err = os.Stat(r.build.MainJar()); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingInput, r.build.MainJar())
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", r.build.MainJar(), err)
	}

	if err = os.RemoveAll(layout.RuntimeImageDir); err != nil {
		return fmt.Errorf("remove previous runtime image: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(layout.RuntimeImageDir), fsutil.DefaultDirMode); err != nil {
		return fmt.Errorf("create build directory: %w", err)
	}

	if _, err = r.runner.Run(ctx, r.command()); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Runtime image linked", "dir", layout.RuntimeImageDir)

	return nil
}
