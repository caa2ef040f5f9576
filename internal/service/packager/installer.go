package packager

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tanin47/single-instance-deep-link/internal/fsutil"
	"github.com/tanin47/single-instance-deep-link/internal/logger"
	"github.com/tanin47/single-instance-deep-link/internal/pipeline"
	"github.com/tanin47/single-instance-deep-link/internal/platform"
	"github.com/tanin47/single-instance-deep-link/internal/process"
)

// Runtime flags added after the configured java options.
const (
	startOnFirstThread = "-XstartOnFirstThread"
	libraryPathOption  = "-Djava.library.path=$APPDIR/resources"
	exportX509         = "--add-exports java.base/sun.security.x509=ALL-UNNAMED"
	exportKeytool      = "--add-exports java.base/sun.security.tools.keytool=ALL-UNNAMED"
)

// errArtifactMissing reports that jpackage succeeded but the expected installer is absent.
var errArtifactMissing = errors.New("installer artifact not found")

// InstallerBuilder bundles the runtime image and the staged archives with jpackage.
type InstallerBuilder struct {
	build  *Build
	runner process.Runner
}

// NewInstallerBuilder creates the jpackage stage.
func NewInstallerBuilder(build *Build, runner process.Runner) *InstallerBuilder {
	return &InstallerBuilder{build: build, runner: runner}
}

// Name implements pipeline.Stage.
func (i *InstallerBuilder) Name() string { return StageInstaller }

// Declare implements pipeline.Stage. An unsupported platform fails here,
// before any stage of the run has executed.
func (i *InstallerBuilder) Declare(context.Context) (pipeline.Spec, error) {
	artifact, err := i.build.ArtifactPath()
	if err != nil {
		return pipeline.Spec{}, err
	}

	args, err := i.Args()
	if err != nil {
		return pipeline.Spec{}, err
	}

	layout := i.build.Layout
	inputs := []string{layout.RuntimeImageDir, layout.StagingDir}

	switch i.build.Platform {
	case platform.Mac:
		inputs = append(inputs, i.build.Config.Mac.ResourceDir)
	case platform.Windows:
		inputs = append(inputs, i.build.Config.Windows.Icon)
	default:
	}

	return pipeline.Spec{
		Inputs:  inputs,
		Outputs: []string{artifact},
		Properties: map[string]string{
			"args": strings.Join(args, "\n"),
			"tool": layout.JPackage,
		},
	}, nil
}

// JavaOptions composes the single --java-options value.
func (i *InstallerBuilder) JavaOptions() string {
	options := make([]string, 0, len(i.build.Config.JavaOptions)+4)

	if i.build.Platform == platform.Mac {
		options = append(options, startOnFirstThread)
	}

	options = append(options, i.build.Config.JavaOptions...)
	options = append(options, libraryPathOption, exportX509, exportKeytool)

	return strings.Join(options, " ")
}

// Args returns the jpackage arguments: the common set followed by the platform set.
func (i *InstallerBuilder) Args() ([]string, error) {
	cfg := i.build.Config
	layout := i.build.Layout

	args := []string{
		"--name", cfg.AppName,
		"--app-version", cfg.Version,
		"--main-jar", i.build.MainJar(),
		"--main-class", cfg.MainClass,
		"--runtime-image", layout.RuntimeImageDir,
		"--input", layout.StagingDir,
		"--dest", layout.DestDir,
		"--vendor", cfg.Vendor,
		"--copyright", cfg.Copyright,
		"--java-options", i.JavaOptions(),
	}

	switch i.build.Platform {
	case platform.Mac:
		args = append(args,
			"--mac-package-identifier", cfg.PackageIdentifier,
			"--mac-package-name", cfg.AppName,
			"--resource-dir", cfg.Mac.ResourceDir,
		)
	case platform.Windows:
		args = append(args,
			"--icon", cfg.Windows.Icon,
			"--type", "msi",
			"--win-menu",
			"--win-shortcut",
		)
	default:
		return nil, &platform.UnsupportedError{Platform: i.build.Platform}
	}

	return args, nil
}

// Commands implements Commander.
func (i *InstallerBuilder) Commands() ([]process.Command, error) {
	args, err := i.Args()
	if err != nil {
		return nil, err
	}

	return []process.Command{i.command(args)}, nil
}

func (i *InstallerBuilder) command(args []string) process.Command {
	return process.Command{
		Env:  i.build.Config.Env,
		Name: i.build.Layout.JPackage,
		Args: args,
	}
}

// Run wipes the destination directory, runs jpackage and checks the installer exists.
func (i *InstallerBuilder) Run(ctx context.Context) error {
	// Everything that can fail on configuration is checked before the first side effect.
	artifact, err := i.build.ArtifactPath()
	if err != nil {
		return err
	}

	args, err := i.Args()
	if err != nil {
		return err
	}

	if err = fsutil.Clean(i.build.Layout.DestDir); err != nil {
		return fmt.Errorf("clean destination directory: %w", err)
	}

	if _, err = i.runner.Run(ctx, i.command(args)); err != nil {
		return err
	}

	if _, err = os.Stat(artifact); err != nil {
		return fmt.Errorf("%w: %s", errArtifactMissing, artifact)
	}

	checksum, err := fsutil.FileChecksum(artifact)
	if err != nil {
		return fmt.Errorf("checksum installer: %w", err)
	}

	logger.InfoKV(ctx, "Installer created", "path", artifact, "sha512", hex.EncodeToString(checksum))

	return nil
}
