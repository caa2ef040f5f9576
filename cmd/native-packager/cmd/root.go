package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tanin47/single-instance-deep-link/internal/logger"
	"github.com/tanin47/single-instance-deep-link/internal/platform"
	"github.com/tanin47/single-instance-deep-link/internal/service/packager"
	"github.com/tanin47/single-instance-deep-link/internal/version"
)

var (
	// configPath to the packaging configuration; empty means packaging.yaml or the user config.
	configPath string
	// targetPlatform is the platform the installer is built for.
	targetPlatform = platform.Host()
	// force reruns every selected stage.
	force bool
	// dryRun only logs the external commands.
	dryRun bool
	// logLevel is the minimum level of log messages.
	logLevel string

	// rootCmd represents the base command for building the installer.
	rootCmd = &cobra.Command{
		Use:   "native-packager [stage]",
		Short: "Build a native installer for a JVM application.",
		Long: `Stages the application archive and its dependencies, links a trimmed runtime
image with jlink, renders the macOS Info.plist and bundles everything with jpackage.

Stages whose outputs are newer than their inputs are skipped. A stage name
(stage-artifacts, jlink, prepare-info-plist, jpackage) stops the run after that
stage; the default is the whole graph ending in jpackage.`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: applyLogLevel,
		SilenceUsage:      true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return packager.Run(ctx, newOptions(args))
		},
	}
)

// newOptions builds the packager options from the flags and the optional stage argument.
func newOptions(args []string) *packager.Options {
	target := targetPlatform

	options := &packager.Options{
		ConfigPath: configPath,
		Platform:   &target,
		Force:      force,
		DryRun:     dryRun,
	}

	if len(args) > 0 {
		options.Target = args[0]
	}

	return options
}

func applyLogLevel(_ *cobra.Command, _ []string) error {
	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", logLevel)
	}

	logger.SetLevel(level)

	return nil
}

// Execute runs the native-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default packaging.yaml)")
	rootCmd.PersistentFlags().Var(&targetPlatform, "platform", "target platform: mac, windows or linux")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "rerun stages even if their outputs are up to date")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the external commands instead of running them")

	rootCmd.AddCommand(planCmd, initCmd)
}
