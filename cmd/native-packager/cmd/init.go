package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tanin47/single-instance-deep-link/internal/config"
)

var (
	// errConfigExists is returned when init would overwrite a configuration.
	errConfigExists = errors.New("configuration file already exists, use --overwrite to replace it")

	// initSettings collects the values written by init.
	initSettings config.Config
	// overwrite allows init to replace an existing file.
	overwrite bool

	// initCmd writes a starter configuration.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a packaging configuration with defaults filled in.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultConfigFilename
			}

			if _, err := os.Stat(path); err == nil && !overwrite {
				return fmt.Errorf("%s: %w", path, errConfigExists)
			}

			settings := initSettings
			if err := config.Save(path, &settings); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := initCmd.Flags()
	flags.StringVar(&initSettings.AppName, "app-name", "", "application display name")
	flags.StringVar(&initSettings.ProjectName, "project-name", "", "project name, the archive is {project-name}-{version}.jar")
	flags.StringVar(&initSettings.Version, "app-version", "", "application version")
	flags.StringVar(&initSettings.MainClass, "main-class", "", "fully qualified main class")
	flags.StringVar(&initSettings.Vendor, "vendor", "", "vendor name")
	flags.StringVar(&initSettings.PackageIdentifier, "package-identifier", "", "reverse-DNS package identifier")
	flags.StringVar(&initSettings.JavaHome, "java-home", "", "JDK providing jlink and jpackage (default $JAVA_HOME)")
	flags.BoolVar(&overwrite, "overwrite", false, "replace an existing configuration file")
}
