package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AppName:     "Demo",
		ProjectName: "demo",
		Version:     "1.0",
		MainClass:   "com.demo.Main",
		Vendor:      "Demo Inc",
		JavaHome:    "/opt/jdk",
	}
}

// TestValidate checks required fields and the defaults filled in for a minimal config.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)

	// Missing main class.
	settings := validConfig()
	settings.MainClass = " "

	err := Validate(settings)
	require.ErrorIs(t, err, errFieldRequired)
	require.Contains(t, err.Error(), "main_class")

	// Names that become file names must not escape the output directory.
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Version = "1.0/evil" },
		func(c *Config) { c.AppName = `..\Demo` },
		func(c *Config) { c.ProjectName = "libs/demo" },
	} {
		settings = validConfig()
		mutate(settings)
		require.ErrorIs(t, Validate(settings), errPathSeparator)
	}

	// Okay with defaults.
	settings = validConfig()
	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultBuildDir, settings.BuildDir)
	require.Equal(t, DefaultInternalVersion, settings.InternalVersion)
	require.Equal(t, "demo", settings.PackageIdentifier)
	require.Equal(t, "Demo Inc", settings.Copyright)
	require.Equal(t, DefaultModules(), settings.Modules)
	require.Equal(t, DefaultJavaOptions(), settings.JavaOptions)
	require.Equal(t, filepath.Join("build", "libs", "demo-1.0.jar"), settings.AppArchive)
	require.Equal(t, filepath.Join("mac-resources", "Info.plist.template"), settings.Mac.ManifestTemplate)
}

// TestValidate_JavaHomeFromEnvironment falls back to $JAVA_HOME.
func TestValidate_JavaHomeFromEnvironment(t *testing.T) {
	t.Setenv("JAVA_HOME", "/usr/lib/jvm/21")

	settings := validConfig()
	settings.JavaHome = ""

	require.NoError(t, Validate(settings))
	require.Equal(t, "/usr/lib/jvm/21", settings.JavaHome)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back with absolute paths.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "packaging.yaml")

	settings := validConfig()
	settings.Dependencies = []string{"build/deps"}
	settings.Env = map[string]string{"JDK_JAVA_OPTIONS": "-Xmx1g"}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.AppName, loaded.AppName)
	require.Equal(t, settings.Version, loaded.Version)
	require.Equal(t, settings.Env, loaded.Env)
	require.Equal(t, filepath.Join(dir, "build"), loaded.BuildDir)
	require.Equal(t, filepath.Join(dir, "build", "deps"), loaded.Dependencies[0])
	require.Equal(t, filepath.Join(dir, "build", "libs", "demo-1.0.jar"), loaded.AppArchive)
	require.Equal(t, "/opt/jdk", loaded.JavaHome)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_JSONC accepts comments and trailing commas.
func TestLoad_JSONC(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "packaging.jsonc")
	contents := `{
  // Display name shown in Finder and the Start menu.
  "app_name": "Demo",
  "project_name": "demo",
  "version": "1.0",
  "package_identifier": "com.demo",
  "main_class": "com.demo.Main",
  "vendor": "Demo Inc",
  "java_home": "/opt/jdk",
  "modules": ["java.base",],
}`
	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "com.demo", loaded.PackageIdentifier)
	require.Equal(t, []string{"java.base"}, loaded.Modules)
	require.Equal(t, loaded.Metadata(), Metadata{
		AppName:           "Demo",
		Version:           "1.0",
		PackageIdentifier: "com.demo",
		InternalVersion:   DefaultInternalVersion,
	})
}

// TestLoad_MissingFile wraps the read error.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestResolve_PrefersExplicitPath returns the given path untouched.
func TestResolve_PrefersExplicitPath(t *testing.T) {
	t.Parallel()

	got, err := Resolve("custom.yaml")
	require.NoError(t, err)
	require.Equal(t, "custom.yaml", got)
}
