package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Config holds everything the packaging pipeline needs to know about the application.
type Config struct {
	// AppName is the display name and the installer file prefix.
	AppName string `yaml:"app_name" json:"app_name"`
	// ProjectName names the application archive: {ProjectName}-{Version}.jar.
	ProjectName string `yaml:"project_name" json:"project_name"`
	// Version is the application version.
	Version string `yaml:"version" json:"version"`
	// InternalVersion is the build counter written into the macOS manifest.
	InternalVersion string `yaml:"internal_version" json:"internal_version"`
	// PackageIdentifier is the reverse-DNS bundle identifier.
	PackageIdentifier string `yaml:"package_identifier" json:"package_identifier"`
	// Vendor is passed to the packager.
	Vendor string `yaml:"vendor" json:"vendor"`
	// Copyright is passed to the packager.
	Copyright string `yaml:"copyright" json:"copyright"`
	// MainClass is the application entry point.
	MainClass string `yaml:"main_class" json:"main_class"`
	// JavaHome is the JDK providing jlink, jpackage and the base jmods.
	JavaHome string `yaml:"java_home" json:"java_home"`
	// BuildDir receives every stage output.
	BuildDir string `yaml:"build_dir" json:"build_dir"`
	// AppArchive is the application jar produced by the upstream build.
	AppArchive string `yaml:"app_archive" json:"app_archive"`
	// Dependencies are the files or directories of the resolved runtime closure.
	Dependencies []string `yaml:"dependencies" json:"dependencies"`
	// Modules are the JDK modules linked into the runtime image.
	Modules []string `yaml:"modules" json:"modules"`
	// JavaOptions are extra JVM flags baked into the launcher.
	JavaOptions []string `yaml:"java_options" json:"java_options"`
	// Env is overlaid on the inherited environment of every external tool.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	// Mac holds macOS specific resources.
	Mac MacConfig `yaml:"mac" json:"mac"`
	// Windows holds Windows specific resources.
	Windows WindowsConfig `yaml:"windows" json:"windows"`
}

// MacConfig holds macOS packaging resources.
type MacConfig struct {
	// ResourceDir contains icons and the rendered Info.plist.
	ResourceDir string `yaml:"resource_dir" json:"resource_dir"`
	// ManifestTemplate is the Info.plist template with {{...}} tokens.
	ManifestTemplate string `yaml:"manifest_template" json:"manifest_template"`
}

// WindowsConfig holds Windows packaging resources.
type WindowsConfig struct {
	// Icon is the .ico file used for the installer and shortcuts.
	Icon string `yaml:"icon" json:"icon"`
}

// Metadata is the build metadata substituted into the platform manifest.
type Metadata struct {
	AppName           string
	Version           string
	PackageIdentifier string
	InternalVersion   string
}

const (
	// DefaultConfigFilename is looked up in the working directory when no path is given.
	DefaultConfigFilename = "packaging.yaml"

	// DefaultBuildDir is the build output directory.
	DefaultBuildDir = "build"

	// DefaultInternalVersion is the manifest build counter.
	DefaultInternalVersion = "1"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// appDirName is the directory name under the user configuration home.
	appDirName = "native-packager"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errConfigNotFound is returned when no configuration file can be located.
	errConfigNotFound = errors.New("configuration file not found")
	// errFieldRequired is returned when a mandatory field is empty.
	errFieldRequired = errors.New("field is required")
	// errPathSeparator is returned when a file name component contains a path separator.
	errPathSeparator = errors.New("must not contain path separators")
)

// DefaultModules returns the JDK modules linked when none are configured.
func DefaultModules() []string {
	return []string{"java.base", "java.desktop", "java.logging"}
}

// DefaultJavaOptions returns the JVM flags used when none are configured.
func DefaultJavaOptions() []string {
	return []string{"-Dbackdoor.packaged=true"}
}

// Metadata returns the build metadata view of the configuration.
func (c *Config) Metadata() Metadata {
	return Metadata{
		AppName:           c.AppName,
		Version:           c.Version,
		PackageIdentifier: c.PackageIdentifier,
		InternalVersion:   c.InternalVersion,
	}
}

// Resolve returns the configuration file to load. An explicit path wins,
// then DefaultConfigFilename in the working directory, then the user-level
// file under the XDG configuration home.
func Resolve(path string) (string, error) {
	if path != "" {
		return path, nil
	}

	if _, err := os.Stat(DefaultConfigFilename); err == nil {
		return DefaultConfigFilename, nil
	}

	found, err := xdg.SearchConfigFile(filepath.Join(appDirName, DefaultConfigFilename))
	if err != nil {
		return "", fmt.Errorf("%w: %s", errConfigNotFound, DefaultConfigFilename)
	}

	return found, nil
}

// Load locates, reads and validates the configuration. Relative paths are
// resolved against the directory of the configuration file.
func Load(path string) (*Config, error) {
	path, err := Resolve(path)
	if err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = decode(path, contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve settings directory: %w", err)
	}

	cfg.resolvePaths(baseDir)

	return &cfg, nil
}

// Save writes cfg to the provided path, as JSON for .json/.jsonc files and YAML otherwise.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)

	if isJSON(path) {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}

	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.JavaHome == "" {
		settings.JavaHome = os.Getenv("JAVA_HOME")
	}

	required := []struct {
		name  string
		value string
	}{
		{"app_name", settings.AppName},
		{"project_name", settings.ProjectName},
		{"version", settings.Version},
		{"main_class", settings.MainClass},
		{"vendor", settings.Vendor},
		{"java_home", settings.JavaHome},
	}

	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s: %w", field.name, errFieldRequired)
		}
	}

	// These end up in the staged archive and installer file names.
	fileNameParts := []struct {
		name  string
		value string
	}{
		{"app_name", settings.AppName},
		{"project_name", settings.ProjectName},
		{"version", settings.Version},
	}

	for _, field := range fileNameParts {
		if strings.ContainsAny(field.value, `/\`) {
			return fmt.Errorf("%s %q: %w", field.name, field.value, errPathSeparator)
		}
	}

	applyDefaults(settings)

	return nil
}

func applyDefaults(settings *Config) {
	if settings.BuildDir == "" {
		settings.BuildDir = DefaultBuildDir
	}

	if settings.InternalVersion == "" {
		settings.InternalVersion = DefaultInternalVersion
	}

	if settings.PackageIdentifier == "" {
		settings.PackageIdentifier = settings.ProjectName
	}

	if settings.Copyright == "" {
		settings.Copyright = settings.Vendor
	}

	if settings.AppArchive == "" {
		settings.AppArchive = filepath.Join(settings.BuildDir, "libs", settings.ProjectName+"-"+settings.Version+".jar")
	}

	if len(settings.Modules) == 0 {
		settings.Modules = DefaultModules()
	}

	if len(settings.JavaOptions) == 0 {
		settings.JavaOptions = DefaultJavaOptions()
	}

	if settings.Mac.ResourceDir == "" {
		settings.Mac.ResourceDir = "mac-resources"
	}

	if settings.Mac.ManifestTemplate == "" {
		settings.Mac.ManifestTemplate = filepath.Join(settings.Mac.ResourceDir, "Info.plist.template")
	}

	if settings.Windows.Icon == "" {
		settings.Windows.Icon = filepath.Join("win-resources", "app.ico")
	}
}

// resolvePaths makes every filesystem path absolute against baseDir.
func (c *Config) resolvePaths(baseDir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}

		return filepath.Join(baseDir, p)
	}

	c.JavaHome = abs(c.JavaHome)
	c.BuildDir = abs(c.BuildDir)
	c.AppArchive = abs(c.AppArchive)
	c.Mac.ResourceDir = abs(c.Mac.ResourceDir)
	c.Mac.ManifestTemplate = abs(c.Mac.ManifestTemplate)
	c.Windows.Icon = abs(c.Windows.Icon)

	for i, dep := range c.Dependencies {
		c.Dependencies[i] = abs(dep)
	}
}

func decode(path string, contents []byte, cfg *Config) error {
	if isJSON(path) {
		return json.Unmarshal(jsonc.ToJSON(contents), cfg)
	}

	return yaml.Unmarshal(contents, cfg)
}

func isJSON(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return true
	default:
		return false
	}
}
