package packager

import (
	"errors"
	"path/filepath"

	"github.com/tanin47/single-instance-deep-link/internal/config"
	"github.com/tanin47/single-instance-deep-link/internal/platform"
)

// Stage names. They double as CLI targets and state file keys.
const (
	StageArtifacts    = "stage-artifacts"
	StageRuntimeImage = "jlink"
	StageManifest     = "prepare-info-plist"
	StageInstaller    = "jpackage"
)

// ErrMissingInput reports that a stage input does not exist or is empty.
var ErrMissingInput = errors.New("missing input")

// Layout lists every path the stages read or write.
type Layout struct {
	// StagingDir is the flat module-path directory holding the archive and its dependencies.
	StagingDir string
	// RuntimeImageDir receives the linked runtime image.
	RuntimeImageDir string
	// DestDir receives the installer.
	DestDir string
	// ManifestPath is the rendered Info.plist, next to its template.
	ManifestPath string
	// JLink is the image-linking tool.
	JLink string
	// JPackage is the native packaging tool.
	JPackage string
	// HostModules is the JDK's own module library.
	HostModules string
}

// Build is the immutable description of one packaging run, shared by every stage.
type Build struct {
	Config   *config.Config
	Platform platform.Platform
	Layout   Layout
}

// NewBuild derives the layout for cfg and target.
func NewBuild(cfg *config.Config, target platform.Platform) *Build {
	exe := platform.ExecutableExtension(target)
	bin := filepath.Join(cfg.JavaHome, "bin")

	return &Build{
		Config:   cfg,
		Platform: target,
		Layout: Layout{
			StagingDir:      filepath.Join(cfg.BuildDir, "jmods"),
			RuntimeImageDir: filepath.Join(cfg.BuildDir, "jlink"),
			DestDir:         filepath.Join(cfg.BuildDir, "jpackage"),
			ManifestPath:    filepath.Join(filepath.Dir(cfg.Mac.ManifestTemplate), "Info.plist"),
			JLink:           filepath.Join(bin, "jlink"+exe),
			JPackage:        filepath.Join(bin, "jpackage"+exe),
			HostModules:     filepath.Join(cfg.JavaHome, "jmods"),
		},
	}
}

// MainJarName is the file name of the application archive inside the staging directory.
func (b *Build) MainJarName() string {
	return b.Config.ProjectName + "-" + b.Config.Version + ".jar"
}

// MainJar is the staged application archive.
func (b *Build) MainJar() string {
	return filepath.Join(b.Layout.StagingDir, b.MainJarName())
}

// ArtifactName returns the installer file name for meta on target: {appName}-{version}.{dmg|msi}.
func ArtifactName(meta config.Metadata, target platform.Platform) (string, error) {
	ext, err := platform.InstallerExtension(target)
	if err != nil {
		return "", err
	}

	return meta.AppName + "-" + meta.Version + "." + ext, nil
}

// ArtifactPath returns where the installer is expected after the run.
func (b *Build) ArtifactPath() (string, error) {
	name, err := ArtifactName(b.Config.Metadata(), b.Platform)
	if err != nil {
		return "", err
	}

	return filepath.Join(b.Layout.DestDir, name), nil
}
