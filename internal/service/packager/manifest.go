package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tanin47/single-instance-deep-link/internal/config"
	"github.com/tanin47/single-instance-deep-link/internal/fsutil"
	"github.com/tanin47/single-instance-deep-link/internal/logger"
	"github.com/tanin47/single-instance-deep-link/internal/pipeline"
	"github.com/tanin47/single-instance-deep-link/internal/platform"
)

// Manifest template tokens.
const (
	TokenVersion           = "{{VERSION}}"
	TokenInternalVersion   = "{{INTERNAL_VERSION}}"
	TokenPackageIdentifier = "{{PACKAGE_IDENTIFIER}}"
	TokenAppName           = "{{APP_NAME}}"
)

var tokenPattern = regexp.MustCompile(`\{\{[A-Za-z0-9_]+\}\}`)

// Render substitutes the metadata tokens in template. Values are inserted
// verbatim and are not scanned again.
func Render(template string, meta config.Metadata) string {
	return strings.NewReplacer(
		TokenVersion, meta.Version,
		TokenInternalVersion, meta.InternalVersion,
		TokenPackageIdentifier, meta.PackageIdentifier,
		TokenAppName, meta.AppName,
	).Replace(template)
}

// UnresolvedTokens returns the distinct {{...}} tokens left in rendered, in order of appearance.
func UnresolvedTokens(rendered string) []string {
	var (
		seen   = make(map[string]struct{})
		tokens []string
	)

	for _, token := range tokenPattern.FindAllString(rendered, -1) {
		if _, ok := seen[token]; ok {
			continue
		}

		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}

	return tokens
}

// ManifestRenderer writes the macOS Info.plist from its template.
type ManifestRenderer struct {
	build *Build
}

// NewManifestRenderer creates the Info.plist stage.
func NewManifestRenderer(build *Build) *ManifestRenderer {
	return &ManifestRenderer{build: build}
}

// Name implements pipeline.Stage.
func (m *ManifestRenderer) Name() string { return StageManifest }

// Declare implements pipeline.Stage. The stage is skipped for every platform but MAC.
func (m *ManifestRenderer) Declare(context.Context) (pipeline.Spec, error) {
	if m.build.Platform != platform.Mac {
		return pipeline.Spec{
			SkipReason: "manifest is only rendered for " + platform.Mac.String(),
		}, nil
	}

	meta := m.build.Config.Metadata()

	return pipeline.Spec{
		Inputs:  []string{m.build.Config.Mac.ManifestTemplate},
		Outputs: []string{m.build.Layout.ManifestPath},
		Properties: map[string]string{
			"app_name":           meta.AppName,
			"version":            meta.Version,
			"internal_version":   meta.InternalVersion,
			"package_identifier": meta.PackageIdentifier,
		},
	}, nil
}

// Run renders the template and overwrites the manifest.
func (m *ManifestRenderer) Run(ctx context.Context) error {
	templatePath := m.build.Config.Mac.ManifestTemplate

	template, err := os.ReadFile(filepath.Clean(templatePath))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingInput, templatePath)
	} else if err != nil {
		return fmt.Errorf("read manifest template: %w", err)
	}

	rendered := Render(string(template), m.build.Config.Metadata())

	if leftovers := UnresolvedTokens(rendered); len(leftovers) > 0 {
		logger.WarnKV(ctx, "Manifest contains unresolved tokens", "tokens", leftovers)
	}

	if err = fsutil.WriteFile(m.build.Layout.ManifestPath, []byte(rendered), fsutil.DefaultFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	logger.InfoKV(ctx, "Manifest rendered", "path", m.build.Layout.ManifestPath)

	return nil
}
