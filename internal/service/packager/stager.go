package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tanin47/single-instance-deep-link/internal/fsutil"
	"github.com/tanin47/single-instance-deep-link/internal/logger"
	"github.com/tanin47/single-instance-deep-link/internal/pipeline"
)

// Stager copies the dependency closure and the application archive into the staging directory.
type Stager struct {
	build *Build
}

// NewStager creates the artifact staging stage.
func NewStager(build *Build) *Stager {
	return &Stager{build: build}
}

// Name implements pipeline.Stage.
func (s *Stager) Name() string { return StageArtifacts }

// Declare implements pipeline.Stage.
func (s *Stager) Declare(context.Context) (pipeline.Spec, error) {
	cfg := s.build.Config

	inputs := make([]string, 0, len(cfg.Dependencies)+1)
	inputs = append(inputs, cfg.Dependencies...)
	inputs = append(inputs, cfg.AppArchive)

	return pipeline.Spec{
		Inputs:  inputs,
		Outputs: []string{s.build.Layout.StagingDir},
		Properties: map[string]string{
			"main_jar": s.build.MainJarName(),
		},
	}, nil
}

// Run cleans the staging directory once, then copies the dependencies and the archive into it.
func (s *Stager) Run(ctx context.Context) error {
	cfg := s.build.Config
	staging := s.build.Layout.StagingDir

	for _, src := range append([]string{cfg.AppArchive}, cfg.Dependencies...) {
		if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingInput, src)
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", src, err)
		}
	}

	if err := fsutil.Clean(staging); err != nil {
		return fmt.Errorf("clean staging directory: %w", err)
	}

	copied := 0

	for _, dep := range cfg.Dependencies {
		files, err := fsutil.CopyInto(dep, staging)
		if err != nil {
			return fmt.Errorf("stage dependency: %w", err)
		}

		copied += len(files)
	}

	// The archive is copied last and under its canonical name, so it wins any name clash.
	if err := fsutil.CopyFile(cfg.AppArchive, s.build.MainJar()); err != nil {
		return fmt.Errorf("stage application archive: %w", err)
	}

	logger.InfoKV(ctx, "Artifacts staged",
		"dir", staging,
		"dependencies", copied,
		"archive", filepath.Base(s.build.MainJar()))

	return nil
}
