package packager

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tanin47/single-instance-deep-link/internal/config"
	"github.com/tanin47/single-instance-deep-link/internal/logger"
	"github.com/tanin47/single-instance-deep-link/internal/pipeline"
	"github.com/tanin47/single-instance-deep-link/internal/platform"
	"github.com/tanin47/single-instance-deep-link/internal/process"
	"github.com/tanin47/single-instance-deep-link/internal/repository/state"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to the packaging configuration (defaults to packaging.yaml).
	ConfigPath string
	// Platform overrides the target platform; nil means the host platform.
	Platform *platform.Platform
	// Target is the last stage to run; empty means the whole graph.
	Target string
	// Force reruns every selected stage.
	Force bool
	// DryRun plans the run and logs the external commands of the stages that would execute.
	DryRun bool
	// Runner replaces the process runner; nil means the real one.
	Runner process.Runner
}

// Commander is implemented by stages that invoke external tools.
type Commander interface {
	// Commands returns the commands the stage would run.
	Commands() ([]process.Command, error)
}

// packager wires one Build into a pipeline.
// It is unexported; callers should use Run or Plan.
type packager struct {
	build    *Build
	graph    *pipeline.Graph
	pipeline *pipeline.Pipeline
}

// Edges returns the dependencies between the packaging stages.
func Edges() []pipeline.Edge {
	return []pipeline.Edge{
		{From: StageArtifacts, To: StageRuntimeImage},
		{From: StageRuntimeImage, To: StageInstaller},
		{From: StageManifest, To: StageInstaller},
	}
}

// Stages returns the packaging stages for build in registration order.
func Stages(build *Build, runner process.Runner) []pipeline.Stage {
	return []pipeline.Stage{
		NewStager(build),
		NewRuntimeImageBuilder(build, runner),
		NewManifestRenderer(build),
		NewInstallerBuilder(build, runner),
	}
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "native-packager")

	pkg, err := newPackager(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	if opts.DryRun {
		return pkg.dryRun(ctx, opts.Target)
	}

	report, err := pkg.pipeline.Run(ctx, opts.Target)
	if report != nil {
		logReport(ctx, "Run", report)
	}

	if err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	pkg.printNextSteps(ctx, report)

	return nil
}

// dryRun logs the commands of every stage the plan would execute.
func (p *packager) dryRun(ctx context.Context, target string) error {
	report, err := p.pipeline.Plan(ctx, target)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	logReport(ctx, "Plan", report)

	var runner process.DryRunner

	for _, result := range report.Stages {
		if result.Outcome != pipeline.Executed {
			continue
		}

		stage, _ := p.graph.Stage(result.Name)

		commander, ok := stage.(Commander)
		if !ok {
			continue
		}

		commands, cmdErr := commander.Commands()
		if cmdErr != nil {
			return &pipeline.StageError{Stage: result.Name, Err: cmdErr}
		}

		for _, cmd := range commands {
			if _, err = runner.Run(logger.WithName(ctx, result.Name), cmd); err != nil {
				return err
			}
		}
	}

	return nil
}

// Plan reports which stages a run would execute without running any of them.
func Plan(ctx context.Context, opts *Options) (*pipeline.Report, error) {
	ctx = logger.WithName(ctx, "native-packager")

	pkg, err := newPackager(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("initialize packager: %w", err)
	}

	report, err := pkg.pipeline.Plan(ctx, opts.Target)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	logReport(ctx, "Plan", report)

	return report, nil
}

// newPackager loads the configuration and builds the stage graph.
func newPackager(ctx context.Context, opts *Options) (*packager, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	target := platform.Host()
	if opts.Platform != nil {
		target = *opts.Platform
	}

	// An unsupported platform fails when the installer stage is declared,
	// so targets that never reach it still work there.
	build := NewBuild(cfg, target)

	runner := opts.Runner
	if runner == nil {
		runner = process.NewExecRunner()
	}

	graph, err := pipeline.NewGraph(Stages(build, runner), Edges())
	if err != nil {
		return nil, err
	}

	repo := state.NewFileRepository(filepath.Join(cfg.BuildDir, state.DefaultFilename))

	logger.InfoKV(ctx, "Packaging configured",
		"app", cfg.AppName,
		"version", cfg.Version,
		"platform", target.String(),
		"state", repo.Path())

	p := pipeline.New(graph, repo,
		pipeline.WithPolicy(pipeline.Policy{Force: opts.Force}),
		pipeline.WithLockFile(filepath.Join(cfg.BuildDir, pipeline.DefaultLockFilename)),
	)

	return &packager{
		build:    build,
		graph:    graph,
		pipeline: p,
	}, nil
}

// logReport logs one line per stage.
func logReport(ctx context.Context, title string, report *pipeline.Report) {
	for _, s := range report.Stages {
		logger.InfoKV(ctx, title,
			"stage", s.Name,
			"outcome", s.Outcome.String(),
			"reason", s.Reason,
			"duration", s.Duration)
	}
}

// printNextSteps logs where the installer is and what to do with it.
func (p *packager) printNextSteps(ctx context.Context, report *pipeline.Report) {
	if len(report.Stages) == 0 {
		return
	}

	artifact, err := p.build.ArtifactPath()
	if _, ok := report.Result(StageInstaller); !ok || err != nil {
		logger.Infof(ctx, "Stopped after stage %q, no installer was built", report.Stages[len(report.Stages)-1].Name)

		return
	}

	var builder strings.Builder

	builder.WriteString("The installer is ready:\n")
	builder.WriteString(artifact)
	builder.WriteString("\nUpload it to the release or open it to install ")
	builder.WriteString(p.build.Config.AppName)
	builder.WriteString(" ")
	builder.WriteString(p.build.Config.Version)
	builder.WriteString(".")

	logger.Info(ctx, builder.String())
}
