package pipeline

import (
	"context"
	"fmt"
	"time"

	domain "github.com/tanin47/single-instance-deep-link/internal/domain/build"
	"github.com/tanin47/single-instance-deep-link/internal/logger"
	"github.com/tanin47/single-instance-deep-link/internal/repository/state"
)

// ReasonUpstreamRuns is the plan reason for a stage whose dependency will execute.
const ReasonUpstreamRuns = "upstream stage will run"

// Pipeline executes a stage graph against a state repository.
type Pipeline struct {
	graph    *Graph
	repo     state.Repository
	policy   Policy
	lockPath string
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPolicy replaces the default policy.
func WithPolicy(p Policy) Option {
	return func(pl *Pipeline) { pl.policy = p }
}

// WithLockFile enables the exclusive build directory lock at path.
func WithLockFile(path string) Option {
	return func(pl *Pipeline) { pl.lockPath = path }
}

// StageResult describes one stage in a Report.
type StageResult struct {
	Name     string
	Outcome  Outcome
	Reason   string
	Duration time.Duration
}

// Report lists the stages of a run in execution order.
type Report struct {
	Stages []StageResult
}

// Executed returns the names of the stages that actually ran.
func (r *Report) Executed() []string {
	var names []string

	for _, s := range r.Stages {
		if s.Outcome == Executed {
			names = append(names, s.Name)
		}
	}

	return names
}

// Result returns the result recorded for a stage.
func (r *Report) Result(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}

	return StageResult{}, false
}

// New creates a Pipeline.
func New(graph *Graph, repo state.Repository, opts ...Option) *Pipeline {
	p := &Pipeline{
		graph: graph,
		repo:  repo,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type declared struct {
	stage Stage
	spec  Spec
}

// declare collects the declarations of target's closure before anything runs.
func (p *Pipeline) declare(ctx context.Context, target string) ([]declared, error) {
	names, err := p.graph.Closure(target)
	if err != nil {
		return nil, err
	}

	out := make([]declared, 0, len(names))

	for _, name := range names {
		stage, _ := p.graph.Stage(name)

		spec, declErr := stage.Declare(ctx)
		if declErr != nil {
			return nil, &StageError{Stage: name, Err: declErr}
		}

		out = append(out, declared{stage: stage, spec: spec})
	}

	return out, nil
}

// Run executes target and its dependencies in order. An empty target runs every stage.
// The first failing stage aborts the run; the partial report is returned with the error.
func (p *Pipeline) Run(ctx context.Context, target string) (*Report, error) {
	stages, err := p.declare(ctx, target)
	if err != nil {
		return nil, err
	}

	if p.lockPath != "" {
		lock, lockErr := AcquireLock(ctx, p.lockPath)
		if lockErr != nil {
			return nil, lockErr
		}

		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				logger.Warnf(ctx, "Unable to release lock: %v", releaseErr)
			}
		}()
	}

	records, err := state.LoadOrEmpty(ctx, p.repo)
	if err != nil {
		return nil, fmt.Errorf("load stage records: %w", err)
	}

	actor, err := DetectActor()
	if err != nil {
		logger.Debugf(ctx, "Stage records will not name the builder: %v", err)
	}

	report := &Report{Stages: make([]StageResult, 0, len(stages))}

	for _, d := range stages {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		result, runErr := p.runStage(ctx, d, records, actor)
		report.Stages = append(report.Stages, result)

		if runErr != nil {
			return report, &StageError{Stage: d.stage.Name(), Err: runErr}
		}
	}

	logger.DebugKV(ctx, "Stage records saved", "stages", records.Names())

	return report, nil
}

func (p *Pipeline) runStage(
	ctx context.Context,
	d declared,
	records *domain.State,
	actor *domain.Actor,
) (StageResult, error) {
	name := d.stage.Name()
	stageCtx := logger.WithName(ctx, name)
	result := StageResult{Name: name}

	if d.spec.SkipReason != "" {
		result.Outcome, result.Reason = Skipped, d.spec.SkipReason
		logger.InfoKV(stageCtx, "Stage skipped", "reason", result.Reason)

		return result, nil
	}

	decision, err := p.policy.Evaluate(d.spec, records.Record(name))
	if err != nil {
		return result, err
	}

	result.Reason = decision.Reason

	if decision.UpToDate {
		result.Outcome = UpToDate
		logger.InfoKV(stageCtx, "Stage up to date", "reason", result.Reason)

		return result, nil
	}

	// The old record is invalid from here on, whatever the outcome.
	records.Forget(name)

	if err = p.repo.Save(ctx, records); err != nil {
		return result, fmt.Errorf("save stage records: %w", err)
	}

	logger.InfoKV(stageCtx, "Stage started", "reason", result.Reason)

	started := p.now()

	err = d.stage.Run(stageCtx)
	result.Outcome = Executed
	result.Duration = p.now().Sub(started)

	if err != nil {
		logger.ErrorKV(stageCtx, "Stage failed", "error", err)

		return result, err
	}

	// Outputs changed, so the fingerprint covering them is taken again.
	fingerprint, err := Fingerprint(d.spec)
	if err != nil {
		return result, err
	}

	records.Put(name, &domain.Record{
		Fingerprint: fingerprint,
		Outputs:     append([]string(nil), d.spec.Outputs...),
		CompletedAt: p.now().UTC(),
		CompletedBy: actor,
	})

	if err = p.repo.Save(ctx, records); err != nil {
		return result, fmt.Errorf("save stage records: %w", err)
	}

	logger.InfoKV(stageCtx, "Stage finished", "duration", result.Duration)

	return result, nil
}

// Plan reports what Run would do without executing anything or taking the lock.
// A stage is predicted to run when any of its upstream stages is predicted to run.
func (p *Pipeline) Plan(ctx context.Context, target string) (*Report, error) {
	stages, err := p.declare(ctx, target)
	if err != nil {
		return nil, err
	}

	records, err := state.LoadOrEmpty(ctx, p.repo)
	if err != nil {
		return nil, fmt.Errorf("load stage records: %w", err)
	}

	report := &Report{Stages: make([]StageResult, 0, len(stages))}
	willRun := make(map[string]bool, len(stages))

	for _, d := range stages {
		name := d.stage.Name()
		result := StageResult{Name: name}

		switch {
		case d.spec.SkipReason != "":
			result.Outcome, result.Reason = Skipped, d.spec.SkipReason
		case p.anyUpstreamRuns(name, willRun):
			result.Outcome, result.Reason = Executed, ReasonUpstreamRuns
		default:
			decision, evalErr := p.policy.Evaluate(d.spec, records.Record(name))
			if evalErr != nil {
				return nil, &StageError{Stage: name, Err: evalErr}
			}

			result.Reason = decision.Reason
			if decision.UpToDate {
				result.Outcome = UpToDate
			} else {
				result.Outcome = Executed
			}
		}

		willRun[name] = result.Outcome == Executed
		report.Stages = append(report.Stages, result)
	}

	return report, nil
}

func (p *Pipeline) anyUpstreamRuns(name string, willRun map[string]bool) bool {
	for _, up := range p.graph.Upstream(name) {
		if willRun[up] {
			return true
		}
	}

	return false
}
