package pipeline

import "context"

// Spec is what a stage declares about itself before it runs.
type Spec struct {
	// SkipReason, when non-empty, disables the stage for this run.
	// Dependants treat a skipped stage as satisfied.
	SkipReason string
	// Inputs are files or directories the stage reads.
	Inputs []string
	// Outputs are files or directories the stage owns and writes.
	Outputs []string
	// Properties are non-file inputs (versions, arguments) that change the result.
	Properties map[string]string
}

// Stage is one unit of work in the packaging graph.
type Stage interface {
	// Name identifies the stage in edges, logs and the state file.
	Name() string
	// Declare returns the stage's inputs and outputs. It must not have side
	// effects; a declaration error aborts the run before any stage executes.
	Declare(ctx context.Context) (Spec, error)
	// Run performs the work.
	Run(ctx context.Context) error
}

// Outcome is what happened to a stage during a run.
type Outcome int

const (
	// Executed means the stage ran to completion.
	Executed Outcome = iota
	// UpToDate means the policy found the previous outputs still valid.
	UpToDate
	// Skipped means the stage was disabled by its declaration.
	Skipped
)

// String returns a lower-case outcome name.
func (o Outcome) String() string {
	switch o {
	case Executed:
		return "executed"
	case UpToDate:
		return "up-to-date"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}
