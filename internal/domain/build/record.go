package build

import (
	"maps"
	"slices"
	"time"
)

// Record describes the last successful execution of a stage.
type Record struct {
	// Fingerprint identifies the declared inputs and properties the stage ran with.
	Fingerprint string `yaml:"fingerprint"`
	// Outputs are the paths the stage declared as produced.
	Outputs []string `yaml:"outputs,omitempty"`
	// CompletedAt is when the stage finished.
	CompletedAt time.Time `yaml:"completed_at"`
	// CompletedBy is who produced the outputs, when known.
	CompletedBy *Actor `yaml:"completed_by,omitempty"`
}

// Actor identifies the machine and user that ran a stage.
type Actor struct {
	Hostname string `yaml:"hostname"`
	Username string `yaml:"username"`
}

// String returns "user@host".
func (a *Actor) String() string {
	if a == nil {
		return ""
	}

	return a.Username + "@" + a.Hostname
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	cloned := &Record{
		Fingerprint: r.Fingerprint,
		Outputs:     slices.Clone(r.Outputs),
		CompletedAt: r.CompletedAt,
	}

	if r.CompletedBy != nil {
		actor := *r.CompletedBy
		cloned.CompletedBy = &actor
	}

	return cloned
}

// State maps stage names to their last records.
type State struct {
	// Stages holds one record per stage that completed at least once.
	Stages map[string]*Record `yaml:"stages"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Stages: make(map[string]*Record)}
}

// Record returns the record for stage, or nil.
func (s *State) Record(stage string) *Record {
	if s == nil {
		return nil
	}

	return s.Stages[stage]
}

// Put stores a copy of rec under stage.
func (s *State) Put(stage string, rec *Record) {
	if s.Stages == nil {
		s.Stages = make(map[string]*Record)
	}

	s.Stages[stage] = rec.Clone()
}

// Forget drops the record of stage so it runs on the next invocation.
func (s *State) Forget(stage string) {
	delete(s.Stages, stage)
}

// Clone returns a deep copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cloned := NewState()
	for name, rec := range s.Stages {
		cloned.Stages[name] = rec.Clone()
	}

	return cloned
}

// Names returns the stage names with a record, sorted.
func (s *State) Names() []string {
	return slices.Sorted(maps.Keys(s.Stages))
}
