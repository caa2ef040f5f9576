// Package pipeline runs packaging stages as a small dependency graph.
//
// Each Stage declares its inputs and outputs. Before a stage runs, the
// Policy decides whether it is up to date: every declared output exists, no
// input is newer than the oldest output, and the fingerprint of the inputs
// and properties matches the one recorded after the previous successful run.
// Stages execute strictly one after another in topological order and the
// first failure aborts the run.
//
// Typical use:
//
//	graph, err := pipeline.NewGraph(stages, edges)
//	if err != nil {
//		return err
//	}
//
//	report, err := pipeline.New(graph, repo, pipeline.WithLockFile(lockPath)).Run(ctx, "jpackage")
package pipeline
