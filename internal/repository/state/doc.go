// Package state persists the per-stage records of the packaging pipeline.
//
// The FileRepository stores and loads the records as YAML inside the build
// directory and exposes a Repository interface that the pipeline depends on.
package state
