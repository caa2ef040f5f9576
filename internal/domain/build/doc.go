// Package build contains the persisted bookkeeping of packaging runs: one
// Record per stage describing the fingerprint of the inputs it last ran with.
package build
