// Package version exposes build metadata for native-packager.
//
// Version, Commit and BuildTime are injected via ldflags; a plain go build
// falls back to the VCS stamp recorded in the binary.
package version
