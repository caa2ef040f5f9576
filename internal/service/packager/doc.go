// Package packager turns a built application archive into a platform-native
// installer.
//
// Four stages form the packaging graph: the artifacts are staged into one
// module-path directory, jlink links a trimmed runtime image from it, the
// macOS Info.plist is rendered from its template, and jpackage bundles
// everything into a .dmg or .msi. Stages are driven by internal/pipeline,
// which skips the ones whose outputs are still current.
package packager
