package version

import (
	"fmt"
	"runtime/debug"
)

// unset marks a value that was not injected at build time.
const unset = "unknown"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0-dev"
	// Commit is the short git SHA embedded at build time.
	Commit = unset
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = unset
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version with commit and build time. Values missing from
// ldflags are taken from the VCS stamp of the Go build info when present.
func Full() string {
	commit, builtAt := Commit, BuildTime

	if info, ok := debug.ReadBuildInfo(); ok {
		commit, builtAt = fromBuildSettings(info.Settings, commit, builtAt)
	}

	return fmt.Sprintf("native-packager %s (commit %s, built at %s)", Version, commit, builtAt)
}

// fromBuildSettings fills unset commit and time values from the vcs.* build settings.
func fromBuildSettings(settings []debug.BuildSetting, commit, builtAt string) (string, string) {
	const shortCommit = 7

	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if commit == unset && s.Value != "" {
				commit = s.Value
				if len(commit) > shortCommit {
					commit = commit[:shortCommit]
				}
			}
		case "vcs.time":
			if builtAt == unset && s.Value != "" {
				builtAt = s.Value
			}
		}
	}

	return commit, builtAt
}
