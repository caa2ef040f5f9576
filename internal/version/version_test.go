package version

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return non-empty consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Contains(t, Full(), "native-packager")
}

// TestFromBuildSettings verifies the VCS fallback only fills values missing from ldflags.
func TestFromBuildSettings(t *testing.T) {
	t.Parallel()

	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2025-01-02T03:04:05Z"},
	}

	commit, builtAt := fromBuildSettings(settings, unset, unset)
	require.Equal(t, "0123456", commit)
	require.Equal(t, "2025-01-02T03:04:05Z", builtAt)

	commit, builtAt = fromBuildSettings(settings, "feedbee", "yesterday")
	require.Equal(t, "feedbee", commit)
	require.Equal(t, "yesterday", builtAt)
}

// TestAttachCobraVersionCommand verifies the subcommand prints the full version.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "native-packager"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Equal(t, Full()+"\n", out.String())
}
