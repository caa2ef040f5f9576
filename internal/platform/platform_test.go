package platform

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// TestDetect checks case-insensitive substring matching and the Linux fallback.
func TestDetect(t *testing.T) {
	t.Parallel()

	cases := map[string]Platform{
		"Mac OS X":   Mac,
		"MACOS":      Mac,
		"darwin":     Mac,
		"Windows 11": Windows,
		"windows":    Windows,
		"WINDOWS":    Windows,
		"Linux":      Linux,
		"freebsd":    Linux,
		"":           Linux,
	}
	for name, want := range cases {
		require.Equal(t, want, Detect(name), name)
	}
}

// TestParse covers aliases and rejection of unknown names.
func TestParse(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"mac", "MAC", "darwin", "osx"} {
		p, err := Parse(s)
		require.NoError(t, err)
		require.Equal(t, Mac, p)
	}

	p, err := Parse("Windows")
	require.NoError(t, err)
	require.Equal(t, Windows, p)

	_, err = Parse("plan9")
	require.Error(t, err)
}

// TestPlatformFlag ensures Platform plugs into a pflag.FlagSet.
func TestPlatformFlag(t *testing.T) {
	t.Parallel()

	target := Linux
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(&target, "platform", "target platform")

	require.NoError(t, fs.Parse([]string{"--platform", "windows"}))
	require.Equal(t, Windows, target)
	require.Equal(t, "WINDOWS", fs.Lookup("platform").Value.String())

	require.Error(t, fs.Parse([]string{"--platform", "amiga"}))
}

// TestPathListSeparator pins the module-path separator per platform.
func TestPathListSeparator(t *testing.T) {
	t.Parallel()

	require.Equal(t, ";", PathListSeparator(Windows))
	require.Equal(t, ":", PathListSeparator(Mac))
	require.Equal(t, ":", PathListSeparator(Linux))
}

// TestInstallerExtension checks supported extensions and the typed unsupported error.
func TestInstallerExtension(t *testing.T) {
	t.Parallel()

	ext, err := InstallerExtension(Mac)
	require.NoError(t, err)
	require.Equal(t, "dmg", ext)

	ext, err = InstallerExtension(Windows)
	require.NoError(t, err)
	require.Equal(t, "msi", ext)

	_, err = InstallerExtension(Linux)
	require.ErrorIs(t, err, ErrUnsupportedPlatform)

	var unsupported *UnsupportedError
	require.True(t, errors.As(err, &unsupported))
	require.Equal(t, Linux, unsupported.Platform)
	require.Contains(t, err.Error(), "LINUX")
}

// TestExecutableExtension checks the Windows suffix.
func TestExecutableExtension(t *testing.T) {
	t.Parallel()

	require.Equal(t, ".exe", ExecutableExtension(Windows))
	require.Empty(t, ExecutableExtension(Mac))
}
