package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
)

// Platform is the target operating system of a packaging run.
type Platform int

const (
	// Linux is the fallback for every host that is neither macOS nor Windows.
	Linux Platform = iota
	// Mac produces disk images.
	Mac
	// Windows produces MSI installers.
	Windows
)

var _ pflag.Value = (*Platform)(nil)

// ErrUnsupportedPlatform is matched by every UnsupportedError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// UnsupportedError reports a platform that has no behaviour defined at some decision point.
type UnsupportedError struct {
	// Platform is the offending value.
	Platform Platform
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedPlatform, e.Platform)
}

// Is lets errors.Is match ErrUnsupportedPlatform.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupportedPlatform
}

// Detect maps a host operating-system name to a Platform.
// Matching is case-insensitive and by substring; unknown names map to Linux.
func Detect(osName string) Platform {
	name := strings.ToLower(osName)

	switch {
	case strings.Contains(name, "mac"), strings.Contains(name, "darwin"):
		return Mac
	case strings.Contains(name, "windows"):
		return Windows
	default:
		return Linux
	}
}

// Host returns the platform of the running process.
func Host() Platform {
	return Detect(runtime.GOOS)
}

// Parse accepts the names produced by String (case-insensitive) and the
// aliases understood by Detect.
func Parse(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mac", "macos", "darwin", "osx":
		return Mac, nil
	case "windows", "win":
		return Windows, nil
	case "linux":
		return Linux, nil
	default:
		return Linux, fmt.Errorf("unknown platform %q", s)
	}
}

// String returns the upper-case platform name.
func (p Platform) String() string {
	switch p {
	case Mac:
		return "MAC"
	case Windows:
		return "WINDOWS"
	case Linux:
		return "LINUX"
	default:
		return fmt.Sprintf("Platform(%d)", int(p))
	}
}

// Set implements pflag.Value so the platform can be overridden from the command line.
func (p *Platform) Set(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// Type implements pflag.Value.
func (p *Platform) Type() string {
	return "platform"
}

// PathListSeparator returns the separator the JDK tools expect between module path entries.
func PathListSeparator(p Platform) string {
	switch p {
	case Windows:
		return ";"
	case Mac, Linux:
		return ":"
	default:
		return ":"
	}
}

// ExecutableExtension returns ".exe" on Windows and "" elsewhere.
func ExecutableExtension(p Platform) string {
	switch p {
	case Windows:
		return ".exe"
	case Mac, Linux:
		return ""
	default:
		return ""
	}
}

// InstallerExtension returns the file extension of the installer produced on p.
func InstallerExtension(p Platform) (string, error) {
	switch p {
	case Mac:
		return "dmg", nil
	case Windows:
		return "msi", nil
	case Linux:
		return "", &UnsupportedError{Platform: p}
	default:
		return "", &UnsupportedError{Platform: p}
	}
}
