package fsutil

import (
	"bytes"
	"crypto"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DefaultDirMode is used for every directory a stage creates.
	DefaultDirMode os.FileMode = 0o755

	// DefaultFileMode is used for generated files such as the rendered manifest.
	DefaultFileMode os.FileMode = 0o644

	// DefaultChecksumFunction verifies every replaced file.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

var errHashUnavailable = errors.New("hash function unavailable")

// Clean removes dir with everything below it and recreates it empty.
func Clean(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	return nil
}

// IsEmptyDir reports whether path is a directory without entries.
// A missing directory counts as empty.
func IsEmptyDir(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}

	if err != nil {
		return false, err
	}

	return len(entries) == 0, nil
}

// Checksum returns the DefaultChecksumFunction digest of data.
func Checksum(data []byte) ([]byte, error) {
	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err := hasher.Write(data); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// FileChecksum returns the checksum of the file at path.
func FileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	return Checksum(contents)
}

// ReplaceFile atomically replaces target with the contents of r.
// The new contents are verified against their checksum before the swap, so a
// reader never observes a half-written file.
func ReplaceFile(r io.Reader, target string, mode os.FileMode) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read contents for %s: %w", target, err)
	}

	checksum, err := Checksum(data)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(target), DefaultDirMode); err != nil {
		return fmt.Errorf("create parent of %s: %w", target, err)
	}

	// The updater swaps files by renaming the existing target, so it must exist.
	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		placeholder, createErr := os.Create(filepath.Clean(target))
		if createErr != nil {
			return fmt.Errorf("create %s: %w", target, createErr)
		}

		_ = placeholder.Close()
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: mode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}

	// The updater only hides the previous version when it cannot delete it.
	oldFileName := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".old")
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}

// WriteFile atomically writes data to target.
func WriteFile(target string, data []byte, mode os.FileMode) error {
	return ReplaceFile(bytes.NewReader(data), target, mode)
}

// CopyFile copies src into target, keeping the source permissions.
func CopyFile(src, target string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = f.Close()
	}()

	return ReplaceFile(f, target, info.Mode().Perm())
}

// CopyInto copies src into dstDir. A file lands as dstDir/<base name>; a
// directory has its contents copied with their relative layout preserved.
// Existing files are overwritten, the last write wins.
func CopyInto(src, dstDir string) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		target := filepath.Join(dstDir, filepath.Base(src))

		return []string{target}, CopyFile(src, target)
	}

	var copied []string

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relPath, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}

		target := filepath.Join(dstDir, relPath)

		if d.IsDir() {
			return os.MkdirAll(target, DefaultDirMode)
		}

		if !d.Type().IsRegular() {
			return nil
		}

		copied = append(copied, target)

		return CopyFile(path, target)
	})
	if err != nil {
		return copied, fmt.Errorf("copy %s: %w", src, err)
	}

	return copied, nil
}
