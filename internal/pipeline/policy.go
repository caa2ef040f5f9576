package pipeline

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/zeebo/blake3"

	domain "github.com/tanin47/single-instance-deep-link/internal/domain/build"
)

// Reasons reported by the policy.
const (
	ReasonForced          = "forced"
	ReasonNoOutputs       = "no declared outputs"
	ReasonFirstRun        = "no previous run recorded"
	ReasonInputsChanged   = "inputs or properties changed"
	ReasonOutputMissing   = "declared output missing"
	ReasonOutputsOutdated = "inputs newer than outputs"
	ReasonUpToDate        = "outputs newer than inputs"
)

// Decision is the verdict of the policy for one stage.
type Decision struct {
	// UpToDate is true when the stage may be skipped.
	UpToDate bool
	// Reason explains the verdict.
	Reason string
	// Fingerprint is the current fingerprint of the stage's inputs and properties.
	Fingerprint string
}

// Policy decides whether a stage has to run.
type Policy struct {
	// Force makes every stage run regardless of its previous outputs.
	Force bool
}

// Evaluate applies the up-to-date rule to spec, given the record of the
// previous successful run (nil if there is none).
func (p Policy) Evaluate(spec Spec, previous *domain.Record) (Decision, error) {
	fingerprint, err := Fingerprint(spec)
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{Fingerprint: fingerprint}

	switch {
	case p.Force:
		decision.Reason = ReasonForced
	case len(spec.Outputs) == 0:
		decision.Reason = ReasonNoOutputs
	case previous == nil:
		decision.Reason = ReasonFirstRun
	case previous.Fingerprint != fingerprint:
		decision.Reason = ReasonInputsChanged
	default:
		decision.UpToDate, decision.Reason, err = compareTimes(spec)
		if err != nil {
			return Decision{}, err
		}
	}

	return decision, nil
}

// compareTimes checks that every output exists and the newest input is not after the oldest output.
func compareTimes(spec Spec) (bool, string, error) {
	var oldestOutput time.Time

	for _, out := range spec.Outputs {
		_, oldest, found, err := modTimes(out)
		if err != nil {
			return false, "", err
		}

		if !found {
			return false, ReasonOutputMissing, nil
		}

		if oldestOutput.IsZero() || oldest.Before(oldestOutput) {
			oldestOutput = oldest
		}
	}

	for _, in := range spec.Inputs {
		newest, _, found, err := modTimes(in)
		if err != nil {
			return false, "", err
		}

		if found && newest.After(oldestOutput) {
			return false, ReasonOutputsOutdated, nil
		}
	}

	return true, ReasonUpToDate, nil
}

// modTimes returns the newest and oldest modification time of the regular
// files below root. For a directory without files the directory's own time is
// used. found is false when root does not exist.
func modTimes(root string) (newest, oldest time.Time, found bool, err error) {
	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return newest, oldest, false, nil
	}

	if err != nil {
		return newest, oldest, false, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return info.ModTime(), info.ModTime(), true, nil
	}

	err = filepath.WalkDir(root, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		fi, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}

		mt := fi.ModTime()
		if newest.IsZero() || mt.After(newest) {
			newest = mt
		}

		if oldest.IsZero() || mt.Before(oldest) {
			oldest = mt
		}

		return nil
	})
	if err != nil {
		return newest, oldest, true, fmt.Errorf("walk %s: %w", root, err)
	}

	if newest.IsZero() {
		newest, oldest = info.ModTime(), info.ModTime()
	}

	return newest, oldest, true, nil
}

// Fingerprint computes a BLAKE3 digest over the declared properties, the
// declared outputs and the path, size and modification time of every file
// below the declared inputs. Every field is length-prefixed.
func Fingerprint(spec Spec) (string, error) {
	h := blake3.New()

	writeField := func(data string) {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(data)))
		_, _ = h.Write(length[:])
		_, _ = h.Write([]byte(data))
	}

	writeField("properties")

	for _, key := range slices.Sorted(maps.Keys(spec.Properties)) {
		writeField(key)
		writeField(spec.Properties[key])
	}

	writeField("outputs")

	for _, out := range spec.Outputs {
		writeField(out)
	}

	writeField("inputs")

	for _, in := range spec.Inputs {
		writeField(in)

		if err := fingerprintTree(in, writeField); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func fingerprintTree(root string, writeField func(string)) error {
	_, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		writeField("missing")

		return nil
	}

	if err != nil {
		return fmt.Errorf("stat %s: %w", root, err)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		fi, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		writeField(filepath.ToSlash(rel))
		writeField(fmt.Sprintf("%d:%d", fi.Size(), fi.ModTime().UnixNano()))

		return nil
	})
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", root, err)
	}

	return nil
}
