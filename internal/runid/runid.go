// Package runid allocates sequential run identifiers under a shared work
// root. Runs from concurrent invocations must not collide, so allocation
// holds a file lock while scanning and reserving the next id.
package runid

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

const lockFilename = ".runid.lock"

// Next reserves and returns the next run id under root, formatted as a
// zero-padded four digit string. The run's directory is created before the
// lock is released so a concurrent caller can never observe the same id.
func Next(root string) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("creating run root: %w", err)
	}

	lock := flock.New(filepath.Join(root, lockFilename))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("locking run root: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("scanning run root: %w", err)
	}

	next := 1
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		n, err := strconv.Atoi(entry.Name())
		if err != nil || n < 0 {
			continue
		}
		if n >= next {
			next = n + 1
		}
	}

	runID := fmt.Sprintf("%04d", next)
	if err := os.Mkdir(filepath.Join(root, runID), 0o755); err != nil {
		return "", fmt.Errorf("reserving run dir: %w", err)
	}
	return runID, nil
}
