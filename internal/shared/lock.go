package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// RunLock is the advisory marker that keeps two updates from running at once.
//
// The marker has no expiry: a crash that skips Release leaves it behind until
// removed by hand (see [ForceUnlock]).
type RunLock struct {
	Path string
	ID   string
}

// AcquireLock atomically creates the marker at path.
//
// When the marker already exists it is left untouched and [ErrUpdateRunning] is returned.
func AcquireLock(path string) (*RunLock, error) {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: lock file %s exists", ErrUpdateRunning, path)
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	defer f.Close()

	lock := &RunLock{Path: path, ID: GenerateID()}
	content := fmt.Sprintf("Updating\nrun=%s\nstarted=%s\n", lock.ID, time.Now().UTC().Format(time.RFC3339))
	if _, err := f.WriteString(content); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	return lock, nil
}

// Release removes the marker. Calling it more than once is harmless.
func (l *RunLock) Release() error {
	if err := os.Remove(l.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// LockHeld reports whether a marker exists at path.
func LockHeld(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ForceUnlock removes a stale marker left by an interrupted run.
func ForceUnlock(path string) error {
	return (&RunLock{Path: path}).Release()
}
