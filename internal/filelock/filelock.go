// Package filelock serializes writers of a file across processes and replaces
// file contents atomically.
package filelock

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// Lock is an exclusive advisory lock held on a sidecar file
type Lock struct {
	flock *flock.Flock
	path  string
}

// New creates a lock backed by the file at path. The file is created on first Lock.
func New(path string) *Lock {
	return &Lock{flock: flock.New(path), path: path}
}

// Lock blocks until the lock is held
func (l *Lock) Lock() error {
	if err := l.flock.Lock(); err != nil {
		return errors.Wrapf(err, "failed to lock %s", l.path)
	}
	return nil
}

// Unlock releases the lock
func (l *Lock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return errors.Wrapf(err, "failed to unlock %s", l.path)
	}
	return nil
}

// WriteAtomic writes data to a temp file next to path and renames it into place,
// so readers see either the old or the new content
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrapf(err, "failed to sync %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmpPath)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return errors.Wrapf(err, "failed to set permissions on %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	committed = true
	return nil
}

// LockAndWrite holds "<path>.lock" while atomically replacing path
func LockAndWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	lock := New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	return WriteAtomic(path, data, perm)
}
