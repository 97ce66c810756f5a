package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileLock is an advisory lock held on a sidecar lock file.
// It only serializes cooperating processes.
type FileLock struct {
	f *os.File
}

// AcquireLock opens (creating if needed) the lock file at path and blocks
// until the lock is granted.
func AcquireLock(path string, exclusive bool) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := lockFile(f, exclusive); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	return &FileLock{f: f}, nil
}

// Release unlocks and closes the lock file
func (l *FileLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlockFile(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}

// WithLock runs fn while holding an exclusive lock on path
func WithLock(path string, fn func() error) error {
	lock, err := AcquireLock(path, true)
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}
