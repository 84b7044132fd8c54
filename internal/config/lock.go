package config

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another host holds the instance lock.
var ErrAlreadyRunning = errors.New("craftgen is already running")

// InstanceLock is the single-instance guard held for the session lifetime.
type InstanceLock struct {
	lock *flock.Flock
}

// AcquireInstanceLock takes the exclusive lock on ~/.craftgen/craftgen.lock.
// It does not block: a held lock yields ErrAlreadyRunning.
func AcquireInstanceLock() (*InstanceLock, error) {
	if err := EnsureGlobalDir(); err != nil {
		return nil, fmt.Errorf("failed to create global directory: %w", err)
	}
	path, err := GlobalLockFile()
	if err != nil {
		return nil, err
	}

	fileLock := flock.New(path)
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	return &InstanceLock{lock: fileLock}, nil
}

// Release drops the lock. Safe to call on a nil lock.
func (l *InstanceLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
