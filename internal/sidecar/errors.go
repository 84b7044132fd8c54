package sidecar

import (
	"errors"
	"fmt"
)

var (
	// ErrResolutionFailed indicates a required resource directory could not be located.
	ErrResolutionFailed = errors.New("sidecar: resource resolution failed")

	// ErrExecFailed indicates the OS refused to create the process.
	ErrExecFailed = errors.New("sidecar: exec failed")

	// ErrKillFailed indicates the OS rejected the kill signal.
	ErrKillFailed = errors.New("sidecar: kill failed")

	// ErrLockContention indicates the runtime slot lock could not be acquired
	// before the caller's context ended. Callers treat it as an empty slot.
	ErrLockContention = errors.New("sidecar: slot lock not acquired")

	// ErrSlotOccupied is returned by Slot.Store when a handle is already stored.
	ErrSlotOccupied = errors.New("sidecar: slot already holds a process")

	// ErrNilHandle is returned by Slot.Store for a nil handle.
	ErrNilHandle = errors.New("sidecar: nil handle")
)

// KillError reports an OS-level failure to terminate the worker.
// It matches ErrKillFailed and the underlying OS error with errors.Is.
type KillError struct {
	PID int
	Err error
}

func (e *KillError) Error() string {
	return fmt.Sprintf("kill edge runtime (pid %d): %v", e.PID, e.Err)
}

func (e *KillError) Unwrap() []error {
	return []error{ErrKillFailed, e.Err}
}
