package sidecar

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Child is the OS-level control surface of a launched worker.
type Child interface {
	// PID returns the OS process ID.
	PID() int

	// Events yields output and termination events. It is closed after the
	// Terminated event once all buffered output has been delivered.
	Events() <-chan Event

	// Done is closed when the process has exited.
	Done() <-chan struct{}

	// Interrupt asks the process to stop (SIGTERM on Unix).
	Interrupt() error

	// Kill forcefully terminates the process. Killing an exited process is not an error.
	Kill() error
}

// Launcher is the OS process-creation primitive.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) (Child, error)
}

// Handle is the live representation of a spawned worker.
type Handle struct {
	id        string
	spec      LaunchSpec
	child     Child
	startedAt time.Time
	drained   chan struct{}
}

func newHandle(child Child, spec LaunchSpec) *Handle {
	return &Handle{
		id:        uuid.New().String(),
		spec:      spec,
		child:     child,
		startedAt: time.Now().UTC(),
		drained:   make(chan struct{}),
	}
}

// ID returns a unique identifier for this launch.
func (h *Handle) ID() string {
	return h.id
}

// PID returns the OS process ID.
func (h *Handle) PID() int {
	return h.child.PID()
}

// Spec returns the launch spec the process was started from.
func (h *Handle) Spec() LaunchSpec {
	return h.spec
}

// StartedAt returns when the process was spawned.
func (h *Handle) StartedAt() time.Time {
	return h.startedAt
}

// Done returns a channel that is closed when the process exits.
func (h *Handle) Done() <-chan struct{} {
	return h.child.Done()
}

// Drained returns a channel that is closed when the output pump has finished.
func (h *Handle) Drained() <-chan struct{} {
	return h.drained
}

// Exited reports whether the process has already exited.
func (h *Handle) Exited() bool {
	select {
	case <-h.child.Done():
		return true
	default:
		return false
	}
}
