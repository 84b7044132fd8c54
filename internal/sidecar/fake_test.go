package sidecar

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeChild struct {
	pid             int
	events          chan Event
	done            chan struct{}
	once            sync.Once
	exitOnInterrupt bool
	killErr         error

	mu         sync.Mutex
	kills      int
	interrupts int
}

func newFakeChild(pid int) *fakeChild {
	return &fakeChild{
		pid:    pid,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
}

func (c *fakeChild) PID() int              { return c.pid }
func (c *fakeChild) Events() <-chan Event  { return c.events }
func (c *fakeChild) Done() <-chan struct{} { return c.done }

func (c *fakeChild) Interrupt() error {
	c.mu.Lock()
	c.interrupts++
	c.mu.Unlock()
	if c.exitOnInterrupt {
		c.exit(ExitStatus{Code: 0, Description: "exit status 0"})
	}
	return nil
}

func (c *fakeChild) Kill() error {
	c.mu.Lock()
	c.kills++
	err := c.killErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.exit(ExitStatus{Code: -1, Description: "signal: killed"})
	return nil
}

func (c *fakeChild) exit(status ExitStatus) {
	c.once.Do(func() {
		close(c.done)
		c.events <- Terminated(status)
		close(c.events)
	})
}

func (c *fakeChild) killCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kills
}

func (c *fakeChild) interruptCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interrupts
}

type fakeLauncher struct {
	mu    sync.Mutex
	err   error
	child *fakeChild
	specs []LaunchSpec
}

func (l *fakeLauncher) Launch(_ context.Context, spec LaunchSpec) (Child, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs = append(l.specs, spec)
	if l.err != nil {
		return nil, l.err
	}
	return l.child, nil
}

func (l *fakeLauncher) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.specs)
}

// recordHandler keeps every record it sees.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordHandler) snapshot() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]slog.Record(nil), h.records...)
}

// makeResources creates a functions tree under a temp dir and returns its root.
func makeResources(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{mainServiceDir, eventWorkerDir} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, FunctionsDirName, dir), 0o755))
	}
	return root
}
