package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftgen/craftgen/internal/sidecar"
)

type fakeChild struct {
	pid    int
	events chan sidecar.Event
	done   chan struct{}
	once   sync.Once
	kills  *atomic.Int32
}

func (c *fakeChild) PID() int                     { return c.pid }
func (c *fakeChild) Events() <-chan sidecar.Event { return c.events }
func (c *fakeChild) Done() <-chan struct{}        { return c.done }
func (c *fakeChild) Interrupt() error             { return nil }

func (c *fakeChild) Kill() error {
	c.kills.Add(1)
	c.once.Do(func() {
		close(c.done)
		c.events <- sidecar.Terminated(sidecar.ExitStatus{Code: -1, Description: "signal: killed"})
		close(c.events)
	})
	return nil
}

// fakeLauncher fails the first failures launches, then hands out children.
// When gate is set each launch waits for it before returning.
type fakeLauncher struct {
	failures int32
	gate     chan struct{}
	entered  chan struct{}

	calls atomic.Int32
	kills atomic.Int32

	mu       sync.Mutex
	children []*fakeChild
}

func (l *fakeLauncher) Launch(_ context.Context, _ sidecar.LaunchSpec) (sidecar.Child, error) {
	n := l.calls.Add(1)
	if l.entered != nil {
		close(l.entered)
	}
	if l.gate != nil {
		<-l.gate
	}
	if n <= l.failures {
		return nil, errors.New("text file busy")
	}

	c := &fakeChild{
		pid:    1000 + int(n),
		events: make(chan sidecar.Event, 16),
		done:   make(chan struct{}),
		kills:  &l.kills,
	}
	l.mu.Lock()
	l.children = append(l.children, c)
	l.mu.Unlock()
	return c, nil
}

func (l *fakeLauncher) child(t *testing.T) *fakeChild {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.Len(t, l.children, 1)
	return l.children[0]
}

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

func (h *recordHandler) has(level slog.Level, msg string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Level == level && r.Message == msg {
			return true
		}
	}
	return false
}

func makeResources(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"main", "event"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, sidecar.FunctionsDirName, dir), 0o755))
	}
	return root
}

type fixture struct {
	launcher *fakeLauncher
	slot     *sidecar.Slot
	router   *Router
	logs     *recordHandler
}

func newFixture(t *testing.T, l *fakeLauncher, resourceDir string, cfg Config) *fixture {
	t.Helper()
	if resourceDir == "" {
		resourceDir = makeResources(t)
	}
	logs := &recordHandler{}
	logger := slog.New(logs)
	sup := sidecar.New(sidecar.Config{
		Binary:      "edge-runtime",
		ResourceDir: resourceDir,
		Port:        24321,
	}, sidecar.WithLauncher(l), sidecar.WithLogger(logger))

	slot := sidecar.NewSlot()
	cfg.RetryInterval = time.Millisecond
	return &fixture{
		launcher: l,
		slot:     slot,
		router:   New(sup, slot, cfg, WithLogger(logger)),
		logs:     logs,
	}
}

func (f *fixture) peek(t *testing.T) *sidecar.Handle {
	t.Helper()
	h, err := f.slot.Peek(context.Background())
	require.NoError(t, err)
	return h
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestReadyThenExitRequested(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeLauncher{}, "", Config{})

	f.router.Ready(ctx)
	require.Equal(t, StateRunning, f.router.State())

	h := f.peek(t)
	require.NotNil(t, h)

	f.launcher.child(t).events <- sidecar.StdoutLine("ready")
	require.Eventually(t, func() bool {
		return f.logs.has(slog.LevelInfo, "ready")
	}, 2*time.Second, 5*time.Millisecond)

	f.router.Shutdown(ctx, TriggerExitRequested)
	assert.Equal(t, StateStopped, f.router.State())
	waitClosed(t, f.router.Done(), "router done")
	assert.Nil(t, f.peek(t))
	assert.Equal(t, int32(1), f.launcher.kills.Load())
	assert.True(t, h.Exited())

	f.router.Shutdown(ctx, TriggerExit)
	assert.Equal(t, int32(1), f.launcher.kills.Load(), "final exit must find the slot empty")
}

func TestShutdownTriggerOrders(t *testing.T) {
	orders := [][]Trigger{
		{TriggerExitRequested, TriggerQuit, TriggerExit},
		{TriggerExitRequested, TriggerExit, TriggerQuit},
		{TriggerQuit, TriggerExitRequested, TriggerExit},
		{TriggerQuit, TriggerExit, TriggerExitRequested},
		{TriggerExit, TriggerExitRequested, TriggerQuit},
		{TriggerExit, TriggerQuit, TriggerExitRequested},
	}

	for _, order := range orders {
		t.Run(order[0].String()+"_"+order[1].String()+"_"+order[2].String(), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, &fakeLauncher{}, "", Config{})
			f.router.Ready(ctx)

			for _, trig := range order {
				f.router.Shutdown(ctx, trig)
			}

			assert.Equal(t, int32(1), f.launcher.kills.Load())
			assert.Equal(t, StateStopped, f.router.State())
		})
	}
}

func TestConcurrentTriggersKillOnce(t *testing.T) {
	for range 20 {
		ctx := context.Background()
		f := newFixture(t, &fakeLauncher{}, "", Config{})
		f.router.Ready(ctx)

		var wg sync.WaitGroup
		for _, trig := range []Trigger{TriggerExitRequested, TriggerExitRequested, TriggerQuit, TriggerExit} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.router.Shutdown(ctx, trig)
			}()
		}
		wg.Wait()

		waitClosed(t, f.router.Done(), "router done")
		assert.Equal(t, int32(1), f.launcher.kills.Load())
		assert.Nil(t, f.peek(t))
	}
}

func TestSpawnFailureDegrades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeLauncher{}, t.TempDir(), Config{SpawnRetries: 3})

	f.router.Ready(ctx)

	assert.Equal(t, StateRunning, f.router.State())
	assert.Nil(t, f.peek(t))
	assert.Zero(t, f.launcher.calls.Load(), "resolution failures are not retried")
	assert.True(t, f.logs.has(slog.LevelError, "edge runtime failed to start, continuing without it"))

	f.router.Shutdown(ctx, TriggerQuit)
	assert.Equal(t, StateStopped, f.router.State())
	assert.Zero(t, f.launcher.kills.Load())
}

func TestExecFailureWithoutRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeLauncher{failures: 1}, "", Config{})

	f.router.Ready(ctx)

	assert.Equal(t, StateRunning, f.router.State())
	assert.Nil(t, f.peek(t))
	assert.Equal(t, int32(1), f.launcher.calls.Load())
}

func TestSpawnRetrySucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeLauncher{failures: 2}, "", Config{SpawnRetries: 3})

	f.router.Ready(ctx)

	assert.Equal(t, StateRunning, f.router.State())
	assert.NotNil(t, f.peek(t))
	assert.Equal(t, int32(3), f.launcher.calls.Load())
}

func TestShutdownBeforeReady(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeLauncher{}, "", Config{})

	f.router.Shutdown(ctx, TriggerExitRequested)
	assert.Equal(t, StateStopped, f.router.State())
	waitClosed(t, f.router.Done(), "router done")

	f.router.Ready(ctx)
	assert.Equal(t, StateStopped, f.router.State())
	assert.Zero(t, f.launcher.calls.Load())
}

func TestShutdownDuringSpawn(t *testing.T) {
	ctx := context.Background()
	l := &fakeLauncher{
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
	f := newFixture(t, l, "", Config{})

	readyDone := make(chan struct{})
	go func() {
		defer close(readyDone)
		f.router.Ready(ctx)
	}()
	waitClosed(t, l.entered, "launch to start")
	assert.Equal(t, StateStarting, f.router.State())

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		f.router.Shutdown(ctx, TriggerQuit)
	}()

	require.Eventually(t, func() bool {
		return f.router.State() == StateShuttingDown
	}, 2*time.Second, time.Millisecond)

	close(l.gate)
	waitClosed(t, readyDone, "ready")
	waitClosed(t, shutdownDone, "shutdown")

	assert.Equal(t, StateStopped, f.router.State())
	assert.Equal(t, int32(1), l.kills.Load(), "a process launched during shutdown must still be killed")
	assert.Nil(t, f.peek(t))
}

func TestTransitionsObserved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeLauncher{}, "", Config{})

	var (
		mu   sync.Mutex
		seen []State
	)
	f.router.OnTransition(func(_, to State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, to)
	})

	f.router.Ready(ctx)
	f.router.Shutdown(ctx, TriggerExit)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateStarting, StateRunning, StateShuttingDown, StateStopped}, seen)
}

func TestReadyTwiceSpawnsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeLauncher{}, "", Config{})

	f.router.Ready(ctx)
	f.router.Ready(ctx)

	assert.Equal(t, int32(1), f.launcher.calls.Load())
}
