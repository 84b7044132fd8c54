// Package lifecycle maps host application signals onto the edge runtime's
// start and stop. Shutdown triggers can race from the tray, the OS and the
// final exit hook; the router guarantees the worker is killed at most once.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/craftgen/craftgen/internal/logging"
	"github.com/craftgen/craftgen/internal/sidecar"
)

// State is a router lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateStarting
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Trigger identifies the source of a shutdown.
type Trigger int

const (
	// TriggerExitRequested is the OS asking the application to exit.
	TriggerExitRequested Trigger = iota
	// TriggerQuit is the tray "Quit" item.
	TriggerQuit
	// TriggerExit is the final exit event of the host event loop.
	TriggerExit
)

func (t Trigger) String() string {
	switch t {
	case TriggerExitRequested:
		return "exit_requested"
	case TriggerQuit:
		return "quit"
	case TriggerExit:
		return "exit"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

// Spawner starts and stops the worker process.
type Spawner interface {
	Spawn(ctx context.Context) (*sidecar.Handle, error)
	Terminate(ctx context.Context, h *sidecar.Handle) error
}

// Config tunes the router.
type Config struct {
	SpawnRetries  int           // extra spawn attempts after the first; 0 disables retry
	RetryInterval time.Duration // initial backoff interval
	LockTimeout   time.Duration // bound on slot lock acquisition
	DrainTimeout  time.Duration // how long shutdown waits for the output pump
}

const (
	defaultRetryInterval = 500 * time.Millisecond
	defaultLockTimeout   = 5 * time.Second
	defaultDrainTimeout  = 2 * time.Second
)

func (c *Config) applyDefaults() {
	if c.RetryInterval <= 0 {
		c.RetryInterval = defaultRetryInterval
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = defaultLockTimeout
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
}

// TransitionFunc observes state changes. It runs outside the router lock.
type TransitionFunc func(from, to State)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// Router is the lifecycle state machine.
type Router struct {
	sup    Spawner
	slot   *sidecar.Slot
	cfg    Config
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	spawnCancel context.CancelFunc
	hooks       []TransitionFunc

	started chan struct{} // closed once an in-flight spawn has settled
	done    chan struct{} // closed on Stopped
}

// New creates a router in StateNotStarted.
func New(sup Spawner, slot *sidecar.Slot, cfg Config, opts ...Option) *Router {
	cfg.applyDefaults()
	r := &Router{
		sup:     sup,
		slot:    slot,
		cfg:     cfg,
		logger:  logging.Component("lifecycle"),
		state:   StateNotStarted,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnTransition registers fn to be called on every state change.
func (r *Router) OnTransition(fn TransitionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// State returns the current state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Done is closed once the router reaches StateStopped.
func (r *Router) Done() <-chan struct{} {
	return r.done
}

// setLocked changes state and returns the hooks to notify. r.mu must be held.
func (r *Router) setLocked(to State) (State, []TransitionFunc) {
	from := r.state
	r.state = to
	if to == StateStopped {
		close(r.done)
	}
	return from, append([]TransitionFunc(nil), r.hooks...)
}

func (r *Router) notify(hooks []TransitionFunc, from, to State) {
	r.logger.Debug("lifecycle transition", "from", from.String(), "to", to.String())
	for _, fn := range hooks {
		fn(from, to)
	}
}

// Ready handles the application-ready signal. Only the first call from
// StateNotStarted spawns; a spawn failure leaves the router Running without
// a process.
func (r *Router) Ready(ctx context.Context) {
	r.mu.Lock()
	if r.state != StateNotStarted {
		r.mu.Unlock()
		return
	}
	spawnCtx, cancel := context.WithCancel(ctx)
	r.spawnCancel = cancel
	from, hooks := r.setLocked(StateStarting)
	r.mu.Unlock()
	r.notify(hooks, from, StateStarting)

	h, err := r.spawn(spawnCtx)
	cancel()

	if err != nil {
		r.logger.Error("edge runtime failed to start, continuing without it", "error", err)
	} else {
		r.store(h)
	}
	close(r.started)

	r.mu.Lock()
	if r.state != StateStarting {
		// A shutdown trigger took over while spawning.
		r.mu.Unlock()
		return
	}
	from, hooks = r.setLocked(StateRunning)
	r.mu.Unlock()
	r.notify(hooks, from, StateRunning)
}

// store places h in the slot. If that fails the process cannot be reached
// by shutdown any more, so it is terminated on the spot.
func (r *Router) store(h *sidecar.Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.LockTimeout)
	defer cancel()

	err := r.slot.Store(ctx, h)
	if err == nil {
		return
	}
	r.logger.Error("failed to record edge runtime, stopping it", "pid", h.PID(), "error", err)
	if err := r.sup.Terminate(ctx, h); err != nil {
		r.logger.Error("failed to stop edge runtime", "pid", h.PID(), "error", err)
	}
}

func (r *Router) spawn(ctx context.Context) (*sidecar.Handle, error) {
	if r.cfg.SpawnRetries <= 0 {
		return r.sup.Spawn(ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.SpawnRetries)), ctx)

	var h *sidecar.Handle
	op := func() error {
		var err error
		h, err = r.sup.Spawn(ctx)
		if errors.Is(err, sidecar.ErrResolutionFailed) {
			return backoff.Permanent(err)
		}
		return err
	}
	onRetry := func(err error, wait time.Duration) {
		r.logger.Info("edge runtime spawn failed, retrying", "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(op, policy, onRetry); err != nil {
		return nil, err
	}
	return h, nil
}

// Shutdown handles a shutdown trigger. The first trigger takes the handle
// out of the slot and terminates it; later triggers are no-ops. Shutdown
// returns once the router is Stopped or, for a later trigger, immediately.
func (r *Router) Shutdown(ctx context.Context, trigger Trigger) {
	r.mu.Lock()
	prev := r.state
	switch prev {
	case StateShuttingDown, StateStopped:
		r.mu.Unlock()
		r.logger.Log(ctx, logging.LevelTrace, "shutdown already handled", "trigger", trigger.String())
		return
	case StateNotStarted:
		from, hooks := r.setLocked(StateStopped)
		r.mu.Unlock()
		r.notify(hooks, from, StateStopped)
		return
	}
	cancelSpawn := r.spawnCancel
	from, hooks := r.setLocked(StateShuttingDown)
	r.mu.Unlock()
	r.notify(hooks, from, StateShuttingDown)

	r.logger.Info("shutting down edge runtime", "trigger", trigger.String())

	if prev == StateStarting {
		if cancelSpawn != nil {
			cancelSpawn()
		}
		<-r.started
	}

	r.terminate(ctx)

	r.mu.Lock()
	from, hooks = r.setLocked(StateStopped)
	r.mu.Unlock()
	r.notify(hooks, from, StateStopped)
}

func (r *Router) terminate(ctx context.Context) {
	lockCtx, cancel := context.WithTimeout(ctx, r.cfg.LockTimeout)
	h, err := r.slot.Take(lockCtx)
	cancel()
	if err != nil {
		r.logger.Error("could not take edge runtime handle", "error", err)
		return
	}
	if h == nil {
		return
	}

	if err := r.sup.Terminate(ctx, h); err != nil {
		r.logger.Error("failed to stop edge runtime", "pid", h.PID(), "error", err)
		return
	}

	timer := time.NewTimer(r.cfg.DrainTimeout)
	defer timer.Stop()
	select {
	case <-h.Drained():
	case <-timer.C:
		r.logger.Info("edge runtime output not drained in time", "pid", h.PID())
	case <-ctx.Done():
	}
}
