package sidecar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/craftgen/craftgen/internal/logging"
)

// Config configures how the edge runtime is launched.
type Config struct {
	Binary      string        // path override for the edge-runtime binary
	ResourceDir string        // resource directory override
	Port        int           // listen port passed with -p
	Verbose     bool          // pass -v
	StopTimeout time.Duration // SIGTERM grace before SIGKILL; zero kills immediately
	StripANSI   bool          // strip ANSI escapes from logged lines
}

// Supervisor owns process creation and termination for the edge runtime.
// It never touches the Slot; storing and taking handles is the caller's job.
type Supervisor struct {
	cfg      Config
	launcher Launcher
	logger   *slog.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLauncher replaces the OS launcher, mainly for tests.
func WithLauncher(l Launcher) Option {
	return func(s *Supervisor) {
		s.launcher = l
	}
}

// WithLogger sets the logger used by the supervisor and its output pumps.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// New creates a supervisor.
func New(cfg Config, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:      cfg,
		launcher: ExecLauncher{},
		logger:   logging.Component("sidecar"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn resolves resources, launches the edge runtime and starts its output
// pump. The pump is running by the time Spawn returns.
func (s *Supervisor) Spawn(ctx context.Context) (*Handle, error) {
	res, err := ResolveResources(s.cfg.ResourceDir)
	if err != nil {
		return nil, err
	}

	spec := NewLaunchSpec(ResolveBinary(s.cfg.Binary), res, s.cfg.Port, s.cfg.Verbose)

	child, err := s.launcher.Launch(ctx, spec)
	if err != nil {
		if !errors.Is(err, ErrExecFailed) {
			err = fmt.Errorf("%w: %w", ErrExecFailed, err)
		}
		return nil, err
	}

	h := newHandle(child, spec)
	pump := NewPump(s.logger.With("pid", child.PID()), s.cfg.StripANSI)
	go func() {
		defer close(h.drained)
		pump.Run(child.Events())
	}()

	s.logger.Info("edge runtime started",
		"pid", child.PID(),
		"id", h.ID(),
		"command", spec.String(),
	)
	return h, nil
}

// Terminate kills the process behind h. A nil handle or an already-exited
// process is not an error. OS failures are returned as *KillError.
func (s *Supervisor) Terminate(ctx context.Context, h *Handle) (err error) {
	if h == nil || h.Exited() {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &KillError{PID: h.PID(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if s.cfg.StopTimeout > 0 && s.interrupt(ctx, h) {
		return nil
	}

	if err := h.child.Kill(); err != nil {
		return &KillError{PID: h.PID(), Err: err}
	}

	s.logger.Info("edge runtime killed", "pid", h.PID())
	return nil
}

// interrupt sends SIGTERM and waits up to the stop timeout. It reports
// whether the process exited within the grace period.
func (s *Supervisor) interrupt(ctx context.Context, h *Handle) bool {
	if err := h.child.Interrupt(); err != nil {
		s.logger.Debug("interrupt failed, killing", "pid", h.PID(), "error", err)
		return false
	}

	timer := time.NewTimer(s.cfg.StopTimeout)
	defer timer.Stop()

	select {
	case <-h.Done():
		s.logger.Info("edge runtime stopped", "pid", h.PID())
		return true
	case <-timer.C:
		s.logger.Info("edge runtime did not stop in time, killing",
			"pid", h.PID(),
			"timeout", s.cfg.StopTimeout,
		)
	case <-ctx.Done():
	}
	return false
}
