// Package app wires the desktop shell together: settings, the edge runtime
// supervisor, the lifecycle router, the tray and the main window.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/craftgen/craftgen/internal/config"
	"github.com/craftgen/craftgen/internal/lifecycle"
	"github.com/craftgen/craftgen/internal/logging"
	"github.com/craftgen/craftgen/internal/models"
	"github.com/craftgen/craftgen/internal/sidecar"
	"github.com/craftgen/craftgen/internal/telemetry"
	"github.com/craftgen/craftgen/internal/updater"
	"github.com/craftgen/craftgen/internal/watcher"
	"github.com/craftgen/craftgen/internal/window"
)

// Options are the command-line switches of the shell.
type Options struct {
	Minimized  bool
	Foreground bool
	LogLevel   string
}

// Session owns every long-lived component of one application run,
// including the runtime slot shared by the router and the status hooks.
type Session struct {
	opts      Options
	settings  *models.Settings
	slot      *sidecar.Slot
	router    *lifecycle.Router
	windows   *window.Manager
	telemetry *telemetry.Client
	checker   *updater.Checker
	watcher   *watcher.Watcher
	logger    *slog.Logger

	// notify shows a short message to the user (tray status line in tray mode).
	notify func(string)

	infoMu sync.Mutex
	info   *models.SessionInfo

	closeOnce sync.Once
}

func newSession(settings *models.Settings, opts Options, supOpts ...sidecar.Option) *Session {
	logger := logging.Component("app")

	tel, err := telemetry.New(telemetry.ConfigFromEnv(settings.InstallID, settings.ShareUsageData))
	if err != nil {
		logger.Error("telemetry disabled", "error", err)
		tel, _ = telemetry.New(telemetry.Config{})
	}

	sc := settings.Sidecar
	sup := sidecar.New(sidecar.Config{
		Binary:      sc.Path,
		ResourceDir: sc.ResourceDir,
		Port:        sc.Port,
		Verbose:     sc.Verbose,
		StopTimeout: sc.StopTimeout,
		StripANSI:   sc.StripANSI,
	}, supOpts...)

	slot := sidecar.NewSlot()
	s := &Session{
		opts:      opts,
		settings:  settings,
		slot:      slot,
		router:    lifecycle.New(sup, slot, lifecycle.Config{SpawnRetries: sc.SpawnRetries}),
		windows:   window.NewManager(window.NewBrowserSurface(settings.Window.AppURL)),
		telemetry: tel,
		checker:   updater.NewChecker(),
		logger:    logger,
		info:      models.NewSessionInfo(os.Getpid(), sc.Port),
	}
	s.notify = func(msg string) { logger.Info(msg) }
	s.router.OnTransition(s.onTransition)
	return s
}

// start brings the runtime up and shows the window unless minimized.
// It blocks until the spawn attempt has settled.
func (s *Session) start(ctx context.Context) {
	s.saveInfo()
	s.telemetry.Capture(telemetry.EventAppStarted, map[string]any{
		"minimized":  s.opts.Minimized,
		"foreground": s.opts.Foreground,
	})

	s.router.Ready(ctx)

	if ctx.Err() == nil && !s.opts.Minimized {
		s.Open()
	}
}

// shutdown forwards a shutdown trigger to the router.
func (s *Session) shutdown(trigger lifecycle.Trigger) {
	s.router.Shutdown(context.Background(), trigger)
}

// close releases everything the session started. The router is given a
// final exit trigger first, which is a no-op if shutdown already ran.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.shutdown(lifecycle.TriggerExit)

		if s.watcher != nil {
			s.watcher.Stop()
		}
		if err := s.windows.CloseAll(); err != nil {
			s.logger.Error("failed to close windows", "error", err)
		}

		s.telemetry.Capture(telemetry.EventAppStopped, nil)
		if err := s.telemetry.Close(); err != nil {
			s.logger.Debug("telemetry flush failed", "error", err)
		}

		if err := config.RemoveSessionInfo(); err != nil {
			s.logger.Error("failed to remove session info", "error", err)
		}
		s.logger.Info("craftgen stopped")
	})
}

func (s *Session) onTransition(from, to lifecycle.State) {
	pid := 0
	if to == lifecycle.StateRunning {
		pid = s.runtimePID()
		if pid > 0 {
			s.telemetry.Capture(telemetry.EventRuntimeStarted, map[string]any{"port": s.settings.Sidecar.Port})
		} else {
			s.telemetry.Capture(telemetry.EventRuntimeFailed, nil)
		}
	}

	s.infoMu.Lock()
	s.info.State = to.String()
	s.info.SidecarPID = pid
	s.info.UpdatedAt = time.Now().UTC()
	s.infoMu.Unlock()

	if to != lifecycle.StateStopped {
		s.saveInfo()
	}
	s.notify(statusLabel(to, pid))
}

func (s *Session) runtimePID() int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	h, err := s.slot.Peek(ctx)
	if err != nil || h == nil || h.Exited() {
		return 0
	}
	return h.PID()
}

func (s *Session) saveInfo() {
	s.infoMu.Lock()
	info := *s.info
	s.infoMu.Unlock()

	if err := config.SaveSessionInfo(&info); err != nil {
		s.logger.Error("failed to write session info", "error", err)
	}
}

// statusLabel is the tray status line for a router state.
func statusLabel(state lifecycle.State, pid int) string {
	switch state {
	case lifecycle.StateNotStarted, lifecycle.StateStarting:
		return "Starting..."
	case lifecycle.StateRunning:
		if pid > 0 {
			return fmt.Sprintf("Edge runtime running (PID %d)", pid)
		}
		return "Edge runtime unavailable"
	case lifecycle.StateShuttingDown:
		return "Shutting down..."
	default:
		return "Stopped"
	}
}
