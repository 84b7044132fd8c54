package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/craftgen/craftgen/internal/buildinfo"
	"github.com/craftgen/craftgen/internal/config"
	"github.com/craftgen/craftgen/internal/lifecycle"
	"github.com/craftgen/craftgen/internal/logging"
	"github.com/craftgen/craftgen/internal/tray"
)

// Run starts the shell and blocks until it exits.
func Run(opts Options) error {
	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}

	logPath, err := config.GlobalLogFile()
	if err != nil {
		return err
	}
	var extra io.Writer
	if opts.Foreground {
		extra = os.Stderr
	}
	cleanup, err := logging.Setup(logPath, extra, logging.ParseLevel(opts.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer cleanup()

	lock, err := config.AcquireInstanceLock()
	if err != nil {
		if errors.Is(err, config.ErrAlreadyRunning) {
			if _, info, _ := config.IsSessionRunning(); info != nil {
				return fmt.Errorf("%w (PID %d)", err, info.PID)
			}
		}
		return err
	}
	defer func() { _ = lock.Release() }()

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if config.EnsureInstallID(settings) {
		if err := config.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}

	logger := logging.Component("app")
	logger.Info("craftgen starting",
		"version", buildinfo.Version,
		"pid", os.Getpid(),
		"foreground", opts.Foreground,
		"minimized", opts.Minimized,
	)

	s := newSession(settings, opts)
	if opts.Foreground {
		s.runForeground()
	} else {
		s.runWithTray()
	}
	return nil
}

// runForeground runs without a system tray, blocking on signals.
func (s *Session) runForeground() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer logging.LogPanic("foreground-signals", nil)
		sig := <-sigCh
		s.logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		s.shutdown(lifecycle.TriggerExitRequested)
	}()

	s.watchSettings(nil)
	s.startupUpdateCheck()
	s.start(ctx)

	<-s.router.Done()
	s.close()
}

// runWithTray runs with a system tray icon on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func (s *Session) runWithTray() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onStart := func() {
		s.notify = tray.SetStatus
		s.watchSettings(tray.SetUsageSharing)
		s.startupUpdateCheck()

		go func() {
			defer logging.LogPanic("session-start", nil)
			s.start(ctx)
		}()

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			s.logger.Info("received signal, shutting down", "signal", sig.String())
			cancel()
			s.shutdown(lifecycle.TriggerExitRequested)
			tray.Quit()
		}()
	}

	onExit := func() {
		cancel()
		s.close()
	}

	// This blocks the main goroutine until the tray exits.
	tray.Run(s, s.settings.ShareUsageData, onStart, onExit)
}
