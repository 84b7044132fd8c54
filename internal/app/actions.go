package app

import (
	"context"
	"fmt"
	"time"

	"github.com/craftgen/craftgen/internal/config"
	"github.com/craftgen/craftgen/internal/lifecycle"
	"github.com/craftgen/craftgen/internal/logging"
	"github.com/craftgen/craftgen/internal/tray"
	"github.com/craftgen/craftgen/internal/updater"
	"github.com/craftgen/craftgen/internal/watcher"
	"github.com/craftgen/craftgen/internal/window"
)

// Open shows the main window.
func (s *Session) Open() {
	if err := s.windows.ShowMain(); err != nil {
		s.logger.Error("failed to open main window", "error", err)
	}
}

// Quit handles the tray quit item: stop the runtime, then end the tray loop.
func (s *Session) Quit() {
	s.shutdown(lifecycle.TriggerQuit)
	tray.Quit()
}

// ToggleUsageSharing flips the stored setting and applies it to telemetry.
func (s *Session) ToggleUsageSharing() (bool, error) {
	enabled, err := config.ToggleUsageSharing()
	if err != nil {
		return false, err
	}
	s.telemetry.SetEnabled(enabled)
	s.logger.Info("usage sharing updated", "enabled", enabled)
	return enabled, nil
}

// CheckForUpdates runs an update check that reports "up to date" too.
func (s *Session) CheckForUpdates() {
	s.checkForUpdates(context.Background(), false)
}

// OpenLink opens url in the system browser.
func (s *Session) OpenLink(url string) {
	if err := window.OpenURL(url); err != nil {
		s.logger.Error("failed to open link", "url", url, "error", err)
	}
}

// checkForUpdates queries the release feed. A newer release opens its page;
// with silent set, an up-to-date result is only logged.
func (s *Session) checkForUpdates(ctx context.Context, silent bool) {
	result, err := s.checker.CheckForUpdate(ctx)
	if err != nil {
		s.logger.Error("update check failed", "error", err)
		if !silent {
			s.notify("Update check failed")
		}
		return
	}

	s.recordUpdateCheck()

	if !result.Available {
		s.logger.Info("up to date", "version", result.CurrentVersion)
		if !silent {
			s.notify(fmt.Sprintf("Craftgen %s is up to date", result.CurrentVersion))
		}
		return
	}

	s.logger.Info("update available",
		"current", result.CurrentVersion,
		"latest", result.LatestVersion,
		"url", result.ReleaseURL,
	)
	s.notify(fmt.Sprintf("Update available: v%s", result.LatestVersion))
	if result.ReleaseURL != "" {
		s.OpenLink(result.ReleaseURL)
	}
}

func (s *Session) recordUpdateCheck() {
	settings, err := config.LoadSettings()
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		return
	}
	now := time.Now().UTC()
	settings.Updates.LastChecked = &now
	if err := config.SaveSettings(settings); err != nil {
		s.logger.Error("failed to save last update check", "error", err)
	}
}

// startupUpdateCheck runs the silent check in the background when due.
func (s *Session) startupUpdateCheck() {
	if !updater.Due(s.settings.Updates, time.Now()) {
		return
	}
	go func() {
		defer logging.LogPanic("update-check", nil)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.checkForUpdates(ctx, true)
	}()
}

// watchSettings keeps the checkbox and telemetry in sync with hand edits.
func (s *Session) watchSettings(onShareChanged func(bool)) {
	w, err := watcher.New("")
	if err != nil {
		s.logger.Error("failed to create settings watcher", "error", err)
		return
	}
	if err := w.Start(); err != nil {
		s.logger.Error("failed to watch settings", "error", err)
		return
	}
	s.watcher = w

	go func() {
		defer logging.LogPanic("settings-watch", nil)
		for {
			var ev watcher.Event
			select {
			case <-w.Done():
				return
			case ev = <-w.Events():
			}
			if ev.Type != watcher.EventSettingsChanged {
				continue
			}
			settings, err := config.LoadSettings()
			if err != nil {
				s.logger.Error("failed to reload settings", "error", err)
				continue
			}
			s.telemetry.SetEnabled(settings.ShareUsageData)
			if onShareChanged != nil {
				onShareChanged(settings.ShareUsageData)
			}
		}
	}()
}
