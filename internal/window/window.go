// Package window presents the main application window. Platform details
// live behind Surface; Manager never branches on the OS.
package window

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/craftgen/craftgen/internal/logging"
)

// Surface is the per-platform window capability.
type Surface interface {
	SetVisibility(visible bool) error
	Focus() error
}

// Manager shows and hides the main window.
type Manager struct {
	surface Surface
	logger  *slog.Logger

	mu      sync.Mutex
	visible bool
}

// NewManager creates a manager over s.
func NewManager(s Surface) *Manager {
	return &Manager{
		surface: s,
		logger:  logging.Component("window"),
	}
}

// ShowMain makes the main window visible and focuses it.
func (m *Manager) ShowMain() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.surface.SetVisibility(true); err != nil {
		return fmt.Errorf("show main window: %w", err)
	}
	m.visible = true
	if err := m.surface.Focus(); err != nil {
		return fmt.Errorf("focus main window: %w", err)
	}
	m.logger.Debug("main window shown")
	return nil
}

// CloseAll hides every window. Hiding an already hidden window is a no-op.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.visible {
		return nil
	}
	if err := m.surface.SetVisibility(false); err != nil {
		return fmt.Errorf("hide windows: %w", err)
	}
	m.visible = false
	return nil
}

// Visible reports whether the main window is shown.
func (m *Manager) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}
