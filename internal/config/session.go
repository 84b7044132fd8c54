package config

import (
	"os"
	"syscall"

	"github.com/craftgen/craftgen/internal/models"
)

// LoadSessionInfo loads the session info from ~/.craftgen/session.yaml.
// Returns nil if the file doesn't exist.
func LoadSessionInfo() (*models.SessionInfo, error) {
	path, err := GlobalSessionFile()
	if err != nil {
		return nil, err
	}

	if !FileExists(path) {
		return nil, nil
	}

	var info models.SessionInfo
	if err := LoadYAML(path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SaveSessionInfo saves the session info to ~/.craftgen/session.yaml.
func SaveSessionInfo(info *models.SessionInfo) error {
	if err := EnsureGlobalDir(); err != nil {
		return err
	}

	path, err := GlobalSessionFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, info)
}

// RemoveSessionInfo removes the session.yaml file.
func RemoveSessionInfo() error {
	path, err := GlobalSessionFile()
	if err != nil {
		return err
	}

	if !FileExists(path) {
		return nil
	}
	return os.Remove(path)
}

// IsSessionRunning checks if the host process recorded in session.yaml is alive.
func IsSessionRunning() (bool, *models.SessionInfo, error) {
	info, err := LoadSessionInfo()
	if err != nil {
		return false, nil, err
	}
	if info == nil {
		return false, nil, nil
	}

	return processAlive(info.PID), info, nil
}

// processAlive sends signal 0 to pid.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
