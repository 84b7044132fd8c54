package models

import "time"

// SessionInfo describes the running desktop session.
// This corresponds to ~/.craftgen/session.yaml.
type SessionInfo struct {
	Version    int       `yaml:"version"`
	PID        int       `yaml:"pid"`
	State      string    `yaml:"state"`
	SidecarPID int       `yaml:"sidecar_pid,omitempty"`
	Port       int       `yaml:"port"`
	StartedAt  time.Time `yaml:"started_at"`
	UpdatedAt  time.Time `yaml:"updated_at"`
}

// NewSessionInfo creates session info for the current host process.
func NewSessionInfo(pid, port int) *SessionInfo {
	now := time.Now().UTC()
	return &SessionInfo{
		Version:   1,
		PID:       pid,
		State:     "not_started",
		Port:      port,
		StartedAt: now,
		UpdatedAt: now,
	}
}
