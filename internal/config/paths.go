// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global Craftgen directory.
	GlobalDirName = ".craftgen"

	// LogsDirName is the name of the logs directory.
	LogsDirName = "logs"
)

// File names
const (
	SettingsFileName = "settings.yaml"
	SessionFileName  = "session.yaml"
	LockFileName     = "craftgen.lock"
	LogFileName      = "craftgen.log"
)

// homeOverrideEnv relocates the global directory (tests, portable installs).
const homeOverrideEnv = "CRAFTGEN_HOME"

// GlobalDir returns the path to the global Craftgen directory (~/.craftgen/).
func GlobalDir() (string, error) {
	if dir := os.Getenv(homeOverrideEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

func globalFile(name string) (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	return globalFile(SettingsFileName)
}

// GlobalSessionFile returns the path to the session.yaml file.
func GlobalSessionFile() (string, error) {
	return globalFile(SessionFileName)
}

// GlobalLockFile returns the path to the single-instance lock file.
func GlobalLockFile() (string, error) {
	return globalFile(LockFileName)
}

// GlobalLogsDir returns the path to the logs directory.
func GlobalLogsDir() (string, error) {
	return globalFile(LogsDirName)
}

// GlobalLogFile returns the path to the host log file.
func GlobalLogFile() (string, error) {
	dir, err := GlobalLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogFileName), nil
}

// EnsureGlobalDir creates the global Craftgen directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
