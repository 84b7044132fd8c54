package config

import (
	"github.com/google/uuid"

	"github.com/craftgen/craftgen/internal/models"
)

// LoadSettings loads the global settings from ~/.craftgen/settings.yaml.
// If the file doesn't exist, returns default settings.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	settings, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	settings.Normalize()
	return settings, nil
}

// SaveSettings saves the global settings to ~/.craftgen/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// EnsureInstallID assigns an anonymous install ID if the settings lack one.
// Reports whether the settings were modified.
func EnsureInstallID(settings *models.Settings) bool {
	if settings.InstallID != "" {
		return false
	}
	settings.InstallID = uuid.New().String()
	return true
}

// ToggleUsageSharing flips share_usage_data and persists it.
// Returns the new value.
func ToggleUsageSharing() (bool, error) {
	settings, err := LoadSettings()
	if err != nil {
		return false, err
	}
	settings.ShareUsageData = !settings.ShareUsageData
	if err := SaveSettings(settings); err != nil {
		return false, err
	}
	return settings.ShareUsageData, nil
}
