package models

import "time"

// SidecarConfig holds launch settings for the edge-runtime worker process.
type SidecarConfig struct {
	Path         string        `yaml:"path"`         // empty = next to executable, then PATH
	ResourceDir  string        `yaml:"resource_dir"` // empty = bundled resources
	Port         int           `yaml:"port"`
	Verbose      bool          `yaml:"verbose"`
	StopTimeout  time.Duration `yaml:"stop_timeout"` // 0 = kill immediately
	SpawnRetries int           `yaml:"spawn_retries"`
	StripANSI    bool          `yaml:"strip_ansi"`
}

// UpdatesConfig holds settings for update checking.
type UpdatesConfig struct {
	CheckOnStartup bool       `yaml:"check_on_startup"`
	CheckFrequency string     `yaml:"check_frequency"` // "every_launch" | "daily" | "weekly"
	LastChecked    *time.Time `yaml:"last_checked,omitempty"`
}

// WindowConfig holds settings for the main window surface.
type WindowConfig struct {
	AppURL string `yaml:"app_url"`
}

// Settings represents global application settings.
// This corresponds to ~/.craftgen/settings.yaml.
type Settings struct {
	Version        int           `yaml:"version"`
	InstallID      string        `yaml:"install_id,omitempty"`
	ShareUsageData bool          `yaml:"share_usage_data"`
	RecordCursor   bool          `yaml:"record_cursor"`
	Updates        UpdatesConfig `yaml:"updates"`
	Window         WindowConfig  `yaml:"window"`
	Sidecar        SidecarConfig `yaml:"sidecar"`
}

// DefaultSidecarPort is the port the edge runtime listens on.
const DefaultSidecarPort = 24321

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:        1,
		ShareUsageData: true,
		RecordCursor:   true,
		Updates: UpdatesConfig{
			CheckOnStartup: true,
			CheckFrequency: "daily",
		},
		Window: WindowConfig{
			AppURL: "https://www.craftgen.ai",
		},
		Sidecar: SidecarConfig{
			Port: DefaultSidecarPort,
		},
	}
}

// Normalize fills zero values left by hand-edited or older settings files.
func (s *Settings) Normalize() {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Sidecar.Port <= 0 {
		s.Sidecar.Port = DefaultSidecarPort
	}
	if s.Sidecar.SpawnRetries < 0 {
		s.Sidecar.SpawnRetries = 0
	}
	if s.Updates.CheckFrequency == "" {
		s.Updates.CheckFrequency = "daily"
	}
}
