// Package telemetry sends anonymous usage events when the user has opted in.
package telemetry

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/posthog/posthog-go"

	"github.com/craftgen/craftgen/internal/buildinfo"
	"github.com/craftgen/craftgen/internal/logging"
)

// Environment variables that configure the telemetry sink.
const (
	APIKeyEnv   = "CRAFTGEN_POSTHOG_KEY"
	EndpointEnv = "CRAFTGEN_POSTHOG_HOST"
)

// Event names.
const (
	EventAppStarted     = "app_started"
	EventRuntimeStarted = "edge_runtime_started"
	EventRuntimeFailed  = "edge_runtime_failed"
	EventAppStopped     = "app_stopped"
)

// Config configures a Client.
type Config struct {
	APIKey    string
	Endpoint  string
	InstallID string
	Enabled   bool // the "Share Usage Data" setting
}

// ConfigFromEnv fills APIKey and Endpoint from the environment.
func ConfigFromEnv(installID string, enabled bool) Config {
	return Config{
		APIKey:    os.Getenv(APIKeyEnv),
		Endpoint:  os.Getenv(EndpointEnv),
		InstallID: installID,
		Enabled:   enabled,
	}
}

// Client captures events. Without an API key it never sends anything;
// with one, it sends only while enabled.
type Client struct {
	ph        posthog.Client
	installID string
	enabled   atomic.Bool
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return newClient(nil, cfg), nil
	}

	ph, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint: cfg.Endpoint,
		Interval: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create posthog client: %w", err)
	}
	return newClient(ph, cfg), nil
}

func newClient(ph posthog.Client, cfg Config) *Client {
	c := &Client{ph: ph, installID: cfg.InstallID}
	c.enabled.Store(cfg.Enabled)
	return c
}

// SetEnabled follows changes to the usage sharing setting.
func (c *Client) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

// Enabled reports whether events are currently sent.
func (c *Client) Enabled() bool {
	return c.ph != nil && c.enabled.Load()
}

// Capture queues an event. Failures are logged and otherwise ignored.
func (c *Client) Capture(event string, props map[string]any) {
	if !c.Enabled() {
		return
	}

	properties := posthog.NewProperties().
		Set("version", buildinfo.Version).
		Set("channel", buildinfo.Channel).
		Set("os", runtime.GOOS).
		Set("arch", runtime.GOARCH)
	for k, v := range props {
		properties.Set(k, v)
	}

	err := c.ph.Enqueue(posthog.Capture{
		DistinctId: c.installID,
		Event:      event,
		Properties: properties,
	})
	if err != nil {
		logging.Component("telemetry").Debug("failed to queue event", "event", event, "error", err)
	}
}

// Close flushes pending events.
func (c *Client) Close() error {
	if c.ph == nil {
		return nil
	}
	return c.ph.Close()
}
