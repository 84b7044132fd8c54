package telemetry

import (
	"testing"

	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostHog struct {
	posthog.Client
	messages []posthog.Message
	closed   bool
}

func (f *fakePostHog) Enqueue(m posthog.Message) error {
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakePostHog) Close() error {
	f.closed = true
	return nil
}

func TestDisabledWithoutKey(t *testing.T) {
	c, err := New(Config{InstallID: "abc", Enabled: true})
	require.NoError(t, err)

	assert.False(t, c.Enabled())
	c.Capture(EventAppStarted, nil)
	assert.NoError(t, c.Close())
}

func TestCaptureRespectsOptIn(t *testing.T) {
	ph := &fakePostHog{}
	c := newClient(ph, Config{InstallID: "install-1", Enabled: false})

	c.Capture(EventAppStarted, nil)
	assert.Empty(t, ph.messages)

	c.SetEnabled(true)
	c.Capture(EventRuntimeStarted, map[string]any{"pid": 42})
	require.Len(t, ph.messages, 1)

	capture, ok := ph.messages[0].(posthog.Capture)
	require.True(t, ok)
	assert.Equal(t, "install-1", capture.DistinctId)
	assert.Equal(t, EventRuntimeStarted, capture.Event)
	assert.Equal(t, 42, capture.Properties["pid"])
	assert.Contains(t, capture.Properties, "version")

	c.SetEnabled(false)
	c.Capture(EventAppStopped, nil)
	assert.Len(t, ph.messages, 1)

	require.NoError(t, c.Close())
	assert.True(t, ph.closed)
}
