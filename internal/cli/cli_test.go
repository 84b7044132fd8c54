package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/craftgen/craftgen/internal/models"
)

func TestPrintStatus(t *testing.T) {
	started := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		running  bool
		info     *models.SessionInfo
		contains []string
	}{
		{
			name:     "not running",
			contains: []string{"craftgen is not running"},
		},
		{
			name:     "stale session",
			info:     &models.SessionInfo{PID: 99},
			contains: []string{"not running", "stale session from PID 99"},
		},
		{
			name:    "running with runtime",
			running: true,
			info:    &models.SessionInfo{PID: 10, State: "running", SidecarPID: 11, Port: 24321, StartedAt: started},
			contains: []string{
				"craftgen running",
				"running",
				"PID 11 on port 24321",
			},
		},
		{
			name:     "running without runtime",
			running:  true,
			info:     &models.SessionInfo{PID: 10, State: "running", StartedAt: started},
			contains: []string{"Runtime  not running"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printStatus(&buf, tt.running, tt.info, false)
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestIsTerminalBuffer(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}
