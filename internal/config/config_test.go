package config_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/config"
	"github.com/friendlines/friendlines/internal/pushtoken"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8081", cfg.OpsAddr)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, pushtoken.DefaultFormat, cfg.TokenFormat())
	assert.True(t, cfg.Push.IsDevice)
	assert.True(t, cfg.Push.AutoGrant)
	assert.Empty(t, cfg.Push.ProjectID)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.InDelta(t, 1.0, cfg.Telemetry.SampleRatio, 0)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"LOG_LEVEL":           "debug",
		"API_BASE_URL":        "https://api.friendlines.app",
		"API_TIMEOUT":         "3s",
		"PUSH_PROJECT_ID":     "project-1",
		"PUSH_TOKEN_PREFIX":   "EXPO[",
		"PUSH_TOKEN_SUFFIX":   "]",
		"PUSH_IS_DEVICE":      "false",
		"PUBSUB_PROJECT_ID":   "friendlines",
		"PUBSUB_SUBSCRIPTION": "push-events",
		"OTEL_ENABLED":        "true",
		"OTEL_SAMPLE_RATIO":   "0.25",
	})
	require.NoError(t, err)

	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "project-1", cfg.Push.ProjectID)
	assert.True(t, cfg.TokenFormat().Valid("EXPO[abc123]"))
	assert.False(t, cfg.Push.IsDevice)
	assert.Equal(t, "push-events", cfg.PubSub.Subscription)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 1e-9)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr error
	}{
		{
			name:    "relative api url",
			vars:    map[string]string{"API_BASE_URL": "/api"},
			wantErr: config.ErrInvalidAPIBaseURL,
		},
		{
			name:    "subscription without project",
			vars:    map[string]string{"PUBSUB_SUBSCRIPTION": "push-events"},
			wantErr: config.ErrPubSubProject,
		},
		{
			name:    "bad duration",
			vars:    map[string]string{"API_TIMEOUT": "soon"},
			wantErr: config.ErrParsingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFrom(tt.vars)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLevel_Invalid(t *testing.T) {
	cfg := config.Config{LogLevel: "loud"}
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}
