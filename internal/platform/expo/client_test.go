package expo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/platform/expo"
)

func TestClient_PushToken(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"expoPushToken":"ExponentPushToken[abc123]"}}`))
	}))
	defer server.Close()

	c := expo.NewClient(expo.ClientConfig{
		TokenURL:    server.URL,
		AppID:       "app.friendlines",
		DeviceID:    "device-1",
		DeviceType:  expo.DeviceTypeAPNs,
		DeviceToken: "native-token",
		Development: true,
		Logger:      zerolog.Nop(),
	})

	token, err := c.PushToken(context.Background(), "project-1")

	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[abc123]", token)
	assert.Equal(t, map[string]any{
		"type":        "apns",
		"deviceId":    "device-1",
		"development": true,
		"appId":       "app.friendlines",
		"deviceToken": "native-token",
		"projectId":   "project-1",
	}, got)
}

func TestClient_PushToken_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{name: "api error", status: http.StatusBadRequest, body: `{"errors":[{"code":"VALIDATION_ERROR","message":"projectId is invalid"}]}`, wantCode: "VALIDATION_ERROR"},
		{name: "empty token", status: http.StatusOK, body: `{"data":{}}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := expo.NewClient(expo.ClientConfig{
				TokenURL:    server.URL,
				DeviceToken: "native-token",
				Logger:      zerolog.Nop(),
			})

			token, err := c.PushToken(context.Background(), "project-1")

			require.Error(t, err)
			assert.Empty(t, token)
			if tt.wantCode != "" {
				var apiErr *expo.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
			}
		})
	}
}

func TestClient_PushToken_MissingDeviceToken(t *testing.T) {
	c := expo.NewClient(expo.ClientConfig{Logger: zerolog.Nop()})

	_, err := c.PushToken(context.Background(), "project-1")

	require.ErrorIs(t, err, expo.ErrMissingDeviceToken)
}
