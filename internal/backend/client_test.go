package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/backend"
	"github.com/friendlines/friendlines/internal/registration"
	"github.com/friendlines/friendlines/internal/retry/retrytest"
	"github.com/friendlines/friendlines/internal/session"
)

func newSessions() *session.Store {
	s := session.NewStore()
	s.Set(session.New("user-42", "access-token"))
	return s
}

func newClient(serverURL string, sessions *session.Store) *backend.Client {
	return backend.NewClient(backend.ClientConfig{
		BaseURL:  serverURL,
		Sessions: sessions,
		Timeout:  time.Second,
		Logger:   zerolog.Nop(),
	})
}

func TestClient_RegisterPushToken(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/user-42/push-token", r.URL.Path)
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"registered":true}`))
	}))
	defer server.Close()

	c := newClient(server.URL, newSessions())
	registered, err := c.RegisterPushToken(context.Background(), registration.RegisterRequest{
		UserID:   "user-42",
		Token:    "EXPO[abc123]",
		Platform: "android",
		DeviceID: "device-1",
	})

	require.NoError(t, err)
	assert.True(t, registered)
	assert.Equal(t, map[string]string{
		"userId":   "user-42",
		"token":    "EXPO[abc123]",
		"platform": "android",
		"deviceId": "device-1",
	}, got)
}

func TestClient_RegisterPushToken_StatusErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTemporary bool
		wantDetail    string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"title":"Bad Request","detail":"token is malformed"}`, wantDetail: "token is malformed"},
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "request timeout", status: http.StatusRequestTimeout, wantTemporary: true},
		{name: "rate limited", status: http.StatusTooManyRequests, wantTemporary: true},
		{name: "server error", status: http.StatusInternalServerError, wantTemporary: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newClient(server.URL, newSessions())
			_, err := c.RegisterPushToken(context.Background(), registration.RegisterRequest{
				UserID: "user-42",
				Token:  "EXPO[abc123]",
			})

			var se *backend.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.wantTemporary, se.Temporary())
			assert.Equal(t, tt.wantDetail, se.Detail)
		})
	}
}

func TestClient_RegisterPushToken_NoSession(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	c := newClient(server.URL, session.NewStore())
	_, err := c.RegisterPushToken(context.Background(), registration.RegisterRequest{
		UserID: "user-42",
		Token:  "EXPO[abc123]",
	})

	require.ErrorIs(t, err, backend.ErrNoAccessToken)
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_WithRegistrar_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"registered":true}`))
	}))
	defer server.Close()

	timer := retrytest.NewTimer()
	r := registration.NewRegistrar(registration.RegistrarConfig{
		Backend: newClient(server.URL, newSessions()),
		Timer:   timer,
		Logger:  zerolog.Nop(),
	})

	registered, err := r.Register(context.Background(), "user-42", "ExponentPushToken[abc123]")

	require.NoError(t, err)
	assert.True(t, registered)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, timer.Delays())
}

func TestClient_WithRegistrar_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	r := registration.NewRegistrar(registration.RegistrarConfig{
		Backend: newClient(server.URL, newSessions()),
		Timer:   retrytest.NewTimer(),
		Logger:  zerolog.Nop(),
	})

	_, err := r.Register(context.Background(), "user-42", "ExponentPushToken[abc123]")

	require.ErrorIs(t, err, registration.ErrBackend)
	var se *backend.StatusError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, int32(1), hits.Load())
}
