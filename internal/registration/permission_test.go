package registration_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/prompt"
	"github.com/friendlines/friendlines/internal/registration"
)

func TestPermissionGate_Ensure(t *testing.T) {
	tests := []struct {
		name             string
		status           registration.PermissionStatus
		grantOnRequest   bool
		answer           prompt.Action
		want             registration.PermissionStatus
		wantRequests     int
		wantOpenSettings int
		wantPrompts      int
	}{
		{
			name:   "already granted",
			status: registration.PermissionGranted,
			answer: prompt.ActionContinue,
			want:   registration.PermissionGranted,
		},
		{
			name:           "granted on request",
			status:         registration.PermissionUndetermined,
			grantOnRequest: true,
			answer:         prompt.ActionContinue,
			want:           registration.PermissionGranted,
			wantRequests:   1,
			wantPrompts:    1,
		},
		{
			name:         "denied on request",
			status:       registration.PermissionUndetermined,
			answer:       prompt.ActionContinue,
			want:         registration.PermissionDenied,
			wantRequests: 1,
			wantPrompts:  2,
		},
		{
			name:             "denied and sent to settings",
			status:           registration.PermissionDenied,
			answer:           prompt.ActionOpenSettings,
			want:             registration.PermissionDenied,
			wantRequests:     1,
			wantOpenSettings: 1,
			wantPrompts:      2,
		},
		{
			name:        "explanation declined",
			status:      registration.PermissionUndetermined,
			answer:      prompt.ActionCancel,
			want:        registration.PermissionDenied,
			wantPrompts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := registration.NewMemoryProvider("EXPO[abc123]")
			provider.SetPermission(tt.status, tt.grantOnRequest)
			presenter := prompt.NewRecorder(tt.answer)
			gate := registration.NewPermissionGate(provider, presenter, zerolog.Nop())

			got, err := gate.Ensure(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRequests, provider.RequestCalls())
			assert.Equal(t, tt.wantOpenSettings, provider.OpenSettingsCalls())
			assert.Len(t, presenter.Prompts(), tt.wantPrompts)
		})
	}
}

func TestPermissionGate_Ensure_Idempotent(t *testing.T) {
	provider := registration.NewMemoryProvider("EXPO[abc123]")
	provider.SetPermission(registration.PermissionUndetermined, true)
	presenter := prompt.NewRecorder(prompt.ActionContinue)
	gate := registration.NewPermissionGate(provider, presenter, zerolog.Nop())
	ctx := context.Background()

	first, err := gate.Ensure(ctx)
	require.NoError(t, err)
	second, err := gate.Ensure(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.RequestCalls())
	assert.Len(t, presenter.Prompts(), 1)
}

func TestPermissionGate_Ensure_PresenterFailureStillRequests(t *testing.T) {
	provider := registration.NewMemoryProvider("EXPO[abc123]")
	provider.SetPermission(registration.PermissionUndetermined, true)
	presenter := prompt.PresenterFunc(func(context.Context, prompt.Prompt) (prompt.Action, error) {
		return "", errors.New("no window")
	})
	gate := registration.NewPermissionGate(provider, presenter, zerolog.Nop())

	got, err := gate.Ensure(context.Background())

	require.NoError(t, err)
	assert.Equal(t, registration.PermissionGranted, got)
	assert.Equal(t, 1, provider.RequestCalls())
}
