package registration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/pushtoken"
	"github.com/friendlines/friendlines/internal/registration"
	"github.com/friendlines/friendlines/internal/retry/retrytest"
)

func TestAcquirer_Acquire(t *testing.T) {
	tests := []struct {
		name       string
		tokens     []string
		tokenErr   error
		want       pushtoken.Token
		wantKind   registration.Kind
		wantCalls  int
		wantDelays []time.Duration
	}{
		{
			name:      "valid on first attempt",
			tokens:    []string{"EXPO[abc123]"},
			want:      "EXPO[abc123]",
			wantCalls: 1,
		},
		{
			name:       "valid on retry",
			tokens:     []string{"EXPO[]", "EXPO[abc123]"},
			want:       "EXPO[abc123]",
			wantCalls:  2,
			wantDelays: []time.Duration{time.Second},
		},
		{
			name:       "malformed twice",
			tokens:     []string{"abc123", "abc123"},
			wantKind:   registration.KindAcquisition,
			wantCalls:  2,
			wantDelays: []time.Duration{time.Second},
		},
		{
			name:       "provider error twice",
			tokenErr:   errors.New("fcm unavailable"),
			wantKind:   registration.KindAcquisition,
			wantCalls:  2,
			wantDelays: []time.Duration{time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := registration.NewMemoryProvider("")
			provider.SetTokens(tt.tokens...)
			provider.SetTokenError(tt.tokenErr)
			timer := retrytest.NewTimer()

			a := registration.NewAcquirer(registration.AcquirerConfig{
				Provider:  provider,
				ProjectID: "project-1",
				Format:    testFormat,
				Timer:     timer,
				Logger:    zerolog.Nop(),
			})

			got, err := a.Acquire(context.Background())

			if tt.wantKind != registration.KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, registration.KindOf(err))
				assert.True(t, got.IsZero())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.wantCalls, provider.TokenCalls())
			if tt.wantDelays == nil {
				assert.Empty(t, timer.Delays())
			} else {
				assert.Equal(t, tt.wantDelays, timer.Delays())
			}
		})
	}
}

func TestAcquirer_MissingProjectID(t *testing.T) {
	provider := registration.NewMemoryProvider("EXPO[abc123]")
	a := registration.NewAcquirer(registration.AcquirerConfig{
		Provider: provider,
		Format:   testFormat,
		Logger:   zerolog.Nop(),
	})

	_, err := a.Acquire(context.Background())

	require.ErrorIs(t, err, registration.ErrConfiguration)
	assert.Equal(t, registration.NextActionFixConfiguration, registration.KindOf(err).NextAction())
	assert.Equal(t, 0, provider.TokenCalls())
}

func TestAcquirer_DefaultFormat(t *testing.T) {
	provider := registration.NewMemoryProvider("ExponentPushToken[xyz]")
	a := registration.NewAcquirer(registration.AcquirerConfig{
		Provider:  provider,
		ProjectID: "project-1",
		Logger:    zerolog.Nop(),
	})

	got, err := a.Acquire(context.Background())

	require.NoError(t, err)
	assert.Equal(t, pushtoken.Token("ExponentPushToken[xyz]"), got)
}
