package resilience_test

import (
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/provider/resilience"
)

func newTracked(t *testing.T, registry *resilience.Registry, name string) *resilience.Client {
	t.Helper()
	cfg := resilience.DefaultClientConfig(name)
	cfg.Registry = registry
	return resilience.NewClient(cfg)
}

func TestRegistry_RegisterAndHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	newTracked(t, registry, "friendlines-api")

	assert.Equal(t, 1, registry.Len())

	health := registry.Health("friendlines-api")
	require.NotNil(t, health)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.Nil(t, health.LastSuccessAt)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	newTracked(t, registry, "expo")

	registry.Unregister("expo")

	assert.Equal(t, 0, registry.Len())
	assert.Nil(t, registry.Health("expo"))
}

func TestRegistry_RecordOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	newTracked(t, registry, "expo")

	registry.RecordSuccess("expo")
	registry.RecordFailure("expo", assert.AnError)

	health := registry.Health("expo")
	require.NotNil(t, health)
	require.NotNil(t, health.LastSuccessAt)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, assert.AnError.Error(), health.LastError)
}

func TestRegistry_AllSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"friendlines-api", "expo"} {
		newTracked(t, registry, name)
	}

	all := registry.All()
	require.Len(t, all, 2)
	assert.Equal(t, "expo", all[0].Name)
	assert.Equal(t, "friendlines-api", all[1].Name)
}

func TestRegistry_UnknownNamesAreIgnored(t *testing.T) {
	registry := resilience.NewRegistry()

	registry.RecordSuccess("nonexistent")
	registry.RecordFailure("nonexistent", assert.AnError)

	assert.Nil(t, registry.Health("nonexistent"))
}

func TestHealth_States(t *testing.T) {
	tests := []struct {
		state     gobreaker.State
		healthy   bool
		degraded  bool
		unhealthy bool
	}{
		{gobreaker.StateClosed, true, false, false},
		{gobreaker.StateHalfOpen, false, true, false},
		{gobreaker.StateOpen, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.Health{CircuitState: tt.state}
			assert.Equal(t, tt.healthy, h.IsHealthy())
			assert.Equal(t, tt.degraded, h.IsDegraded())
			assert.Equal(t, tt.unhealthy, h.IsUnhealthy())
		})
	}
}
