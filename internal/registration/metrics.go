package registration

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/friendlines/friendlines/internal/registration"

// Metrics holds the registration pipeline instruments. A nil *Metrics
// records nothing.
type Metrics struct {
	flows           metric.Int64Counter
	backendAttempts metric.Int64Counter
	duration        metric.Float64Histogram
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	flows, err := meter.Int64Counter(
		"push.registration.flows",
		metric.WithDescription("Registration flows by outcome"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return nil, err
	}

	backendAttempts, err := meter.Int64Counter(
		"push.registration.backend_attempts",
		metric.WithDescription("Backend registration attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"push.registration.duration",
		metric.WithDescription("Duration of registration flows in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		flows:           flows,
		backendAttempts: backendAttempts,
		duration:        duration,
	}, nil
}

func (m *Metrics) recordFlow(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.flows.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) recordBackendAttempt(ctx context.Context, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.backendAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
