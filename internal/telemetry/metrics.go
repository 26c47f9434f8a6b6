package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const ServiceName = "recruiter-chat"

// Metrics holds the application instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ValidationFailures metric.Int64Counter
	Completions        metric.Int64Counter
	CompletionDuration metric.Float64Histogram
	Exchanges          metric.Int64Counter
}

// New registers instruments on the global meter provider; without an SDK
// provider installed they are no-ops.
func New() (*Metrics, error) {
	meter := otel.Meter(ServiceName)

	failures, err := meter.Int64Counter(
		"token.validation.failures",
		metric.WithDescription("Rejected token validations by reason"),
	)
	if err != nil {
		return nil, err
	}

	completions, err := meter.Int64Counter(
		"completion.requests",
		metric.WithDescription("Completion provider calls by outcome"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"completion.duration",
		metric.WithDescription("Completion provider latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	exchanges, err := meter.Int64Counter(
		"chat.exchanges",
		metric.WithDescription("Recorded chat exchanges"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ValidationFailures: failures,
		Completions:        completions,
		CompletionDuration: duration,
		Exchanges:          exchanges,
	}, nil
}

func (m *Metrics) RecordValidationFailure(ctx context.Context, reason, accessType string) {
	if m == nil {
		return
	}
	m.ValidationFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
		attribute.String("access_type", accessType),
	))
}

func (m *Metrics) RecordCompletion(ctx context.Context, provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	m.Completions.Add(ctx, 1, attrs)
	m.CompletionDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *Metrics) RecordExchange(ctx context.Context) {
	if m == nil {
		return
	}
	m.Exchanges.Add(ctx, 1)
}
