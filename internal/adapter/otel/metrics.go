package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "frontdesk"

// Metrics holds all frontdesk metric instruments.
type Metrics struct {
	WebhooksReceived   metric.Int64Counter
	WebhooksRejected   metric.Int64Counter
	WebhooksDeduped    metric.Int64Counter
	CompletionsFailed  metric.Int64Counter
	SendsFailed        metric.Int64Counter
	CompletionDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.WebhooksReceived, err = meter.Int64Counter("frontdesk.webhooks.received",
		metric.WithDescription("Webhook deliveries accepted into the pipeline"))
	if err != nil {
		return nil, err
	}

	m.WebhooksRejected, err = meter.Int64Counter("frontdesk.webhooks.rejected",
		metric.WithDescription("Webhook deliveries rejected by verification"))
	if err != nil {
		return nil, err
	}

	m.WebhooksDeduped, err = meter.Int64Counter("frontdesk.webhooks.deduped",
		metric.WithDescription("Webhook redeliveries suppressed by the dedup store"))
	if err != nil {
		return nil, err
	}

	m.CompletionsFailed, err = meter.Int64Counter("frontdesk.completions.failed",
		metric.WithDescription("Completion calls that failed or were short-circuited"))
	if err != nil {
		return nil, err
	}

	m.SendsFailed, err = meter.Int64Counter("frontdesk.sends.failed",
		metric.WithDescription("Outbound channel sends that failed"))
	if err != nil {
		return nil, err
	}

	m.CompletionDuration, err = meter.Float64Histogram("frontdesk.completion.duration_seconds",
		metric.WithDescription("Completion call duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
