package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "frontdesk"

// StartPipelineSpan starts a span for one webhook delivery moving through
// the message pipeline.
func StartPipelineSpan(ctx context.Context, tenantID, channel string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("channel", channel),
		),
	)
}

// StartCompletionSpan starts a span for a completion call.
func StartCompletionSpan(ctx context.Context, conversationID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "completion",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
		),
	)
}
