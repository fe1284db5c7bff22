package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "travelbook/support-api"
)

// GetTracer returns the tracer for the support-api service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// ConversationAttributes returns common attributes for conversation spans.
func ConversationAttributes(conversationID, conversationType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("conversation.id", conversationID),
		attribute.String("conversation.type", conversationType),
	}
}

// StartSendSpan starts a new span for message ingestion.
func StartSendSpan(ctx context.Context, conversationID, conversationType, senderType string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "message.send",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append(
			ConversationAttributes(conversationID, conversationType),
			attribute.String("message.sender_type", senderType),
		)...),
	)
	return ctx, span
}

// StartFetchSpan starts a new span for message history reads.
func StartFetchSpan(ctx context.Context, conversationID string, limit int) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "message.fetch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.Int("fetch.limit", limit),
		),
	)
	return ctx, span
}

// StartReplyJobSpan starts a new span for auto-reply job execution.
func StartReplyJobSpan(ctx context.Context, jobID uint, language string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "autoreply.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("job.id", int(jobID)),
			attribute.String("job.language", language),
		),
	)
	return ctx, span
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
