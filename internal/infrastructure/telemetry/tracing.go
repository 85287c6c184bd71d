package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for application spans
const TracerName = "github.com/bidhouse/backend"

// Span attribute keys shared by the services
const (
	AttrProductID = "product.id"
	AttrBidderID  = "bidder.id"
	AttrSellerID  = "seller.id"
	AttrAmount    = "bid.amount"
	AttrAttempt   = "retry.attempt"
)

// StartServiceSpan starts an internal span named {service}.{method}.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "bidding", "place_bid")
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(toAttributes(keyValues)...),
	)
}

// SetAttributes adds key/value pairs to span. Non-string keys are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttributes(keyValues)...)
}

// RecordError marks the span as failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds a timestamped event with attributes
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(toAttributes(keyValues)...))
}

// GetTraceID returns the active trace id, or "" outside a sampled span
func GetTraceID(ctx context.Context) string {
	traceID := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}

func toAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
