// Package obs wires OpenTelemetry tracing around session attach and
// console command dispatch, following the otel.Tracer(name)/
// tracer.Start(ctx, span) shape used throughout the pack wherever a
// request-scoped span is needed (e.g. a websocket diff-send loop
// tracing each outbound frame).
package obs

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "cohsh"

// NewStdoutProvider builds a TracerProvider that writes spans to w as
// they complete, for CLI/diagnostic use where shipping spans to a
// collector would be overkill.
func NewStdoutProvider(w io.Writer) (*trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(trace.WithBatcher(exporter)), nil
}

// CorrelationID mints a fresh request-scoped identifier, attached to a
// span as an attribute so a trace can be cross-referenced against the
// session's own trace-log capture.
func CorrelationID() string {
	return uuid.NewString()
}

// StartAttach opens a span around one attach attempt.
func StartAttach(ctx context.Context, role string) (context.Context, oteltrace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "session.attach",
		oteltrace.WithAttributes(
			attribute.String("role", role),
			attribute.String("correlation_id", CorrelationID()),
		),
	)
	return ctx, span
}

// StartDispatch opens a span around one console command's dispatch.
func StartDispatch(ctx context.Context, verb string) (context.Context, oteltrace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "console.dispatch",
		oteltrace.WithAttributes(attribute.String("verb", verb)),
	)
	return ctx, span
}

// EndWithError records err on span (if non-nil) and ends it.
func EndWithError(span oteltrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
