package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Phase names used as span names.
const (
	PhaseRecord   = "record"
	PhaseReplay   = "replay"
	PhaseCheck    = "check"
	PhaseEvaluate = "evaluate"
	PhaseExport   = "export"
)

// StartPhaseSpan starts a span for one offline phase of a session. target
// distinguishes sibling spans of the same phase, such as one per output file.
func StartPhaseSpan(ctx context.Context, tracer trace.Tracer, phase, target string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	spanName := "rtperf " + phase
	if target != "" {
		spanName = spanName + " " + target
	}
	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(attribute.String("rtperf.phase", phase))
	if target != "" {
		span.SetAttributes(attribute.String("rtperf.target", target))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
