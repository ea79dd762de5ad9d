package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskctl"

// Span names for the planning, LLM, tool, and execution phases.
const (
	SpanPlanningPhase = "taskctl.planning.phase"
	SpanLLMCall       = "taskctl.llm.call"
	SpanToolCall      = "taskctl.tool.call"
	SpanSubtaskExec   = "taskctl.execution.subtask"
)

// StartSpan starts a span under the taskctl tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
