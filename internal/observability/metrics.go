// Package observability provides metrics instruments and tracing helpers
// for LLM calls, tool calls, planning phases and subtask executions.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the OTel instruments exposed over Prometheus's /metrics
// scrape endpoint.
type Metrics struct {
	provider *sdkmetric.MeterProvider

	llmCallDuration    metric.Float64Histogram
	toolCallDuration   metric.Float64Histogram
	planningPhaseTotal metric.Int64Counter
	subtaskExecTotal   metric.Int64Counter
}

// New wires an OTel MeterProvider to a Prometheus exporter registered on
// the default Prometheus registry: metrics are scraped, not pushed.
func New() (*Metrics, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("taskctl")

	llmCallDuration, err := meter.Float64Histogram("taskctl_llm_call_duration_seconds",
		metric.WithDescription("LLM façade call latency in seconds"))
	if err != nil {
		return nil, err
	}
	toolCallDuration, err := meter.Float64Histogram("taskctl_tool_call_duration_seconds",
		metric.WithDescription("Tool dispatch call latency in seconds"))
	if err != nil {
		return nil, err
	}
	planningPhaseTotal, err := meter.Int64Counter("taskctl_planning_phase_total",
		metric.WithDescription("Planning pipeline phase completions, by phase and outcome"))
	if err != nil {
		return nil, err
	}
	subtaskExecTotal, err := meter.Int64Counter("taskctl_subtask_execution_total",
		metric.WithDescription("Execution Engine subtask runs, by outcome"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		provider:           provider,
		llmCallDuration:    llmCallDuration,
		toolCallDuration:   toolCallDuration,
		planningPhaseTotal: planningPhaseTotal,
		subtaskExecTotal:   subtaskExecTotal,
	}, nil
}

// Handler serves the Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// Shutdown flushes and stops the MeterProvider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// RecordLLMCall records one façade call's duration, labeled by planning
// phase.
func (m *Metrics) RecordLLMCall(ctx context.Context, phase string, duration time.Duration, success bool) {
	m.llmCallDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("phase", phase), attribute.Bool("success", success)))
}

// RecordPlanningPhase increments the planning-phase completion counter.
func (m *Metrics) RecordPlanningPhase(ctx context.Context, phase string, success bool) {
	m.planningPhaseTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("phase", phase), attribute.Bool("success", success)))
}

// RecordSubtaskExecution increments the subtask-execution counter.
func (m *Metrics) RecordSubtaskExecution(ctx context.Context, executor string, success bool) {
	m.subtaskExecTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("executor", executor), attribute.Bool("success", success)))
}

// ToolSLARecorder adapts Metrics into toolregistry.SLARecorder's
// func(name string, duration time.Duration, success bool) shape so the
// Tool Registry's outermost wrap layer can feed it directly.
func (m *Metrics) ToolSLARecorder() func(name string, duration time.Duration, success bool) {
	return func(name string, duration time.Duration, success bool) {
		m.toolCallDuration.Record(context.Background(), duration.Seconds(),
			metric.WithAttributes(attribute.String("tool", name), attribute.Bool("success", success)))
	}
}
