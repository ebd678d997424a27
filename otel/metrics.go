package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/inspect-labs/inspectflow"
)

// MetricsHandler translates engine events into OpenTelemetry metrics:
// counters and histograms for tool executions, failures, skipped
// ticks, and run durations.
type MetricsHandler struct {
	toolExecutions metric.Int64Counter
	toolFailures   metric.Int64Counter
	ticksSkipped   metric.Int64Counter
	toolDuration   metric.Float64Histogram
	runDuration    metric.Float64Histogram
}

// NewMetricsHandler creates a MetricsHandler that uses the given meter
// to create its instruments.
func NewMetricsHandler(meter metric.Meter) (*MetricsHandler, error) {
	toolExec, err := meter.Int64Counter("inspectflow.tool.executions",
		metric.WithDescription("Number of tool executions"),
	)
	if err != nil {
		return nil, err
	}

	toolFail, err := meter.Int64Counter("inspectflow.tool.failures",
		metric.WithDescription("Number of tool failures"),
	)
	if err != nil {
		return nil, err
	}

	ticksSkipped, err := meter.Int64Counter("inspectflow.run.ticks_skipped",
		metric.WithDescription("Number of continuous-run ticks skipped due to overrun"),
	)
	if err != nil {
		return nil, err
	}

	toolDur, err := meter.Float64Histogram("inspectflow.tool.duration",
		metric.WithDescription("Duration of tool execution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runDur, err := meter.Float64Histogram("inspectflow.run.duration",
		metric.WithDescription("Duration of a solution run in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsHandler{
		toolExecutions: toolExec,
		toolFailures:   toolFail,
		ticksSkipped:   ticksSkipped,
		toolDuration:   toolDur,
		runDuration:    runDur,
	}, nil
}

// Handle processes an engine event and records the appropriate
// metrics. It is an inspectflow.EventHandler.
func (h *MetricsHandler) Handle(e inspectflow.Event) {
	switch e.Kind {
	case inspectflow.EventToolFinished:
		h.handleToolFinished(e)
	case inspectflow.EventToolFailed:
		h.handleToolFailed(e)
	case inspectflow.EventTickSkipped:
		h.handleTickSkipped(e)
	case inspectflow.EventRunFinished:
		h.handleRunFinished(e)
	}
}

// handleToolFinished increments the execution counter and records duration.
func (h *MetricsHandler) handleToolFinished(e inspectflow.Event) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("category", string(e.Category)),
		attribute.String("tool", e.Tool),
	)
	h.toolExecutions.Add(ctx, 1, attrs)
	h.toolDuration.Record(ctx, e.Elapsed.Seconds(), attrs)
}

// handleToolFailed increments the failure counter.
func (h *MetricsHandler) handleToolFailed(e inspectflow.Event) {
	h.toolFailures.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("category", string(e.Category)),
		attribute.String("tool", e.Tool),
	))
}

// handleTickSkipped increments the overrun counter.
func (h *MetricsHandler) handleTickSkipped(e inspectflow.Event) {
	h.ticksSkipped.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("solution", e.Solution),
	))
}

// handleRunFinished records the solution run duration.
func (h *MetricsHandler) handleRunFinished(e inspectflow.Event) {
	h.runDuration.Record(context.Background(), e.Elapsed.Seconds(),
		metric.WithAttributes(attribute.String("solution", e.Solution)))
}
