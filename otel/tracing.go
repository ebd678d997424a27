// Package otel provides OpenTelemetry integration for inspectflow
// engine events.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inspect-labs/inspectflow"
)

// TracingHandler translates engine events into OpenTelemetry spans: a
// root span per run and a child span per tool run, created and ended
// by event kind.
type TracingHandler struct {
	tracer trace.Tracer

	mu        sync.RWMutex
	runSpans  map[string]trace.Span      // runID -> span
	runCtxs   map[string]context.Context // runID -> context (for child spans)
	toolSpans map[string]trace.Span      // runID:tool -> span
}

// NewTracingHandler creates a TracingHandler over the given tracer.
func NewTracingHandler(tracer trace.Tracer) *TracingHandler {
	return &TracingHandler{
		tracer:    tracer,
		runSpans:  make(map[string]trace.Span),
		runCtxs:   make(map[string]context.Context),
		toolSpans: make(map[string]trace.Span),
	}
}

// Handle processes an engine event and creates or ends spans
// accordingly. It is an inspectflow.EventHandler.
func (h *TracingHandler) Handle(e inspectflow.Event) {
	switch e.Kind {
	case inspectflow.EventRunStarted, inspectflow.EventProcedureStarted:
		h.handleRunStarted(e)
	case inspectflow.EventToolStarted:
		h.handleToolStarted(e)
	case inspectflow.EventToolFinished:
		h.handleToolFinished(e)
	case inspectflow.EventToolFailed:
		h.handleToolFailed(e)
	case inspectflow.EventToolSkipped:
		h.handleToolSkipped(e)
	case inspectflow.EventRunFinished, inspectflow.EventProcedureFinished:
		h.handleRunFinished(e)
	}
}

// handleRunStarted creates a root span for the run. A procedure run
// inside an already traced solution run reuses the root span.
func (h *TracingHandler) handleRunStarted(e inspectflow.Event) {
	h.mu.RLock()
	_, exists := h.runSpans[e.RunID]
	h.mu.RUnlock()
	if exists {
		return
	}

	name := e.Solution
	if name == "" {
		name = e.Procedure
	}
	spanName := "run:" + e.RunID
	if name != "" {
		spanName = "run:" + name
	}

	ctx, span := h.tracer.Start(context.Background(), spanName,
		trace.WithAttributes(
			attribute.String("inspectflow.run_id", e.RunID),
		),
		trace.WithTimestamp(e.Time),
	)
	if e.Solution != "" {
		span.SetAttributes(attribute.String("inspectflow.solution", e.Solution))
	}
	if e.Procedure != "" {
		span.SetAttributes(attribute.String("inspectflow.procedure", e.Procedure))
	}

	h.mu.Lock()
	h.runSpans[e.RunID] = span
	h.runCtxs[e.RunID] = ctx
	h.mu.Unlock()
}

// handleToolStarted creates a child span under the run span.
func (h *TracingHandler) handleToolStarted(e inspectflow.Event) {
	h.mu.RLock()
	parentCtx, ok := h.runCtxs[e.RunID]
	h.mu.RUnlock()

	if !ok {
		// No parent run span; start from background context.
		parentCtx = context.Background()
	}

	_, span := h.tracer.Start(parentCtx, "tool:"+e.Tool,
		trace.WithAttributes(
			attribute.String("inspectflow.run_id", e.RunID),
			attribute.String("inspectflow.tool", e.Tool),
			attribute.String("inspectflow.category", string(e.Category)),
			attribute.String("inspectflow.procedure", e.Procedure),
		),
		trace.WithTimestamp(e.Time),
	)

	h.mu.Lock()
	h.toolSpans[e.RunID+":"+e.Tool] = span
	h.mu.Unlock()
}

// handleToolFinished ends the tool span with success status.
func (h *TracingHandler) handleToolFinished(e inspectflow.Event) {
	span, ok := h.takeToolSpan(e)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("inspectflow.duration", e.Elapsed.String()))
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(e.Time))
}

// handleToolFailed ends the tool span with error status.
func (h *TracingHandler) handleToolFailed(e inspectflow.Event) {
	span, ok := h.takeToolSpan(e)
	if !ok {
		return
	}
	errMsg := "unknown error"
	if msg, found := e.Payload["error"]; found {
		if s, ok := msg.(string); ok {
			errMsg = s
		}
	}
	span.SetStatus(codes.Error, errMsg)
	span.RecordError(spanError(errMsg), trace.WithTimestamp(e.Time))
	span.End(trace.WithTimestamp(e.Time))
}

// handleToolSkipped adds a span event on the run span for a disabled
// tool.
func (h *TracingHandler) handleToolSkipped(e inspectflow.Event) {
	h.mu.RLock()
	span, ok := h.runSpans[e.RunID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	span.AddEvent("tool_skipped",
		trace.WithTimestamp(e.Time),
		trace.WithAttributes(attribute.String("inspectflow.tool", e.Tool)))
}

// handleRunFinished ends the root run span.
func (h *TracingHandler) handleRunFinished(e inspectflow.Event) {
	h.mu.Lock()
	span, ok := h.runSpans[e.RunID]
	if ok {
		delete(h.runSpans, e.RunID)
		delete(h.runCtxs, e.RunID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	span.SetAttributes(attribute.String("inspectflow.duration", e.Elapsed.String()))
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(e.Time))
}

func (h *TracingHandler) takeToolSpan(e inspectflow.Event) (trace.Span, bool) {
	key := e.RunID + ":" + e.Tool
	h.mu.Lock()
	defer h.mu.Unlock()
	span, ok := h.toolSpans[key]
	if ok {
		delete(h.toolSpans, key)
	}
	return span, ok
}

// ActiveRunSpanContext returns the SpanContext for an active run span,
// or an empty SpanContext when the run is not being traced.
func (h *TracingHandler) ActiveRunSpanContext(runID string) trace.SpanContext {
	h.mu.RLock()
	span, ok := h.runSpans[runID]
	h.mu.RUnlock()

	if !ok {
		return trace.SpanContext{}
	}
	return span.SpanContext()
}

// spanError is a simple error type for recording span errors.
type spanError string

func (e spanError) Error() string { return string(e) }
