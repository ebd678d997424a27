package otel_test

import (
	"testing"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/inspect-labs/inspectflow"
	flowotel "github.com/inspect-labs/inspectflow/otel"
)

// newTestTracer returns a tracer backed by an in-memory span exporter.
func newTestTracer() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	return exporter, tp
}

func TestTracingHandler_RunSpanLifecycle(t *testing.T) {
	exporter, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	now := time.Now()
	h.Handle(inspectflow.Event{
		Kind:     inspectflow.EventRunStarted,
		RunID:    "run-1",
		Solution: "line1",
		Time:     now,
	})

	if !h.ActiveRunSpanContext("run-1").IsValid() {
		t.Fatal("no valid run span context after run_started")
	}

	h.Handle(inspectflow.Event{
		Kind:     inspectflow.EventRunFinished,
		RunID:    "run-1",
		Solution: "line1",
		Time:     now.Add(100 * time.Millisecond),
		Elapsed:  100 * time.Millisecond,
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "run:line1" {
		t.Errorf("span name = %q, want run:line1", spans[0].Name)
	}
	if h.ActiveRunSpanContext("run-1").IsValid() {
		t.Error("run span still active after run_finished")
	}
}

func TestTracingHandler_ToolSpansNestUnderRun(t *testing.T) {
	exporter, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	now := time.Now()
	h.Handle(inspectflow.Event{
		Kind: inspectflow.EventRunStarted, RunID: "run-1", Solution: "line1", Time: now,
	})
	h.Handle(inspectflow.Event{
		Kind: inspectflow.EventToolStarted, RunID: "run-1", Tool: "blur",
		Category: inspectflow.CategoryFilter, Procedure: "p", Time: now,
	})
	h.Handle(inspectflow.Event{
		Kind: inspectflow.EventToolFinished, RunID: "run-1", Tool: "blur",
		Time: now.Add(time.Millisecond), Elapsed: time.Millisecond,
	})
	h.Handle(inspectflow.Event{
		Kind: inspectflow.EventRunFinished, RunID: "run-1", Time: now.Add(2 * time.Millisecond),
	})

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want tool + run", len(spans))
	}
	toolSpan, runSpan := spans[0], spans[1]
	if toolSpan.Name != "tool:blur" || runSpan.Name != "run:line1" {
		t.Fatalf("span names = %q, %q", toolSpan.Name, runSpan.Name)
	}
	if toolSpan.Parent.SpanID() != runSpan.SpanContext.SpanID() {
		t.Error("tool span is not a child of the run span")
	}
	if toolSpan.Status.Code != otelcodes.Ok {
		t.Errorf("tool span status = %v, want Ok", toolSpan.Status.Code)
	}
}

func TestTracingHandler_ToolFailureMarksSpanError(t *testing.T) {
	exporter, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	now := time.Now()
	h.Handle(inspectflow.Event{
		Kind: inspectflow.EventToolStarted, RunID: "run-1", Tool: "ocr", Time: now,
	})
	h.Handle(inspectflow.Event{
		Kind: inspectflow.EventToolFailed, RunID: "run-1", Tool: "ocr",
		Time:    now.Add(time.Millisecond),
		Payload: map[string]any{"error": "camera [502]: frame lost"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != otelcodes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "camera [502]: frame lost" {
		t.Errorf("status description = %q", spans[0].Status.Description)
	}
}

func TestTracingHandler_ProcedureRunReusesRootSpan(t *testing.T) {
	exporter, tp := newTestTracer()
	h := flowotel.NewTracingHandler(tp.Tracer("test"))

	now := time.Now()
	h.Handle(inspectflow.Event{
		Kind: inspectflow.EventRunStarted, RunID: "run-1", Solution: "line1", Time: now,
	})
	// Same run ID: the procedure event must not open a second root.
	h.Handle(inspectflow.Event{
		Kind: inspectflow.EventProcedureStarted, RunID: "run-1", Procedure: "p", Time: now,
	})
	h.Handle(inspectflow.Event{
		Kind: inspectflow.EventRunFinished, RunID: "run-1", Time: now.Add(time.Millisecond),
	})

	if got := len(exporter.GetSpans()); got != 1 {
		t.Errorf("got %d spans, want 1 shared root", got)
	}
}
