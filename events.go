package inspectflow

import (
	"time"
)

// EventKind identifies the type of event emitted by the engine.
type EventKind string

const (
	// EventRunStarted is emitted when a solution run begins.
	EventRunStarted EventKind = "run_started"

	// EventRunFinished is emitted when a solution run completes.
	EventRunFinished EventKind = "run_finished"

	// EventRunStopped is emitted when a continuous run has observed a
	// stop request and ended.
	EventRunStopped EventKind = "run_stopped"

	// EventTickSkipped is emitted when a continuous-run tick is dropped
	// because the previous tick is still in flight.
	EventTickSkipped EventKind = "tick_skipped"

	// EventProcedureStarted is emitted when a procedure begins execution.
	EventProcedureStarted EventKind = "procedure_started"

	// EventProcedureFinished is emitted when a procedure completes.
	EventProcedureFinished EventKind = "procedure_finished"

	// EventToolStarted is emitted when a tool begins execution.
	EventToolStarted EventKind = "tool_started"

	// EventToolFinished is emitted when a tool completes successfully.
	EventToolFinished EventKind = "tool_finished"

	// EventToolFailed is emitted when a tool run fails.
	EventToolFailed EventKind = "tool_failed"

	// EventToolSkipped is emitted when a disabled tool is passed over.
	EventToolSkipped EventKind = "tool_skipped"
)

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	return string(k)
}

// Event is a structured record of what happened during execution.
// Events should be kept small; large artifacts stay on the tools that
// produced them.
type Event struct {
	// Kind identifies the event type.
	Kind EventKind

	// RunID is the unique identifier for the enclosing run.
	RunID string

	// Solution and Procedure name the enclosing scopes (either may be
	// empty for lower-level events emitted outside that scope).
	Solution  string
	Procedure string

	// Tool and Category identify the tool for tool-level events.
	Tool     string
	Category Category

	// Time is when the event occurred.
	Time time.Time

	// Elapsed is the duration since the enclosing run or tool started.
	Elapsed time.Duration

	// Payload contains event-specific data.
	Payload map[string]any
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(kind EventKind, runID string) Event {
	return Event{
		Kind:    kind,
		RunID:   runID,
		Time:    time.Now(),
		Payload: make(map[string]any),
	}
}

// WithSolution sets the solution scope on the event.
func (e Event) WithSolution(name string) Event {
	e.Solution = name
	return e
}

// WithProcedure sets the procedure scope on the event.
func (e Event) WithProcedure(name string) Event {
	e.Procedure = name
	return e
}

// WithTool sets the tool identity on the event.
func (e Event) WithTool(name string, category Category) Event {
	e.Tool = name
	e.Category = category
	return e
}

// WithElapsed sets the elapsed duration on the event.
func (e Event) WithElapsed(elapsed time.Duration) Event {
	e.Elapsed = elapsed
	return e
}

// WithPayload adds a key-value pair to the event payload.
func (e Event) WithPayload(key string, value any) Event {
	if e.Payload == nil {
		e.Payload = make(map[string]any)
	}
	e.Payload[key] = value
	return e
}

// EventHandler receives events during execution. Handlers are invoked
// synchronously on the run goroutine, in registration order; a slow
// handler slows the run.
type EventHandler func(Event)

// observers is a small synchronous fan-out shared by Procedure and
// Solution.
type observers struct {
	handlers []EventHandler
}

func (o *observers) subscribe(h EventHandler) {
	if h != nil {
		o.handlers = append(o.handlers, h)
	}
}

func (o *observers) emit(e Event) {
	for _, h := range o.handlers {
		h(e)
	}
}
