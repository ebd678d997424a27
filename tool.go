package inspectflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/inspect-labs/inspectflow/faults"
)

// Category groups tool kinds by their role in a pipeline.
type Category string

const (
	CategoryImageSource   Category = "ImageSource"
	CategoryFilter        Category = "Filter"
	CategoryDetection     Category = "Detection"
	CategoryMeasurement   Category = "Measurement"
	CategoryRecognition   Category = "Recognition"
	CategoryCommunication Category = "Communication"
)

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// Output is what a tool body returns: an optional primary artifact for
// the output port plus keyed auxiliary values merged into the
// ResultBundle.
type Output struct {
	Artifact *Artifact
	Values   map[string]any
}

// Body is the algorithm contract. A body receives the bound input
// artifact (nil for source tools) and a snapshot of the instance's
// parameters; it returns its outputs or a classified *faults.Error.
// Any other error is classified as internal.
//
// Bodies must not retain or mutate the input artifact.
type Body func(ctx context.Context, in *Artifact, params map[string]any) (*Output, error)

// ToolSpec declares a tool kind: its catalog identity, port shape,
// parameter specs, and algorithm body. Specs are registered once in a
// Registry and shared by every instance.
type ToolSpec struct {
	Category    Category
	Kind        string
	Description string

	// Source marks kinds that require no bound input (acquisition
	// tools). Source specs seed the execution order.
	Source bool

	InputPorts  []Port
	OutputPorts []Port
	Params      []ParamSpec

	// Body is the algorithm. A nil body passes the input through.
	Body Body

	// CheckInput overrides the default input validation ("has a valid
	// bound input artifact"). It returns a classified error when the
	// input is unusable.
	CheckInput func(in *Artifact) error
}

// Key returns the registry key "category.kind". Case-sensitive; dots
// inside names are not escaped.
func (s ToolSpec) Key() string {
	return fmt.Sprintf("%s.%s", s.Category, s.Kind)
}

// ErrToolBusy is the sentinel wrapped into the classified error Run
// returns when the instance is already running.
var ErrToolBusy = errors.New("tool is already running")

// Tool is one configured pipeline stage: a ToolSpec instance with its
// own identity, parameters, bound input, and last outcome. A Tool's
// state is exclusively owned by the instance; the scheduler only reads
// the last-output reference.
type Tool struct {
	id   string
	name string
	spec ToolSpec

	params  *ParamStore
	enabled bool
	running atomic.Bool

	input   *Artifact
	output  *Artifact
	result  *ResultBundle
	lastErr error
	elapsed time.Duration

	recovery *faults.Manager
	logger   *slog.Logger
}

// newTool builds an instance from a spec. Use Registry.Create in
// normal operation.
func newTool(spec ToolSpec, name string) *Tool {
	id := uuid.NewString()
	if name == "" {
		name = fmt.Sprintf("%s_%s", spec.Kind, id[:8])
	}
	params := NewParamStore()
	for _, ps := range spec.Params {
		params.Define(ps)
	}
	return &Tool{
		id:      id,
		name:    name,
		spec:    spec,
		params:  params,
		enabled: true,
		logger:  slog.Default().With(slog.String("tool", name), slog.String("kind", spec.Kind)),
	}
}

// NewTool builds a standalone instance from a spec, bypassing any
// registry. Tests and embedders use this directly.
func NewTool(spec ToolSpec, name string) *Tool {
	return newTool(spec, name)
}

// ID returns the instance's unique identifier.
func (t *Tool) ID() string { return t.id }

// Name returns the instance name.
func (t *Tool) Name() string { return t.name }

// SetName renames the instance.
func (t *Tool) SetName(name string) { t.name = name }

// Category returns the spec's category.
func (t *Tool) Category() Category { return t.spec.Category }

// Kind returns the spec's kind.
func (t *Tool) Kind() string { return t.spec.Kind }

// Spec returns the declaring spec.
func (t *Tool) Spec() ToolSpec { return t.spec }

// Params returns the instance's parameter store.
func (t *Tool) Params() *ParamStore { return t.params }

// Enabled reports whether the instance participates in runs.
func (t *Tool) Enabled() bool { return t.enabled }

// SetEnabled toggles participation. A disabled tool's Run is a
// successful no-op and its last output is left untouched.
func (t *Tool) SetEnabled(v bool) { t.enabled = v }

// Running reports whether a run is in flight.
func (t *Tool) Running() bool { return t.running.Load() }

// SetRecovery attaches a recovery manager; failures are submitted to
// it asynchronously.
func (t *Tool) SetRecovery(m *faults.Manager) { t.recovery = m }

// SetInput binds the input artifact.
func (t *Tool) SetInput(a *Artifact) { t.input = a }

// Input returns the bound input artifact.
func (t *Tool) Input() *Artifact { return t.input }

// Output returns the last successful output artifact.
func (t *Tool) Output() *Artifact { return t.output }

// Result returns the last run's ResultBundle.
func (t *Tool) Result() *ResultBundle { return t.result }

// LastError returns the last run's classified error, nil after a
// successful run.
func (t *Tool) LastError() error { return t.lastErr }

// Elapsed returns the last run's duration.
func (t *Tool) Elapsed() time.Duration { return t.elapsed }

// InputPorts returns the spec's input ports.
func (t *Tool) InputPorts() []Port { return t.spec.InputPorts }

// OutputPorts returns the spec's output ports.
func (t *Tool) OutputPorts() []Port { return t.spec.OutputPorts }

// Run executes the tool once:
//
//  1. Disabled instances succeed as a no-op.
//  2. A second concurrent Run fails with ErrToolBusy.
//  3. The required input is validated (spec CheckInput, or the default
//     valid-artifact check for non-source kinds).
//  4. The body is invoked with the input and a parameter snapshot.
//  5. Outputs are normalized into the output slot and ResultBundle.
//  6. Elapsed time is recorded.
//
// On failure the error is classified into the taxonomy, a failure
// bundle replaces the result, the record is handed to the recovery
// manager asynchronously, and the classified *faults.Error is
// returned. A failed run never overwrites the previous successful
// output. The running flag is released on every exit path.
func (t *Tool) Run(ctx context.Context) error {
	if !t.enabled {
		t.logger.Debug("tool disabled, skipping")
		return nil
	}
	if !t.running.CompareAndSwap(false, true) {
		t.logger.Warn("tool already running")
		return faults.New(faults.KindInternal, "tool is already running").
			WithComponent(t.name).
			Wrap(ErrToolBusy)
	}
	defer t.running.Store(false)

	t.lastErr = nil
	t.result = NewResultBundle()
	start := time.Now()

	if err := t.checkInput(); err != nil {
		return t.fail(start, err)
	}

	var (
		out *Output
		err error
	)
	if t.spec.Body == nil {
		out = &Output{Artifact: t.input}
	} else {
		out, err = t.spec.Body(ctx, t.input, t.params.Snapshot())
	}
	if err != nil {
		return t.fail(start, err)
	}

	if out != nil {
		if out.Artifact != nil {
			t.output = out.Artifact
		}
		for k, v := range out.Values {
			t.result.SetValue(k, v)
		}
	}

	t.elapsed = time.Since(start)
	t.result.Message = "ok"
	t.logger.Debug("tool finished", slog.Duration("elapsed", t.elapsed))
	return nil
}

func (t *Tool) checkInput() error {
	if t.spec.CheckInput != nil {
		return t.spec.CheckInput(t.input)
	}
	if t.spec.Source {
		return nil
	}
	if !t.input.Valid() {
		return faults.New(faults.KindImage, "no valid input artifact")
	}
	return nil
}

// fail classifies err, fills the failure bundle, submits the record
// for recovery, and returns the uniform error.
func (t *Tool) fail(start time.Time, err error) error {
	t.elapsed = time.Since(start)

	var ferr *faults.Error
	if !errors.As(err, &ferr) {
		ferr = faults.New(faults.KindInternal, err.Error())
	}
	if ferr.Component == "" {
		ferr.Component = t.name
	}

	t.lastErr = ferr
	t.result.Status = false
	t.result.Message = faults.FormatMessage(ferr.Code, ferr.Message)
	t.result.ErrorKind = string(ferr.Kind)
	t.result.ErrorCode = ferr.Code

	faults.LogError(t.logger, ferr.Code, ferr.Message, map[string]any{"tool": t.name})

	if t.recovery != nil {
		rec := faults.Record{
			Kind:      ferr.Kind,
			Code:      ferr.Code,
			Message:   ferr.Message,
			Component: t.name,
			Time:      time.Now(),
			Details:   ferr.Details,
		}
		// Fire and forget: the outcome is observable through the
		// manager's history but never changes this run's error.
		go t.recovery.Recover(context.Background(), rec)
	}

	return ferr
}

// Reset drops the output, result, timing, and last error without
// touching parameters or the bound input.
func (t *Tool) Reset() {
	t.output = nil
	t.result = nil
	t.lastErr = nil
	t.elapsed = 0
}

// ClearInput drops the bound input independently of Reset.
func (t *Tool) ClearInput() {
	t.input = nil
}

// Clear drops input, output, result, timing, and error state.
func (t *Tool) Clear() {
	t.ClearInput()
	t.Reset()
}

// Copy creates a new instance of the same spec with a copy of the
// current parameter values. Run state is not copied.
func (t *Tool) Copy() *Tool {
	nt := newTool(t.spec, t.name)
	nt.params.Restore(t.params.Snapshot())
	nt.enabled = t.enabled
	nt.recovery = t.recovery
	return nt
}

// Info summarizes the instance for presentation layers.
func (t *Tool) Info() map[string]any {
	return map[string]any{
		"id":         t.id,
		"name":       t.name,
		"category":   string(t.spec.Category),
		"kind":       t.spec.Kind,
		"enabled":    t.enabled,
		"running":    t.running.Load(),
		"elapsed_ms": float64(t.elapsed) / float64(time.Millisecond),
		"params":     t.params.Snapshot(),
	}
}
