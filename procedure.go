package inspectflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Graph errors.
var (
	ErrUnknownTool       = errors.New("tool not in procedure")
	ErrDuplicateTool     = errors.New("duplicate tool name")
	ErrSelfConnection    = errors.New("tool cannot connect to itself")
	ErrUnknownPort       = errors.New("port not found")
	ErrIncompatiblePorts = errors.New("incompatible port data kinds")
	ErrInputTaken        = errors.New("input port already has a producer")
	ErrCycleDetected     = errors.New("cycle detected in procedure")
	ErrProcedureRunning  = errors.New("procedure is already running")
)

// Connection is a directed edge from one tool's output port to
// another tool's input port.
type Connection struct {
	FromTool string
	ToTool   string
	FromPort string
	ToPort   string
}

// ToolRunResult is the per-tool outcome collected by Procedure.Run.
type ToolRunResult struct {
	Output *Artifact
	Result *ResultBundle
	Err    error
}

// Procedure is a directed acyclic graph of tools connected by ports,
// representing one inspection pipeline. It computes a deterministic
// execution order and drives per-tool runs, propagating artifacts
// along connections.
type Procedure struct {
	name    string
	tools   map[string]*Tool
	order   []string // insertion order; breaks scheduling ties
	conns   []Connection
	enabled bool
	running bool

	obs    observers
	logger *slog.Logger

	elapsed time.Duration
}

// NewProcedure creates an empty procedure.
func NewProcedure(name string) *Procedure {
	return &Procedure{
		name:    name,
		tools:   make(map[string]*Tool),
		enabled: true,
		logger:  slog.Default().With(slog.String("procedure", name)),
	}
}

// Name returns the procedure name.
func (p *Procedure) Name() string { return p.name }

// SetName renames the procedure.
func (p *Procedure) SetName(name string) { p.name = name }

// Enabled reports whether the procedure participates in solution runs.
func (p *Procedure) Enabled() bool { return p.enabled }

// SetEnabled toggles participation.
func (p *Procedure) SetEnabled(v bool) { p.enabled = v }

// Elapsed returns the last run's duration.
func (p *Procedure) Elapsed() time.Duration { return p.elapsed }

// Subscribe registers an observer invoked synchronously for every
// event this procedure emits.
func (p *Procedure) Subscribe(h EventHandler) { p.obs.subscribe(h) }

// ToolCount returns the number of tools in the graph.
func (p *Procedure) ToolCount() int { return len(p.tools) }

// Tools returns all tools in insertion order.
func (p *Procedure) Tools() []*Tool {
	out := make([]*Tool, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.tools[name])
	}
	return out
}

// Tool returns a tool by instance name.
func (p *Procedure) Tool(name string) (*Tool, bool) {
	t, ok := p.tools[name]
	return t, ok
}

// Connections returns a copy of all connections.
func (p *Procedure) Connections() []Connection {
	return append([]Connection(nil), p.conns...)
}

// AddTool adds a tool to the graph. Instance names are unique within
// a procedure.
func (p *Procedure) AddTool(t *Tool) error {
	if t == nil {
		return errors.New("cannot add nil tool")
	}
	if _, exists := p.tools[t.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
	}
	p.tools[t.Name()] = t
	p.order = append(p.order, t.Name())
	p.logger.Debug("tool added", slog.String("tool", t.Name()))
	return nil
}

// RemoveTool removes a tool and cascades: every connection touching it
// is dropped. It reports whether the tool was present.
func (p *Procedure) RemoveTool(name string) bool {
	if _, ok := p.tools[name]; !ok {
		return false
	}
	delete(p.tools, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	kept := p.conns[:0]
	for _, c := range p.conns {
		if c.FromTool != name && c.ToTool != name {
			kept = append(kept, c)
		}
	}
	p.conns = kept
	p.logger.Debug("tool removed", slog.String("tool", name))
	return true
}

// Connect wires from's default output port to to's default input port.
func (p *Procedure) Connect(from, to string) error {
	return p.ConnectPorts(from, to, DefaultOutputPort, DefaultInputPort)
}

// ConnectPorts wires fromPort on from to toPort on to. It fails on
// self-connection, unknown tools or ports, incompatible port data
// kinds, and when the target input port already has a producer.
func (p *Procedure) ConnectPorts(from, to, fromPort, toPort string) error {
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfConnection, from)
	}
	src, ok := p.tools[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, from)
	}
	dst, ok := p.tools[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, to)
	}
	out, ok := findPort(src.OutputPorts(), fromPort)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownPort, from, fromPort)
	}
	in, ok := findPort(dst.InputPorts(), toPort)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownPort, to, toPort)
	}
	if out.Kind != in.Kind {
		return fmt.Errorf("%w: %s (%s) -> %s (%s)", ErrIncompatiblePorts, fromPort, out.Kind, toPort, in.Kind)
	}
	for _, c := range p.conns {
		if c.ToTool == to && c.ToPort == toPort {
			return fmt.Errorf("%w: %s.%s fed by %s", ErrInputTaken, to, toPort, c.FromTool)
		}
	}
	p.conns = append(p.conns, Connection{FromTool: from, ToTool: to, FromPort: fromPort, ToPort: toPort})
	p.logger.Debug("connected",
		slog.String("from", from+"."+fromPort),
		slog.String("to", to+"."+toPort))
	return nil
}

// Disconnect removes every connection from one tool to another and
// reports whether anything was removed.
func (p *Procedure) Disconnect(from, to string) bool {
	n := len(p.conns)
	kept := p.conns[:0]
	for _, c := range p.conns {
		if c.FromTool == from && c.ToTool == to {
			continue
		}
		kept = append(kept, c)
	}
	p.conns = kept
	return len(p.conns) < n
}

// ConnectionsFrom returns the connections whose producer is the named
// tool.
func (p *Procedure) ConnectionsFrom(name string) []Connection {
	var out []Connection
	for _, c := range p.conns {
		if c.FromTool == name {
			out = append(out, c)
		}
	}
	return out
}

// ConnectionsTo returns the connections whose consumer is the named
// tool.
func (p *Procedure) ConnectionsTo(name string) []Connection {
	var out []Connection
	for _, c := range p.conns {
		if c.ToTool == name {
			out = append(out, c)
		}
	}
	return out
}

// ExecutionOrder computes the stable topological run order: source
// tools seed the order in insertion order, then any unvisited tool
// whose upstream producers have all been visited is appended, ties
// broken by insertion order. A graph where no progress can be made
// has a cycle and yields ErrCycleDetected.
func (p *Procedure) ExecutionOrder() ([]string, error) {
	visited := make(map[string]bool, len(p.tools))
	order := make([]string, 0, len(p.tools))

	for _, name := range p.order {
		if p.tools[name].spec.Source {
			visited[name] = true
			order = append(order, name)
		}
	}

	for len(order) < len(p.order) {
		progressed := false
		for _, name := range p.order {
			if visited[name] {
				continue
			}
			ready := true
			for _, c := range p.conns {
				if c.ToTool == name && !visited[c.FromTool] {
					ready = false
					break
				}
			}
			if ready {
				visited[name] = true
				order = append(order, name)
				progressed = true
			}
		}
		if !progressed {
			var stuck []string
			for _, name := range p.order {
				if !visited[name] {
					stuck = append(stuck, name)
				}
			}
			return nil, fmt.Errorf("%w: %v", ErrCycleDetected, stuck)
		}
	}
	return order, nil
}

// Run executes every enabled tool in execution order. Each tool's
// input is resolved from its upstream producer's last output before it
// runs; a failed tool is recorded and execution continues, so
// downstream tools still run with their best-available (possibly
// stale) input. The per-tool outcomes are returned keyed by instance
// name.
//
// Run fails outright only when the graph is cyclic or the procedure is
// already running.
func (p *Procedure) Run(ctx context.Context) (map[string]ToolRunResult, error) {
	return p.RunWithInput(ctx, nil)
}

// RunWithInput is Run with a procedure-level input artifact bound to
// every non-source tool that has no upstream producer.
func (p *Procedure) RunWithInput(ctx context.Context, input *Artifact) (map[string]ToolRunResult, error) {
	if !p.enabled {
		p.logger.Debug("procedure disabled, skipping")
		return map[string]ToolRunResult{}, nil
	}
	if p.running {
		p.logger.Warn("procedure already running")
		return nil, ErrProcedureRunning
	}
	p.running = true
	defer func() { p.running = false }()

	order, err := p.ExecutionOrder()
	if err != nil {
		return nil, err
	}

	runID := newRunID()
	start := time.Now()
	p.obs.emit(NewEvent(EventProcedureStarted, runID).
		WithProcedure(p.name).
		WithPayload("tools", len(order)))

	results := make(map[string]ToolRunResult, len(order))
	for _, name := range order {
		tool := p.tools[name]

		if input != nil && !tool.spec.Source && len(p.ConnectionsTo(name)) == 0 {
			tool.SetInput(input)
		}
		for _, c := range p.ConnectionsTo(name) {
			if up := p.tools[c.FromTool]; up != nil {
				if art := up.Output(); art != nil {
					tool.SetInput(art)
				}
			}
		}

		if !tool.Enabled() {
			p.obs.emit(NewEvent(EventToolSkipped, runID).
				WithProcedure(p.name).
				WithTool(name, tool.Category()))
		} else {
			p.obs.emit(NewEvent(EventToolStarted, runID).
				WithProcedure(p.name).
				WithTool(name, tool.Category()))
		}

		runErr := tool.Run(ctx)
		results[name] = ToolRunResult{
			Output: tool.Output(),
			Result: tool.Result(),
			Err:    runErr,
		}

		if runErr != nil {
			p.logger.Error("tool failed",
				slog.String("tool", name),
				slog.String("error", runErr.Error()))
			p.obs.emit(NewEvent(EventToolFailed, runID).
				WithProcedure(p.name).
				WithTool(name, tool.Category()).
				WithElapsed(tool.Elapsed()).
				WithPayload("error", runErr.Error()))
			continue
		}
		if tool.Enabled() {
			p.obs.emit(NewEvent(EventToolFinished, runID).
				WithProcedure(p.name).
				WithTool(name, tool.Category()).
				WithElapsed(tool.Elapsed()))
		}
	}

	p.elapsed = time.Since(start)
	p.obs.emit(NewEvent(EventProcedureFinished, runID).
		WithProcedure(p.name).
		WithElapsed(p.elapsed))
	return results, nil
}

// Reset resets every tool's run state without touching parameters or
// the graph.
func (p *Procedure) Reset() {
	for _, t := range p.tools {
		t.Reset()
	}
	p.elapsed = 0
}

// Clear resets and then removes every tool and connection.
func (p *Procedure) Clear() {
	p.Reset()
	p.tools = make(map[string]*Tool)
	p.order = nil
	p.conns = nil
}
