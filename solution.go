package inspectflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SolutionState is the run state of a Solution.
type SolutionState string

const (
	StateIdle        SolutionState = "idle"
	StateRunningOnce SolutionState = "running_once"
	StateContinuous  SolutionState = "continuous"
	StateStopping    SolutionState = "stopping"
)

// Solution errors.
var (
	ErrSolutionRunning = errors.New("solution is already running")
	ErrNoProcedure     = errors.New("solution has no procedure by that name")
)

// DefaultRunInterval is the continuous-run period when none is given.
const DefaultRunInterval = 100 * time.Millisecond

// SolutionResults maps procedure name to that procedure's per-tool
// outcomes for one run.
type SolutionResults map[string]map[string]ToolRunResult

// Solution owns an ordered list of procedures and three execution
// modes: a single pass over every procedure, a cooperative periodic
// loop, and a single named procedure step.
//
// The run-state flag has a single writer at a time; RunOnce,
// RunContinuous, and Stop all contend on one mutex.
type Solution struct {
	name  string
	procs []*Procedure

	mu       sync.Mutex
	state    SolutionState
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}

	input *Artifact

	obs    observers
	logger *slog.Logger
}

// NewSolution creates an empty solution.
func NewSolution(name string) *Solution {
	return &Solution{
		name:     name,
		state:    StateIdle,
		interval: DefaultRunInterval,
		logger:   slog.Default().With(slog.String("solution", name)),
	}
}

// Name returns the solution name.
func (s *Solution) Name() string { return s.name }

// SetName renames the solution.
func (s *Solution) SetName(name string) { s.name = name }

// State returns the current run state.
func (s *Solution) State() SolutionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether any execution mode is active.
func (s *Solution) Running() bool {
	st := s.State()
	return st == StateRunningOnce || st == StateContinuous || st == StateStopping
}

// RunInterval returns the continuous-run period.
func (s *Solution) RunInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetRunInterval sets the continuous-run period. Non-positive values
// keep the default.
func (s *Solution) SetRunInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}

// SetInput binds a solution-level input artifact, injected into
// non-source tools with no upstream producer on every run.
func (s *Solution) SetInput(a *Artifact) {
	s.mu.Lock()
	s.input = a
	s.mu.Unlock()
}

func (s *Solution) currentInput() *Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Subscribe registers an observer invoked synchronously for solution
// run events and for the procedure and tool events of every member
// procedure.
func (s *Solution) Subscribe(h EventHandler) { s.obs.subscribe(h) }

// AddProcedure appends a procedure to the run order. Names are
// unique. The procedure's events are relayed to the solution's
// observers, tagged with the solution name.
func (s *Solution) AddProcedure(p *Procedure) error {
	if p == nil {
		return errors.New("cannot add nil procedure")
	}
	for _, existing := range s.procs {
		if existing.Name() == p.Name() {
			return fmt.Errorf("duplicate procedure name: %s", p.Name())
		}
	}
	s.procs = append(s.procs, p)
	p.Subscribe(func(e Event) {
		if !s.member(p) {
			return
		}
		if e.Solution == "" {
			e = e.WithSolution(s.name)
		}
		s.obs.emit(e)
	})
	return nil
}

// member reports whether p is still part of the run order. Relays for
// removed procedures stay subscribed but go quiet.
func (s *Solution) member(p *Procedure) bool {
	for _, existing := range s.procs {
		if existing == p {
			return true
		}
	}
	return false
}

// RemoveProcedure removes a procedure by name.
func (s *Solution) RemoveProcedure(name string) bool {
	for i, p := range s.procs {
		if p.Name() == name {
			s.procs = append(s.procs[:i], s.procs[i+1:]...)
			return true
		}
	}
	return false
}

// Procedure returns a procedure by name.
func (s *Solution) Procedure(name string) (*Procedure, bool) {
	for _, p := range s.procs {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Procedures returns the procedures in run order.
func (s *Solution) Procedures() []*Procedure {
	return append([]*Procedure(nil), s.procs...)
}

// RunOnce executes every procedure once, in list order, and returns
// all per-tool bundles. It fails when another mode is active.
func (s *Solution) RunOnce(ctx context.Context) (SolutionResults, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: state %s", ErrSolutionRunning, s.state)
	}
	s.state = StateRunningOnce
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
	}()

	return s.runAll(ctx), nil
}

// runAll is the shared single-pass body; callers own the state flag.
func (s *Solution) runAll(ctx context.Context) SolutionResults {
	runID := newRunID()
	start := time.Now()
	s.obs.emit(NewEvent(EventRunStarted, runID).
		WithSolution(s.name).
		WithPayload("procedures", len(s.procs)))

	results := make(SolutionResults, len(s.procs))
	for _, p := range s.procs {
		res, err := p.RunWithInput(ctx, s.currentInput())
		if err != nil {
			s.logger.Error("procedure run failed",
				slog.String("procedure", p.Name()),
				slog.String("error", err.Error()))
			results[p.Name()] = map[string]ToolRunResult{}
			continue
		}
		results[p.Name()] = res
	}

	s.obs.emit(NewEvent(EventRunFinished, runID).
		WithSolution(s.name).
		WithElapsed(time.Since(start)))
	return results
}

// RunContinuous starts the cooperative periodic loop: runAll every
// interval, with at most one tick in flight. An overrunning tick
// causes the next tick to be skipped, never queued. The loop ends when
// Stop is called or ctx is canceled.
func (s *Solution) RunContinuous(ctx context.Context, interval time.Duration) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrSolutionRunning, s.state)
	}
	if interval > 0 {
		s.interval = interval
	}
	interval = s.interval
	s.state = StateContinuous
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	s.logger.Info("continuous run started", slog.Duration("interval", interval))

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.state = StateIdle
			s.mu.Unlock()
			s.obs.emit(NewEvent(EventRunStopped, newRunID()).WithSolution(s.name))
			s.logger.Info("continuous run stopped")
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runAll(ctx)
				// Drop a tick that fired while the pass was in
				// flight; the loop never queues a backlog.
				select {
				case <-ticker.C:
					s.obs.emit(NewEvent(EventTickSkipped, "").WithSolution(s.name))
				default:
				}
			}
		}
	}()

	return nil
}

// Stop signals the continuous loop to end after the in-flight tick
// completes and waits for it. Stop is idempotent and a no-op when
// nothing is running.
func (s *Solution) Stop() {
	s.mu.Lock()
	if s.state != StateContinuous {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	stop, done := s.stop, s.done
	s.stop = nil
	s.mu.Unlock()

	close(stop)
	<-done
}

// StepRun executes a single named procedure once and returns its
// bundles. An empty name runs the first procedure.
func (s *Solution) StepRun(ctx context.Context, procedureName string) (map[string]ToolRunResult, error) {
	var target *Procedure
	if procedureName == "" {
		if len(s.procs) == 0 {
			return nil, fmt.Errorf("%w: (empty)", ErrNoProcedure)
		}
		target = s.procs[0]
	} else {
		p, ok := s.Procedure(procedureName)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoProcedure, procedureName)
		}
		target = p
	}
	return target.RunWithInput(ctx, s.currentInput())
}

// Reset resets every procedure's run state.
func (s *Solution) Reset() {
	for _, p := range s.procs {
		p.Reset()
	}
}

// newRunID creates a unique run identifier.
func newRunID() string {
	return uuid.NewString()
}
