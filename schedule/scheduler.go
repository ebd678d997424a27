package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inspect-labs/inspectflow"
)

const defaultPollInterval = 5 * time.Second

// RunStatus is the terminal state of an entry's last fire.
type RunStatus string

const (
	StatusRunning        RunStatus = "running"
	StatusCompleted      RunStatus = "completed"
	StatusFailed         RunStatus = "failed"
	StatusSkippedOverlap RunStatus = "skipped_overlap"
)

// Entry binds a cron expression to a solution.
type Entry struct {
	ID       string
	Cron     string
	Solution *inspectflow.Solution
	Enabled  bool

	NextRunAt  time.Time
	LastRunAt  time.Time
	LastStatus RunStatus
	LastError  string
}

// SchedulerConfig configures the polling scheduler.
type SchedulerConfig struct {
	PollInterval time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// Scheduler polls its entry table and fires RunOnce on every due
// solution. A fire runs on its own goroutine; an entry whose prior
// fire is still active is skipped, never queued.
type Scheduler struct {
	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
	active  map[string]struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with an empty entry table.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		pollInterval: cfg.PollInterval,
		now:          cfg.Now,
		logger:       cfg.Logger,
		entries:      make(map[string]*Entry),
		active:       make(map[string]struct{}),
	}
}

// Add registers an entry, validating its cron expression and seeding
// NextRunAt. A duplicate ID is an error.
func (s *Scheduler) Add(id, expr string, sol *inspectflow.Solution) error {
	if sol == nil {
		return errors.New("schedule: solution is nil")
	}
	next, err := NextRunUTC(expr, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("schedule: duplicate entry %q", id)
	}
	s.entries[id] = &Entry{
		ID:        id,
		Cron:      expr,
		Solution:  sol,
		Enabled:   true,
		NextRunAt: next,
	}
	return nil
}

// Remove drops an entry and reports whether it was present.
func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// SetEnabled toggles an entry.
func (s *Scheduler) SetEnabled(id string, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	e.Enabled = enabled
	return true
}

// Entry returns a snapshot of one entry.
func (s *Scheduler) Entry(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Start begins background polling. A second Start is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.Poll(ctx)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Poll(ctx)
			}
		}
	}()
}

// Stop ends polling and waits for in-flight fires to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.wg.Wait()
}

// Poll executes a single scheduler pass, firing every due entry.
func (s *Scheduler) Poll(ctx context.Context) {
	now := s.now().UTC()

	s.mu.Lock()
	var due []*Entry
	for _, e := range s.entries {
		if e.Enabled && !e.NextRunAt.After(now) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		s.fire(ctx, e.ID, now)
	}
}

func (s *Scheduler) fire(ctx context.Context, id string, now time.Time) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return
	}

	next, err := NextRunUTC(e.Cron, now)
	if err != nil {
		e.LastStatus = StatusFailed
		e.LastError = err.Error()
		s.mu.Unlock()
		return
	}
	e.NextRunAt = next

	if _, running := s.active[id]; running {
		e.LastStatus = StatusSkippedOverlap
		e.LastError = "skipped because prior scheduled run is still active"
		s.mu.Unlock()
		s.logger.Warn("schedule overlap, skipping", slog.String("entry", id))
		return
	}

	s.active[id] = struct{}{}
	e.LastStatus = StatusRunning
	e.LastError = ""
	sol := e.Solution
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, id)
			s.mu.Unlock()
		}()

		_, runErr := sol.RunOnce(ctx)
		finish := s.now().UTC()

		s.mu.Lock()
		defer s.mu.Unlock()
		latest, ok := s.entries[id]
		if !ok {
			return
		}
		latest.LastRunAt = finish
		if runErr != nil {
			latest.LastStatus = StatusFailed
			latest.LastError = runErr.Error()
			s.logger.Error("scheduled run failed",
				slog.String("entry", id),
				slog.String("error", runErr.Error()))
		} else {
			latest.LastStatus = StatusCompleted
			latest.LastError = ""
		}
	}()
}
