package faults

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Strategy names a remediation behavior.
type Strategy string

const (
	StrategyRetry    Strategy = "retry"
	StrategyFallback Strategy = "fallback"
	StrategyRestart  Strategy = "restart"
	StrategyIgnore   Strategy = "ignore"
	StrategyAlert    Strategy = "alert"
)

// Outcome is the terminal state of one recovery attempt.
type Outcome string

const (
	OutcomePending    Outcome = "pending"
	OutcomeInProgress Outcome = "in_progress"
	OutcomeSuccess    Outcome = "success"
	OutcomeFailed     Outcome = "failed"
	OutcomeTimeout    Outcome = "timeout"
)

// Action is the remediation callback. It returns true when the
// remediation took effect.
type Action func(ctx context.Context, rec Record) bool

// Policy binds a strategy and its bounds to an error kind.
type Policy struct {
	Strategy    Strategy
	Action      Action
	MaxAttempts int
	Delay       time.Duration
	Timeout     time.Duration
	Description string
}

// Record captures one classified failure submitted for recovery.
type Record struct {
	Kind      Kind
	Code      int
	Message   string
	Component string
	Time      time.Time
	Details   map[string]any
}

// HistoryEntry is one (record, outcome) pair kept in the manager's
// bounded history.
type HistoryEntry struct {
	Record  Record
	Outcome Outcome
	At      time.Time
}

// DefaultHistoryCap bounds the recovery history ring.
const DefaultHistoryCap = 1000

// DefaultPolicyKey is the map key for the fallback policy used when no
// kind-specific policy is registered.
const DefaultPolicyKey = "default"

// Manager maps error kinds to recovery policies and applies them.
// Recovery is best-effort and purely diagnostic: it never changes
// whether the originating run failed.
type Manager struct {
	logger     *slog.Logger
	historyCap int

	mu       sync.Mutex
	policies map[string]Policy
	history  []HistoryEntry
}

// NewManager creates a Manager with an empty policy table.
// A nil logger uses slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:     logger,
		historyCap: DefaultHistoryCap,
		policies:   make(map[string]Policy),
	}
}

// SetHistoryCap overrides the history bound. Values below 1 keep the
// default.
func (m *Manager) SetHistoryCap(n int) {
	if n < 1 {
		return
	}
	m.mu.Lock()
	m.historyCap = n
	m.mu.Unlock()
}

// RegisterPolicy binds a policy to an error kind. Registering under
// DefaultPolicyKey installs the fallback policy.
func (m *Manager) RegisterPolicy(kind string, p Policy) {
	m.mu.Lock()
	m.policies[kind] = p
	m.mu.Unlock()
	m.logger.Debug("recovery policy registered",
		slog.String("kind", kind),
		slog.String("strategy", string(p.Strategy)))
}

// Policy returns the policy registered for a kind.
func (m *Manager) Policy(kind string) (Policy, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.policies[kind]
	return p, ok
}

// Recover applies the policy registered for the record's kind, falling
// back to the default policy, and appends the outcome to the bounded
// history. With no matching policy at all the outcome is Failed.
func (m *Manager) Recover(ctx context.Context, rec Record) Outcome {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	policy, ok := m.Policy(string(rec.Kind))
	if !ok {
		policy, ok = m.Policy(DefaultPolicyKey)
	}

	var outcome Outcome
	if !ok {
		m.logger.Warn("no recovery policy",
			slog.String("kind", string(rec.Kind)),
			slog.String("component", rec.Component))
		outcome = OutcomeFailed
	} else {
		outcome = m.execute(ctx, policy, rec)
	}

	m.record(rec, outcome)
	return outcome
}

func (m *Manager) execute(ctx context.Context, p Policy, rec Record) Outcome {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	m.logger.Info("recovering",
		slog.String("kind", string(rec.Kind)),
		slog.String("component", rec.Component),
		slog.String("strategy", string(p.Strategy)))

	switch p.Strategy {
	case StrategyIgnore:
		// Never invokes the action.
		return OutcomeSuccess

	case StrategyRetry:
		attempts := p.MaxAttempts
		if attempts < 1 {
			attempts = 1
		}
		for attempt := 1; attempt <= attempts; attempt++ {
			if p.Action != nil && p.Action(ctx, rec) {
				return OutcomeSuccess
			}
			if attempt == attempts {
				break
			}
			select {
			case <-ctx.Done():
				return OutcomeTimeout
			case <-time.After(p.Delay):
			}
		}
		return OutcomeFailed

	case StrategyFallback, StrategyRestart, StrategyAlert:
		if p.Action != nil && p.Action(ctx, rec) {
			return OutcomeSuccess
		}
		return OutcomeFailed

	default:
		m.logger.Warn("unknown recovery strategy", slog.String("strategy", string(p.Strategy)))
		return OutcomeFailed
	}
}

func (m *Manager) record(rec Record, outcome Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, HistoryEntry{Record: rec, Outcome: outcome, At: time.Now()})
	if over := len(m.history) - m.historyCap; over > 0 {
		// FIFO eviction: drop the oldest entries.
		m.history = append(m.history[:0:0], m.history[over:]...)
	}
}

// History returns up to limit most recent entries, oldest first.
// limit <= 0 returns the full retained history.
func (m *Manager) History(limit int) []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]HistoryEntry, n)
	copy(out, m.history[len(m.history)-n:])
	return out
}

// ClearHistory drops all retained history entries.
func (m *Manager) ClearHistory() {
	m.mu.Lock()
	m.history = nil
	m.mu.Unlock()
}
