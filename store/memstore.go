package store

import (
	"context"
	"sort"
	"sync"

	"github.com/inspect-labs/inspectflow"
)

// MemEventStore is a thread-safe in-memory event store with an
// optional per-run cap; past the cap the oldest events are dropped.
type MemEventStore struct {
	mu     sync.RWMutex
	cap    int
	events map[string][]inspectflow.Event // runID -> events
}

// NewMemEventStore creates an in-memory event store. perRunCap <= 0
// means unbounded.
func NewMemEventStore(perRunCap int) *MemEventStore {
	return &MemEventStore{
		cap:    perRunCap,
		events: make(map[string][]inspectflow.Event),
	}
}

func (s *MemEventStore) Append(_ context.Context, event inspectflow.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.events[event.RunID], event)
	if s.cap > 0 && len(list) > s.cap {
		list = append(list[:0:0], list[len(list)-s.cap:]...)
	}
	s.events[event.RunID] = list
	return nil
}

func (s *MemEventStore) List(_ context.Context, runID string, limit int) ([]inspectflow.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.events[runID]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return append([]inspectflow.Event(nil), all...), nil
}

func (s *MemEventStore) RunIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Compile-time interface check.
var _ EventStore = (*MemEventStore)(nil)
