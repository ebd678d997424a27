// Package store persists engine events for later inspection: an
// in-memory store for tests and short-lived runs, and a SQLite store
// with retention pruning for production lines.
package store

import (
	"context"

	"github.com/inspect-labs/inspectflow"
)

// EventStore persists events for replay and audit.
type EventStore interface {
	// Append stores an event.
	Append(ctx context.Context, event inspectflow.Event) error

	// List returns a run's events in append order.
	// limit: max events to return (0 means no limit)
	List(ctx context.Context, runID string, limit int) ([]inspectflow.Event, error)

	// RunIDs returns the distinct run IDs present in the store.
	RunIDs(ctx context.Context) ([]string, error)
}
