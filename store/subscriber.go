package store

import (
	"context"
	"log/slog"

	"github.com/inspect-labs/inspectflow"
)

// Subscriber writes engine events to an EventStore. Its Handle method
// is an inspectflow.EventHandler, subscribed directly on a Solution or
// Procedure.
type Subscriber struct {
	store  EventStore
	logger *slog.Logger
}

// NewSubscriber creates a Subscriber. A nil logger uses slog.Default().
func NewSubscriber(store EventStore, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		store:  store,
		logger: logger,
	}
}

// Handle persists a single event to the store.
func (s *Subscriber) Handle(event inspectflow.Event) {
	if err := s.store.Append(context.Background(), event); err != nil {
		s.logger.Error("failed to persist event",
			"run_id", event.RunID,
			"kind", event.Kind,
			"error", err,
		)
	}
}
