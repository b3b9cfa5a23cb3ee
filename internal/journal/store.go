package journal

import "context"

// Store defines the interface for persisting and retrieving run events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error

	// ByRun retrieves all events of one run in append order.
	ByRun(ctx context.Context, runID string) ([]Event, error)

	// Runs summarizes every recorded run, newest first.
	Runs(ctx context.Context) ([]RunSummary, error)

	// Close releases the underlying database.
	Close() error
}
