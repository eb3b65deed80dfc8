package history

import (
	"context"
	"time"
)

// Store persists and retrieves execution events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error

	// GetByRunID retrieves all events for a specific run in append order.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events within a time range in append order.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// Record appends an already-built event, preserving its type and payload.
func Record(ctx context.Context, store Store, event Event) error {
	return store.Append(ctx, event.RunID(), event.Type(), event.Payload(), event.Metadata())
}
