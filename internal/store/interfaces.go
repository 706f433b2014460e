package store

import (
	"context"

	"github.com/sparkfn/webhook-listener/internal/domain"
)

// EventStore defines the interface for durable event storage operations
type EventStore interface {
	// Append assigns the event's authoritative timestamp, durably writes it
	// to its namespace log, then mirrors it into the in-memory cache.
	// Timestamps never decrease in stored order. The cache is never mutated
	// if the durable write fails.
	Append(ctx context.Context, event *domain.EventRecord) error

	// List returns the namespace's events in arrival order. A namespace with
	// no events yields an empty slice, not an error.
	List(ns string) ([]*domain.EventRecord, error)

	// Clear empties both the in-memory cache and the durable log for the
	// namespace.
	Clear(ns string) error

	// Close releases the open log files.
	Close() error
}
