package store

import "context"

// EventStoreInterface is implemented by the in-memory, PostgreSQL and DynamoDB event stores.
//
// Append writes version expectedVersion+1. expectedVersion is the version the
// caller loaded the aggregate at (0 for a new aggregate). When another writer
// got there first, Append returns ErrVersionConflict and writes nothing.
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*Event, error)
	GetEvents(ctx context.Context, aggregateID string) ([]Event, error)
	GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error)
	GetAllEvents(ctx context.Context) ([]Event, error)

	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}
