package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/phone-store/internal/infrastructure/store"
)

// Aggregate defines the interface for event-sourced aggregates
type Aggregate interface {
	GetID() string
	GetVersion() int
	ApplyEvent(store.Event) error
}

// LoadAggregate loads an aggregate by replaying events, using snapshot if available.
// The bool reports whether the aggregate has any history.
func LoadAggregate[T Aggregate](
	ctx context.Context,
	eventStore store.EventStoreInterface,
	id string,
	newAggregate func() T,
) (T, bool, error) {
	var zero T
	agg := newAggregate()

	snapshot, err := eventStore.GetSnapshot(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var events []store.Event
	if snapshot != nil {
		if err := json.Unmarshal(snapshot.State, agg); err != nil {
			return zero, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		events, err = eventStore.GetEventsFromVersion(ctx, id, snapshot.Version)
	} else {
		events, err = eventStore.GetEvents(ctx, id)
	}
	if err != nil {
		return zero, false, fmt.Errorf("failed to load events of %s: %w", id, err)
	}

	for _, event := range events {
		if err := agg.ApplyEvent(event); err != nil {
			return zero, false, fmt.Errorf("failed to apply event: %w", err)
		}
	}

	return agg, snapshot != nil || len(events) > 0, nil
}

// Record appends an event for agg at the version agg was loaded at, applies
// the stored event to it and snapshots when the threshold is reached. A failed
// snapshot is only logged. When another writer moved the aggregate first, the
// error is store.ErrVersionConflict and agg is unchanged.
func Record(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
	aggregateType, eventType string,
	data any,
) (*store.Event, error) {
	stored, err := eventStore.Append(ctx, agg.GetID(), aggregateType, eventType, agg.GetVersion(), data)
	if err != nil {
		return nil, err
	}
	if err := agg.ApplyEvent(*stored); err != nil {
		return nil, fmt.Errorf("failed to apply event: %w", err)
	}
	if err := MaybeCreateSnapshot(ctx, eventStore, agg, aggregateType); err != nil {
		log.Printf("[%s] Failed to create snapshot for %s: %v", aggregateType, agg.GetID(), err)
	}
	return stored, nil
}

// MaxAttempts bounds how often RetryOnConflict runs its function.
const MaxAttempts = 3

// RetryOnConflict runs attempt again while it fails with
// store.ErrVersionConflict. attempt must reload the aggregate and repeat its
// checks every time, so a retry decides on the state that won the race.
func RetryOnConflict(attempt func() error) error {
	var err error
	for i := 0; i < MaxAttempts; i++ {
		if err = attempt(); !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
	}
	return err
}

// MaybeCreateSnapshot creates a snapshot if the threshold is exceeded
func MaybeCreateSnapshot(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
	aggregateType string,
) error {
	version := agg.GetVersion()
	if version == 0 || version%store.SnapshotThreshold != 0 {
		return nil
	}

	state, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate state: %w", err)
	}

	snapshot := &store.Snapshot{
		AggregateID:   agg.GetID(),
		AggregateType: aggregateType,
		Version:       version,
		State:         state,
		CreatedAt:     time.Now(),
	}
	if err := eventStore.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
