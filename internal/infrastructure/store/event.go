package store

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/phone-store/internal/apperr"
)

// ErrVersionConflict is returned by Append when the aggregate moved past the
// version the caller loaded.
var ErrVersionConflict = apperr.New(apperr.KindConflict, "VERSION_CONFLICT", "the record was changed by someone else, please reload")

// Event is a persisted domain event. It is also the message published on the bus.
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Publisher pushes stored events to the message bus (Kafka or RabbitMQ).
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// publishStored hands a committed event to the publisher. The event is
// already durable, so a bus failure is logged and never fails the write.
// Consumers catch up through projector -replay.
func publishStored(ctx context.Context, publisher Publisher, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event.AggregateID, event); err != nil {
		log.Printf("[EventStore] Failed to publish %s v%d of %s: %v", event.EventType, event.Version, event.AggregateID, err)
	}
}

// Fanout hands each stored event to in-process consumers, in order. It is
// used instead of a bus when EVENT_BUS is inprocess. The event is already stored,
// so a failing consumer is logged and does not fail the append.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, key string, event any) error {
	for _, p := range f {
		if err := p.Publish(ctx, key, event); err != nil {
			log.Printf("[EventStore] In-process consumer failed for %s: %v", key, err)
		}
	}
	return nil
}
