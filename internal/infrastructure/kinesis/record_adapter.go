// Package kinesis decodes DynamoDB event-store inserts delivered through a
// Kinesis data stream into store events.
package kinesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/phone-store/internal/infrastructure/store"
)

const insertEvent = "INSERT"

// DecodeRecord returns nil, nil for stream records that are not inserts.
func DecodeRecord(record events.KinesisEventRecord) (*store.Event, error) {
	var change events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &change); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}
	if change.EventName != insertEvent {
		return nil, nil
	}
	return eventFromImage(change.Change.NewImage)
}

// DecodeBatch decodes every record of a Kinesis batch. Records that fail are
// skipped and reported together in the joined error.
func DecodeBatch(batch events.KinesisEvent) ([]store.Event, error) {
	var (
		out  []store.Event
		errs []error
	)
	for _, record := range batch.Records {
		event, err := DecodeRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", record.EventID, err))
			continue
		}
		if event != nil {
			out = append(out, *event)
		}
	}
	return out, errors.Join(errs...)
}

func eventFromImage(image map[string]events.DynamoDBAttributeValue) (*store.Event, error) {
	if image == nil {
		return nil, errors.New("DynamoDB image is nil")
	}

	str := func(name string) string {
		if v, ok := image[name]; ok && v.DataType() == events.DataTypeString {
			return v.String()
		}
		return ""
	}

	event := &store.Event{
		ID:            str("id"),
		AggregateID:   str("aggregate_id"),
		AggregateType: str("aggregate_type"),
		EventType:     str("event_type"),
		Data:          json.RawMessage(str("data")),
	}
	if event.ID == "" || event.AggregateID == "" || event.EventType == "" {
		return nil, fmt.Errorf("missing required fields: id=%q, aggregate_id=%q, event_type=%q",
			event.ID, event.AggregateID, event.EventType)
	}

	if raw := str("created_at"); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		event.Timestamp = ts
	}
	if v, ok := image["version"]; ok {
		version, err := v.Integer()
		if err != nil {
			return nil, fmt.Errorf("failed to parse version: %w", err)
		}
		event.Version = int(version)
	}

	return event, nil
}
