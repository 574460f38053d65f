package kinesis

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderImage(id string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":             events.NewStringAttribute(id),
		"aggregate_id":   events.NewStringAttribute("order-1"),
		"aggregate_type": events.NewStringAttribute("Order"),
		"event_type":     events.NewStringAttribute("OrderCreated"),
		"data":           events.NewStringAttribute(`{"order_code":"ORD20240131001"}`),
		"created_at":     events.NewStringAttribute("2024-01-31T10:30:00.123456789Z"),
		"version":        events.NewNumberAttribute("1"),
	}
}

func kinesisRecord(t *testing.T, eventID, name string, image map[string]events.DynamoDBAttributeValue) events.KinesisEventRecord {
	t.Helper()
	data, err := json.Marshal(events.DynamoDBEventRecord{
		EventName: name,
		Change:    events.DynamoDBStreamRecord{NewImage: image},
	})
	require.NoError(t, err)
	return events.KinesisEventRecord{EventID: eventID, Kinesis: events.KinesisRecord{Data: data}}
}

func TestEventFromImage(t *testing.T) {
	tests := []struct {
		name    string
		image   map[string]events.DynamoDBAttributeValue
		wantErr bool
	}{
		{name: "valid event", image: orderImage("event-1")},
		{name: "nil image", image: nil, wantErr: true},
		{
			name:    "missing required fields",
			image:   map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute("event-1")},
			wantErr: true,
		},
		{
			name: "bad timestamp",
			image: func() map[string]events.DynamoDBAttributeValue {
				img := orderImage("event-1")
				img["created_at"] = events.NewStringAttribute("yesterday")
				return img
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := eventFromImage(tt.image)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "order-1", event.AggregateID)
			assert.Equal(t, "OrderCreated", event.EventType)
			assert.Equal(t, 1, event.Version)
			assert.JSONEq(t, `{"order_code":"ORD20240131001"}`, string(event.Data))
			assert.Equal(t, 2024, event.Timestamp.Year())
		})
	}
}

func TestDecodeRecord_SkipsNonInserts(t *testing.T) {
	event, err := DecodeRecord(kinesisRecord(t, "1", "MODIFY", nil))

	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestDecodeBatch_MixedRecords(t *testing.T) {
	batch := events.KinesisEvent{Records: []events.KinesisEventRecord{
		kinesisRecord(t, "1", "INSERT", orderImage("event-1")),
		kinesisRecord(t, "2", "REMOVE", nil),
		{EventID: "3", Kinesis: events.KinesisRecord{Data: []byte("invalid json")}},
		kinesisRecord(t, "4", "INSERT", orderImage("event-4")),
	}}

	decoded, err := DecodeBatch(batch)

	require.Len(t, decoded, 2)
	assert.Equal(t, "event-1", decoded[0].ID)
	assert.Equal(t, "event-4", decoded[1].ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 3")
}
