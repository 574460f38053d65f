package store

import (
	"encoding/json"
	"time"
)

// SnapshotThreshold is the number of events between two snapshots of an aggregate.
const SnapshotThreshold = 10

// Snapshot is a point-in-time state of an aggregate
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"` // event version at snapshot time
	State         json.RawMessage `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}
