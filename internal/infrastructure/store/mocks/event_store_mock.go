package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/google/uuid"
)

// MockEventStore is a mock implementation of EventStoreInterface for testing
type MockEventStore struct {
	mu        sync.RWMutex
	events    map[string][]store.Event
	snapshots map[string]*store.Snapshot

	AppendCalls []AppendCall
	AppendErr   error
	// FailEventTypes makes Append fail only for the listed event types.
	FailEventTypes map[string]error
	AppendCallback func(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*store.Event, error)
	GetEventsErr   error

	SaveSnapshotCalls int
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID     string
	AggregateType   string
	EventType       string
	ExpectedVersion int
	Data            any
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		events:         make(map[string][]store.Event),
		snapshots:      make(map[string]*store.Snapshot),
		AppendCalls:    make([]AppendCall, 0),
		FailEventTypes: make(map[string]error),
	}
}

func (m *MockEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:     aggregateID,
		AggregateType:   aggregateType,
		EventType:       eventType,
		ExpectedVersion: expectedVersion,
		Data:            data,
	})

	if m.AppendCallback != nil {
		return m.AppendCallback(ctx, aggregateID, aggregateType, eventType, expectedVersion, data)
	}
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}
	if err := m.FailEventTypes[eventType]; err != nil {
		return nil, err
	}

	current := 0
	if existing := m.events[aggregateID]; len(existing) > 0 {
		current = existing[len(existing)-1].Version
	}
	if current != expectedVersion {
		return nil, store.ErrVersionConflict
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	event := store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       expectedVersion + 1,
	}
	m.events[aggregateID] = append(m.events[aggregateID], event)

	return &event, nil
}

func (m *MockEventStore) GetEvents(_ context.Context, aggregateID string) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetEventsErr != nil {
		return nil, m.GetEventsErr
	}
	return append([]store.Event(nil), m.events[aggregateID]...), nil
}

func (m *MockEventStore) GetEventsFromVersion(_ context.Context, aggregateID string, fromVersion int) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetEventsErr != nil {
		return nil, m.GetEventsErr
	}

	var out []store.Event
	for _, e := range m.events[aggregateID] {
		if e.Version > fromVersion {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEventStore) GetAllEvents(_ context.Context) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []store.Event
	for _, events := range m.events {
		all = append(all, events...)
	}
	return all, nil
}

func (m *MockEventStore) GetSnapshot(_ context.Context, aggregateID string) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[aggregateID], nil
}

func (m *MockEventStore) SaveSnapshot(_ context.Context, snapshot *store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveSnapshotCalls++
	m.snapshots[snapshot.AggregateID] = snapshot
	return nil
}

// SetEvents seeds events for an aggregate
func (m *MockEventStore) SetEvents(aggregateID string, events []store.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[aggregateID] = events
}

// EventTypes returns the event types recorded for an aggregate, in order
func (m *MockEventStore) EventTypes(aggregateID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var types []string
	for _, e := range m.events[aggregateID] {
		types = append(types, e.EventType)
	}
	return types
}

// CountCalls returns how many Append calls used eventType
func (m *MockEventStore) CountCalls(eventType string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.AppendCalls {
		if c.EventType == eventType {
			n++
		}
	}
	return n
}

// Reset clears all stored events and recorded calls
func (m *MockEventStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]store.Event)
	m.snapshots = make(map[string]*store.Snapshot)
	m.AppendCalls = make([]AppendCall, 0)
	m.AppendErr = nil
	m.FailEventTypes = make(map[string]error)
	m.AppendCallback = nil
	m.GetEventsErr = nil
}

// MockPublisher records published events
type MockPublisher struct {
	mu        sync.Mutex
	Published []store.Event
	Err       error
}

func (p *MockPublisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	if e, ok := event.(store.Event); ok {
		p.Published = append(p.Published, e)
	}
	return nil
}
