package mocks

import (
	"strings"
	"sync"

	"github.com/example/phone-store/internal/readmodel"
)

// MockReadStore is a mock implementation of ReadStoreInterface for testing
type MockReadStore struct {
	mu   sync.RWMutex
	data map[string]map[string]any // collection -> id -> data

	SetCalls    []SetCall
	GetCalls    []GetCall
	DeleteCalls []DeleteCall
	UpdateCalls []UpdateCall

	// Err is returned by every operation when set.
	Err error
}

type SetCall struct {
	Collection string
	ID         string
	Data       any
}

type GetCall struct {
	Collection string
	ID         string
}

type DeleteCall struct {
	Collection string
	ID         string
}

type UpdateCall struct {
	Collection string
	ID         string
}

func NewMockReadStore() *MockReadStore {
	return &MockReadStore{
		data: make(map[string]map[string]any),
	}
}

func (m *MockReadStore) Set(collection, id string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, SetCall{Collection: collection, ID: id, Data: data})
	if m.Err != nil {
		return m.Err
	}
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]any)
	}
	m.data[collection][id] = data
	return nil
}

func (m *MockReadStore) Get(collection, id string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, GetCall{Collection: collection, ID: id})
	if m.Err != nil {
		return nil, false, m.Err
	}
	data, ok := m.data[collection][id]
	return data, ok, nil
}

func (m *MockReadStore) GetAll(collection string) ([]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	items := make([]any, 0, len(m.data[collection]))
	for _, item := range m.data[collection] {
		items = append(items, item)
	}
	return items, nil
}

func (m *MockReadStore) Delete(collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, DeleteCall{Collection: collection, ID: id})
	if m.Err != nil {
		return m.Err
	}
	delete(m.data[collection], id)
	return nil
}

func (m *MockReadStore) Update(collection, id string, updateFn func(current any) any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{Collection: collection, ID: id})
	if m.Err != nil {
		return false, m.Err
	}
	current, ok := m.data[collection][id]
	if !ok {
		return false, nil
	}
	m.data[collection][id] = updateFn(current)
	return true, nil
}

// SetData seeds a read model without recording a call
func (m *MockReadStore) SetData(collection, id string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data[collection] == nil {
		m.data[collection] = make(map[string]any)
	}
	m.data[collection][id] = data
}

// GetData reads a read model without recording a call
func (m *MockReadStore) GetData(collection, id string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[collection][id]
	return data, ok
}

func (m *MockReadStore) GetUserByEmail(email string) (*readmodel.UserReadModel, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, false, m.Err
	}
	for _, item := range m.data[readmodel.CollectionUsers] {
		if u, ok := item.(*readmodel.UserReadModel); ok && strings.EqualFold(u.Email, email) {
			return u, true, nil
		}
	}
	return nil, false, nil
}

func (m *MockReadStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]map[string]any)
	m.SetCalls = nil
	m.GetCalls = nil
	m.DeleteCalls = nil
	m.UpdateCalls = nil
	m.Err = nil
}
