package store

import (
	"strings"
	"sync"

	"github.com/example/phone-store/internal/readmodel"
)

// ReadStore is an in-memory read model store
type ReadStore struct {
	mu   sync.RWMutex
	data map[string]map[string]any // collection -> id -> data
}

func NewReadStore() *ReadStore {
	return &ReadStore{
		data: make(map[string]map[string]any),
	}
}

func (rs *ReadStore) Set(collection, id string, data any) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.data[collection] == nil {
		rs.data[collection] = make(map[string]any)
	}
	rs.data[collection][id] = data
	return nil
}

func (rs *ReadStore) Get(collection, id string) (any, bool, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	data, ok := rs.data[collection][id]
	return data, ok, nil
}

func (rs *ReadStore) GetAll(collection string) ([]any, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	items := make([]any, 0, len(rs.data[collection]))
	for _, item := range rs.data[collection] {
		items = append(items, item)
	}
	return items, nil
}

func (rs *ReadStore) Delete(collection, id string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	delete(rs.data[collection], id)
	return nil
}

func (rs *ReadStore) Update(collection, id string, updateFn func(current any) any) (bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, ok := rs.data[collection][id]
	if !ok {
		return false, nil
	}
	rs.data[collection][id] = updateFn(current)
	return true, nil
}

// GetUserByEmail scans the users collection
func (rs *ReadStore) GetUserByEmail(email string) (*readmodel.UserReadModel, bool, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	for _, item := range rs.data[readmodel.CollectionUsers] {
		if u, ok := item.(*readmodel.UserReadModel); ok && strings.EqualFold(u.Email, email) {
			return u, true, nil
		}
	}
	return nil, false, nil
}
