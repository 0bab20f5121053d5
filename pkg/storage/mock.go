package storage

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MockStorage is an in-memory Storage. It backs the "memory" storage
// backend and tests.
type MockStorage struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]*Record
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		records: make(map[uuid.UUID]*Record),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail every save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveWorld(ctx context.Context, id uuid.UUID, rec *Record) error {
	if rec == nil {
		return errors.New("record cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	stored := *rec
	stored.World = slices.Clone(rec.World)
	m.records[id] = &stored
	return nil
}

func (m *MockStorage) LoadWorld(ctx context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, exists := m.records[id]
	if !exists {
		return nil, nil // Return nil for not found
	}
	out := *rec
	out.World = slices.Clone(rec.World)
	return &out, nil
}

func (m *MockStorage) DeleteWorld(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// Len returns the number of stored records.
func (m *MockStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
