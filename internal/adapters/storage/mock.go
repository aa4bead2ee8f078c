package storage

import (
	"context"
	"strings"
	"sync"
)

// MockFileStorage is an in-memory implementation of FileStorage for testing
type MockFileStorage struct {
	mu    sync.RWMutex
	files map[string][]byte

	// FailStore makes Store fail for keys with this prefix
	FailStore     string
	storeCalls    int
	retrieveCalls int
}

// NewMockFileStorage creates a new MockFileStorage instance
func NewMockFileStorage() *MockFileStorage {
	return &MockFileStorage{
		files: make(map[string][]byte),
	}
}

// Store implements FileStorage.Store
func (m *MockFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if key == "" {
		return NewStorageError("Store", key, ErrInvalidKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeCalls++

	if m.FailStore != "" && strings.HasPrefix(key, m.FailStore) {
		return NewStorageError("Store", key, ErrStorageUnavailable)
	}

	m.files[key] = append([]byte(nil), data...)
	return nil
}

// Retrieve implements FileStorage.Retrieve
func (m *MockFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, NewStorageError("Retrieve", key, ErrInvalidKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrieveCalls++

	data, exists := m.files[key]
	if !exists {
		return nil, NewStorageError("Retrieve", key, ErrFileNotFound)
	}

	// Return a copy of the data
	return append([]byte(nil), data...), nil
}

// Close implements FileStorage.Close. Stored objects survive so the mock can
// stand in for a bucket shared by several invocations.
func (m *MockFileStorage) Close() error {
	return nil
}

// Additional methods for testing

// FileCount returns the number of stored files
func (m *MockFileStorage) FileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// HasFile checks if a file exists (without error handling)
func (m *MockFileStorage) HasFile(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.files[key]
	return exists
}

// StoreCalls returns how many Store calls were made
func (m *MockFileStorage) StoreCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.storeCalls
}

// RetrieveCalls returns how many Retrieve calls were made
func (m *MockFileStorage) RetrieveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.retrieveCalls
}
