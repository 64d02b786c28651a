package mocks

import (
	"context"
	"encoding/json"
	"sync"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// For tracking calls in tests
	LoadCalls    []string
	SaveCalls    []SaveCall
	LoadErr      error
	SaveErr      error
	SaveCallback func(ctx context.Context, key string, src any) error
}

// SaveCall records parameters passed to Save
type SaveCall struct {
	Key  string
	Data []byte
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		docs:      make(map[string][]byte),
		LoadCalls: make([]string, 0),
		SaveCalls: make([]SaveCall, 0),
	}
}

// Load decodes the stored document into dst
func (m *MockDocumentStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	m.LoadCalls = append(m.LoadCalls, key)
	data, ok := m.docs[key]
	loadErr := m.LoadErr
	m.mu.Unlock()

	if loadErr != nil {
		return false, loadErr
	}
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

// Save encodes src and keeps it under key
func (m *MockDocumentStore) Save(ctx context.Context, key string, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Record the call
	m.SaveCalls = append(m.SaveCalls, SaveCall{Key: key, Data: data})

	// Use callback if provided
	if m.SaveCallback != nil {
		if err := m.SaveCallback(ctx, key, src); err != nil {
			return err
		}
	}

	// Return error if set
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.docs[key] = data
	return nil
}

// SetDocument stores a document directly for testing
func (m *MockDocumentStore) SetDocument(key string, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = data
	return nil
}

// Document returns the raw JSON stored under key
func (m *MockDocumentStore) Document(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[key]
	return data, ok
}

// Reset clears all documents and recorded calls
func (m *MockDocumentStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string][]byte)
	m.LoadCalls = make([]string, 0)
	m.SaveCalls = make([]SaveCall, 0)
	m.LoadErr = nil
	m.SaveErr = nil
	m.SaveCallback = nil
}
