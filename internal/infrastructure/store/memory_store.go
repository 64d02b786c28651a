package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory DocumentStore. Documents are kept encoded so
// a Load never shares memory with the caller that saved them.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*Document),
	}
}

// Load decodes the document stored under key into dst
func (ms *MemoryStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	ms.mu.RLock()
	doc, ok := ms.docs[key]
	ms.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := doc.Decode(dst); err != nil {
		return false, err
	}
	return true, nil
}

// Save replaces the document stored under key
func (ms *MemoryStore) Save(ctx context.Context, key string, src any) error {
	doc, err := NewDocument(key, src)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.docs[key] = doc
	return nil
}

// Get returns the raw document stored under key
func (ms *MemoryStore) Get(key string) (*Document, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	doc, ok := ms.docs[key]
	return doc, ok
}
