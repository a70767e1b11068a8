package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and cache-disabled runs
type MemoryStore struct {
	entries map[string][]byte
	mutex   sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Read returns the entry's bytes if present
func (s *MemoryStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Write stores a copy of the entry
func (s *MemoryStore) Write(ctx context.Context, key string, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.entries[key] = stored
	return nil
}

// Delete removes a single entry
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.entries, key)
	return nil
}

// Clear removes all entries
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[string][]byte)
	return nil
}

// Len returns the number of stored entries
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}
