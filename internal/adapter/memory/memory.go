// Package memory implements an in-memory record store for development and
// testing.
package memory

import (
	"context"
	"sync"

	"fertility/internal/domain"
)

// Store implements an in-memory key-value record store.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// Ensure the interface is met.
var _ domain.RecordStore = (*Store)(nil)

// GetItem returns the value stored under key, with ok=false when the key is
// absent.
func (s *Store) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	// copy; callers must not observe later writes
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *Store) SetItem(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.items[key] = v
	return nil
}

// RemoveItem deletes key. Removing an absent key is not an error.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
