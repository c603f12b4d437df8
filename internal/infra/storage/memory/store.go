// Package memory implements an in-memory snapshot Store for tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"kincore/internal/storage/core"
)

// Store implements core.Store backed by process memory. Intended for tests
// and ephemeral sessions.
type Store struct {
	mu   sync.RWMutex
	objs map[string][]byte
}

// New returns an empty in-memory snapshot store.
func New() *Store { return &Store{objs: make(map[string][]byte)} }

// Driver returns the storage driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores payload under key, replacing any existing value.
func (s *Store) Put(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.objs[key] = cp
	return nil
}

// Get returns a copy of the payload stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objs[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}

// Delete removes key, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[key]; !ok {
		return false, nil
	}
	delete(s.objs, key)
	return true, nil
}

// List returns all keys with the given prefix in lexicographic order.
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.objs {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
