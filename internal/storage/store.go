// Package storage provides the key-value store the ledger persists through.
// Values are opaque strings; the ledger decides what goes in them.
package storage

import "sync"

// Store is a minimal key-value adapter. Read reports absence via the bool
// rather than an error so a fresh store is not an error condition.
type Store interface {
	Read(key string) (value string, ok bool, err error)
	Write(key, value string) error
}

// MemStore is a map-backed Store for tests and throwaway sessions.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

func (s *MemStore) Read(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemStore) Write(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}
