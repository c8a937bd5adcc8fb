// Package memory provides a thread-safe in-memory implementation of storage.Store.
package memory

import (
	"sync"

	"github.com/analuiza2102/bioaccess/storage"
)

// Store is a thread-safe in-memory implementation of storage.Store.
// Suitable for testing and single-run sessions with no durability.
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ storage.Store = (*Store)(nil)

// New creates a new empty in-memory Store.
func New() *Store {
	return &Store{data: make(map[string]map[string][]byte)}
}

func (s *Store) Get(bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[bucket]
	if !ok {
		return nil, storage.ErrNotFound
	}
	v, ok := b[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(bucket, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[bucket]
	if !ok {
		b = make(map[string][]byte)
		s.data[bucket] = b
	}
	b[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.data[bucket]; ok {
		delete(b, key)
	}
	return nil
}

func (s *Store) List(bucket string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.data[bucket]
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	return keys, nil
}
