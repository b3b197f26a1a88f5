package storage

import (
	"context"
	"sync"
)

// MemoryStorage lives only as long as the process. Used by tests and one-shot runs.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns an empty in-process store.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.values, key)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Close() error { return nil }
