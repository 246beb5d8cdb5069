package store

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store with an optional byte quota, mirroring
// the limits of browser local storage.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int
	used  int
}

// NewMemoryStore creates a store holding at most quotaBytes of keys and
// values. A quota of 0 or less is unlimited.
func NewMemoryStore(quotaBytes int) *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]string),
		quota: max(quotaBytes, 0),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used + len(key) + len(value)
	if old, ok := s.data[key]; ok {
		used -= len(key) + len(old)
	}
	if s.quota > 0 && used > s.quota {
		return ErrQuotaExceeded
	}

	s.data[key] = value
	s.used = used
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.data[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.data, key)
	}
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Used returns the bytes currently counted against the quota.
func (s *MemoryStore) Used() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

var _ Store = (*MemoryStore)(nil)
