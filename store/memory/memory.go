/*
Package memory is a map-backed Store for tests and for faking the remote
side of the cloud mirror.
*/
package memory

import (
	"context"
	"sort"
	"sync"
)

// Store keeps every bucket in memory. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	buckets map[string][]byte
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{buckets: map[string][]byte{}}
}

func (s *Store) Get(_ context.Context, bucket string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.buckets[bucket]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *Store) Put(_ context.Context, bucket string, raw []byte) error {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucket] = cp
	return nil
}

func (s *Store) Delete(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, bucket)
	return nil
}

func (s *Store) Buckets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error { return nil }
