package receipt

import (
	"context"
	"sync"
)

// MemStore keeps points for the lifetime of the process only.
type MemStore struct {
	mu sync.RWMutex
	m  map[string]int
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]int{}}
}

func NewStore() Store {
	return NewMemStore()
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Put(ctx context.Context, id string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = points
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[id]
	return p, ok, nil
}

func (s *MemStore) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m), nil
}
