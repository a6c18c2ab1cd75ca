package aicache

import (
	"context"
	"path"
	"sync"
	"time"
)

type memoryItem struct {
	entry     Entry
	expiresAt time.Time
}

// MemoryStore is an in-process cache safe for concurrent use. Expiry is
// enforced lazily on read and swept opportunistically on write.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.now().After(it.expiresAt) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	e := it.entry
	return &e, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, e *Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	// Opportunistic sweep keeps the map from accumulating dead entries.
	for k, it := range s.items {
		if now.After(it.expiresAt) {
			delete(s.items, k)
		}
	}
	s.items[key] = memoryItem{entry: *e, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) DeletePattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.items {
		if ok, _ := path.Match(pattern, k); ok {
			delete(s.items, k)
		}
	}
	return nil
}

// Len reports the number of live entries (test helper).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

var _ Store = (*MemoryStore)(nil)
