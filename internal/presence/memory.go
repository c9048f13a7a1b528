package presence

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	socketID string
	expires  time.Time
}

// MemoryStore is the in-process fallback used when Redis is not
// configured. It only sees connections of its own process, so it must not
// be used in multi-process deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Set(ctx context.Context, userID, socketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry{socketID: socketID, expires: s.now().Add(TTL)}
}

func (s *MemoryStore) RemoveBySocket(ctx context.Context, socketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, e := range s.entries {
		if e.socketID == socketID {
			delete(s.entries, userID)
		}
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return "", false
	}
	if s.now().After(e.expires) {
		delete(s.entries, userID)
		return "", false
	}
	return e.socketID, true
}
