package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local denylist for single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !until.After(now) {
		return nil
	}
	s.sweep(now)
	s.entries[jti] = until
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	if !until.After(s.now()) {
		delete(s.entries, jti)
		return false, nil
	}
	return true, nil
}

// sweep drops expired entries; caller holds mu.
func (s *MemoryStore) sweep(now time.Time) {
	for jti, until := range s.entries {
		if !until.After(now) {
			delete(s.entries, jti)
		}
	}
}
