package repositories

import (
	"context"
	"maps"
	"sync"
)

// TokenStore persists named session tokens.
//
// Load returns only the names that are present. Delete of an absent name is not an error.
type TokenStore interface {
	Load(ctx context.Context, names ...string) (map[string]string, error)
	Save(ctx context.Context, tokens map[string]string) error
	Delete(ctx context.Context, names ...string) error
}

// MemoryTokenStore implements [TokenStore] with a mutex-guarded map.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryTokenStore creates a store seeded with a copy of initial (which may be nil).
func NewMemoryTokenStore(initial map[string]string) *MemoryTokenStore {
	tokens := make(map[string]string, len(initial))
	maps.Copy(tokens, initial)
	return &MemoryTokenStore{tokens: tokens}
}

func (s *MemoryTokenStore) Load(_ context.Context, names ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := s.tokens[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, tokens map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.tokens, tokens)
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		delete(s.tokens, name)
	}
	return nil
}

// Snapshot returns a copy of every stored token.
func (s *MemoryTokenStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.tokens)
}
