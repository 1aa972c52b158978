package accountstore

import (
	"context"
	"sync"
)

// MemoryType is the registry type of the in-memory store.
const MemoryType = "memory"

// MemoryStore keeps secrets in a map. Intended for tests and local use.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]string)}
}

// NewMemoryStoreFactory creates a memory store, seeded from the "accounts"
// map when present.
func NewMemoryStoreFactory(config map[string]interface{}) (Store, error) {
	s := NewMemoryStore()
	if accounts, ok := config["accounts"].(map[string]interface{}); ok {
		for id, v := range accounts {
			if str, ok := v.(string); ok {
				s.secrets[id] = str
			}
		}
	}
	return s, nil
}

func (s *MemoryStore) Name() string { return MemoryType }

// Ephemeral is always true: the map is lost when the process exits.
func (s *MemoryStore) Ephemeral() bool { return true }

func (s *MemoryStore) Password(_ context.Context, accountID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.secrets[accountID]
	return v, ok, nil
}

func (s *MemoryStore) SetPassword(_ context.Context, accountID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[accountID] = secret
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[accountID]; !ok {
		return ErrNotFound
	}
	delete(s.secrets, accountID)
	return nil
}
