package secrets

import (
	"context"
	"sync"
)

// MemoryStore is a Source backed by a map. A missing name yields an empty
// value, the same answer the platform gives for an unset secret.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

func NewMemoryStore(initial map[string]string) *MemoryStore {
	m := &MemoryStore{
		secrets: make(map[string]string, len(initial)),
	}
	for k, v := range initial {
		m.secrets[k] = v
	}
	return m
}

func (m *MemoryStore) GetSecretValue(_ context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.secrets[name], nil
}

func (m *MemoryStore) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[name] = value
}

func (m *MemoryStore) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, name)
}
