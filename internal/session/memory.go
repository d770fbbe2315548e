package session

import (
	"context"
	"sync"

	"arbpanel/internal/models"
)

// MemoryStorage does not survive restarts.
type MemoryStorage struct {
	mu   sync.Mutex
	cred models.Credential
}

func (m *MemoryStorage) Load(context.Context) (models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, nil
}

func (m *MemoryStorage) Save(_ context.Context, cred models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = cred
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = models.Credential{}
	return nil
}
