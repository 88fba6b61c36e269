package oauth

import (
	"context"
	"sync"
)

// CredentialsStore persists token credentials across process restarts.
// Implementations must be safe for concurrent use. Load returns (nil, nil)
// when no credentials exist under the key.
type CredentialsStore interface {
	Save(ctx context.Context, key string, creds *Credentials) error
	Load(ctx context.Context, key string) (*Credentials, error)
	Delete(ctx context.Context, key string) error
}

// MemoryCredentialsStore keeps credentials in process memory. Suitable for
// tests and single-process deployments that don't need restart survival.
type MemoryCredentialsStore struct {
	mu    sync.RWMutex
	creds map[string]*Credentials
}

func NewMemoryCredentialsStore() *MemoryCredentialsStore {
	return &MemoryCredentialsStore{
		creds: make(map[string]*Credentials),
	}
}

func (m *MemoryCredentialsStore) Save(_ context.Context, key string, creds *Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[key] = creds.Clone()
	return nil
}

func (m *MemoryCredentialsStore) Load(_ context.Context, key string) (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds[key].Clone(), nil
}

func (m *MemoryCredentialsStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.creds, key)
	return nil
}
