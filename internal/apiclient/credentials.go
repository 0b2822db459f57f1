package apiclient

import (
	"context"
	"errors"
	"sync"

	"rental-admin-console/internal/models"
)

var ErrNoCredentials = errors.New("no admin credentials stored")

// CredentialStore keeps the admin credential record. Load returns ErrNoCredentials when empty.
type CredentialStore interface {
	Load(ctx context.Context) (*models.AdminCredentials, error)
	Save(ctx context.Context, creds *models.AdminCredentials) error
	Clear(ctx context.Context) error
}

// MemoryCredentialStore is used in tests and when no durable store is configured.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds *models.AdminCredentials
}

func NewMemoryCredentialStore(creds *models.AdminCredentials) *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: creds}
}

func (m *MemoryCredentialStore) Load(ctx context.Context) (*models.AdminCredentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.creds == nil {
		return nil, ErrNoCredentials
	}
	c := *m.creds
	return &c, nil
}

func (m *MemoryCredentialStore) Save(ctx context.Context, creds *models.AdminCredentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *creds
	m.creds = &c
	return nil
}

func (m *MemoryCredentialStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}
