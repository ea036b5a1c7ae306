package session

import (
	"context"
	"sync"

	"coinrush-client/internal/models"
)

// MemoryStore keeps session material in process memory only. The session
// does not survive a restart and nothing touches disk, so there are no
// encryption concerns. Unlike a package-level token variable, each store
// is an independent value with its own lifecycle.
type MemoryStore struct {
	mu           sync.Mutex
	token        string
	refreshToken string
	user         *models.User
}

// NewMemoryStore returns an empty volatile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Token(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) RefreshToken(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshToken, nil
}

func (m *MemoryStore) SetRefreshToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshToken = token
	return nil
}

func (m *MemoryStore) User(_ context.Context) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, nil
	}
	u := *m.user
	return &u, nil
}

func (m *MemoryStore) SetUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u == nil {
		m.user = nil
		return nil
	}
	cp := *u
	m.user = &cp
	return nil
}

func (m *MemoryStore) SetSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = s.Token
	m.refreshToken = s.RefreshToken
	if s.User == nil {
		m.user = nil
	} else {
		cp := *s.User
		m.user = &cp
	}
	return nil
}

func (m *MemoryStore) SetTokenPair(_ context.Context, token, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.refreshToken = refreshToken
	return nil
}

func (m *MemoryStore) ClearAuth(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.refreshToken = ""
	m.user = nil
	return nil
}
