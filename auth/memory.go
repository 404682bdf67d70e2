package auth

import (
	"context"
	"sync"
)

// MemoryUserStore is an in-memory UserStore for tests and development.
type MemoryUserStore struct {
	mu     sync.RWMutex
	byName map[string]User
	byID   map[string]User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byName: make(map[string]User),
		byID:   make(map[string]User),
	}
}

func (m *MemoryUserStore) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[u.Username]; exists {
		return ErrUsernameTaken
	}
	m.byName[u.Username] = u
	m.byID[u.ID] = u
	return nil
}

func (m *MemoryUserStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.byName[username]; ok {
		copied := u
		return &copied, nil
	}
	return nil, nil
}

func (m *MemoryUserStore) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.byID[id]; ok {
		copied := u
		return &copied, nil
	}
	return nil, nil
}
