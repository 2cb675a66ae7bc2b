package directory

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory directory for demo/development.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
	orgs  map[string]*Organization
}

// NewMemoryStore creates a new in-memory directory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*User),
		orgs:  make(map[string]*Organization),
	}
}

// PutUser inserts or replaces a user. Used by tests and demo seeding.
func (m *MemoryStore) PutUser(_ context.Context, u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	m.users[u.ID] = &cp
}

// PutOrganization inserts or replaces an organization.
func (m *MemoryStore) PutOrganization(_ context.Context, o *Organization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	cp := *o
	m.orgs[o.ID] = &cp
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetOrganization(_ context.Context, id string) (*Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orgs[id]
	if !ok {
		return nil, ErrOrgNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) OrganizationForUser(ctx context.Context, userID string) (string, error) {
	u, err := m.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.OrganizationID, nil
}
