package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory plan catalog for demo/development.
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[string]*Plan
}

// NewMemoryStore creates a new in-memory catalog seeded with the default plans.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{plans: make(map[string]*Plan)}
	now := time.Now().UTC()
	for _, p := range []*Plan{
		{ID: "1", DisplayName: "Starter", Price: "49.00", SeatLimit: 3, CreatedAt: now},
		{ID: "2", DisplayName: "Team", Price: "349.00", SeatLimit: 10, CreatedAt: now},
		{ID: "3", DisplayName: "Business", Price: "999.00", SeatLimit: 50, CreatedAt: now},
	} {
		m.plans[p.ID] = p
	}
	return m
}

// Put inserts or replaces a plan. Used by tests and demo seeding.
func (m *MemoryStore) Put(_ context.Context, p *Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[p.ID] = &cp
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context) ([]*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Plan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
