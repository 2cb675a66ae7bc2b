package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory reconciliation store for demo/development.
type MemoryStore struct {
	mu           sync.RWMutex
	entries      []*LedgerEntry
	byEventID    map[string]*LedgerEntry
	entitlements map[string]*Entitlement // by organization ID
}

// NewMemoryStore creates a new in-memory reconciliation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEventID:    make(map[string]*LedgerEntry),
		entitlements: make(map[string]*Entitlement),
	}
}

func (m *MemoryStore) AppendLedgerEntryIfAbsent(_ context.Context, entry *LedgerEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEventID[entry.SourceEventID]; exists {
		return false, nil
	}

	cp := *entry
	m.entries = append(m.entries, &cp)
	m.byEventID[entry.SourceEventID] = &cp
	return true, nil
}

func (m *MemoryStore) UpdateEntitlement(_ context.Context, ent *Entitlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *ent
	m.entitlements[ent.OrganizationID] = &cp
	return nil
}

func (m *MemoryStore) GetEntitlement(_ context.Context, orgID string) (*Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ent, ok := m.entitlements[orgID]
	if !ok {
		return nil, ErrEntitlementNotFound
	}
	cp := *ent
	return &cp, nil
}

func (m *MemoryStore) ListEntriesByUser(_ context.Context, userID string) ([]*LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*LedgerEntry
	for _, e := range m.entries {
		if e.OwnerUserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListEntriesSince(_ context.Context, cutoff time.Time) ([]*LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*LedgerEntry
	for _, e := range m.entries {
		if !e.CreatedAt.Before(cutoff) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
