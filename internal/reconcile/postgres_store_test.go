package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subledgerhq/subledger/internal/testutil"
)

func TestPostgresStore_AppendIfAbsent(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	entry := &LedgerEntry{
		ID: "sub_1", OwnerUserID: "7", PlanID: "2", OrganizationID: "42",
		StartDate: now, EndDate: now.Add(SubscriptionPeriod),
		Amount: "349.00", SourceEventID: "evt_123", CreatedAt: now,
	}

	inserted, err := s.AppendLedgerEntryIfAbsent(ctx, entry)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same event id with a different row id must not insert.
	dup := *entry
	dup.ID = "sub_2"
	inserted, err = s.AppendLedgerEntryIfAbsent(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	entries, err := s.ListEntriesByUser(ctx, "7")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sub_1", entries[0].ID)
	assert.Equal(t, "349.00", entries[0].Amount)
}

func TestPostgresStore_AppendIfAbsent_ConcurrentDuplicates(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	// Parallel redeliveries of one event race on the source_event_id unique
	// constraint; exactly one row lands.
	const deliveries = 8
	var inserted atomic.Int64
	errs := make(chan error, deliveries)
	var wg sync.WaitGroup

	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := &LedgerEntry{
				ID: fmt.Sprintf("sub_race_%d", i), OwnerUserID: "7", PlanID: "2", OrganizationID: "42",
				StartDate: now, EndDate: now.Add(SubscriptionPeriod),
				Amount: "349.00", SourceEventID: "evt_race", CreatedAt: now,
			}
			ok, err := s.AppendLedgerEntryIfAbsent(ctx, entry)
			if err != nil {
				errs <- err
				return
			}
			if ok {
				inserted.Add(1)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), inserted.Load())

	entries, err := s.ListEntriesByUser(ctx, "7")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPostgresStore_EntitlementLastWriteWins(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()

	_, err := s.GetEntitlement(ctx, "42")
	assert.ErrorIs(t, err, ErrEntitlementNotFound)

	require.NoError(t, s.UpdateEntitlement(ctx, &Entitlement{
		OrganizationID: "42", PlanID: "1", SeatLimit: 3,
		SourceEventID: "evt_1", UpdatedAt: time.Now().UTC(),
	}))
	require.NoError(t, s.UpdateEntitlement(ctx, &Entitlement{
		OrganizationID: "42", PlanID: "2", SeatLimit: 10,
		SourceEventID: "evt_2", UpdatedAt: time.Now().UTC(),
	}))

	ent, err := s.GetEntitlement(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "2", ent.PlanID)
	assert.Equal(t, 10, ent.SeatLimit)
	assert.Equal(t, "evt_2", ent.SourceEventID)
}

func TestPostgresStore_ListEntriesSince(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	s := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, created := range []time.Time{now.Add(-2 * time.Hour), now} {
		entry := &LedgerEntry{
			ID: "sub_" + string(rune('a'+i)), OwnerUserID: "7", PlanID: "2",
			StartDate: created, EndDate: created.Add(SubscriptionPeriod),
			Amount: "349.00", SourceEventID: "evt_" + string(rune('a'+i)), CreatedAt: created,
		}
		_, err := s.AppendLedgerEntryIfAbsent(ctx, entry)
		require.NoError(t, err)
	}

	entries, err := s.ListEntriesSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "evt_b", entries[0].SourceEventID)
	assert.Empty(t, entries[0].OrganizationID)
}
