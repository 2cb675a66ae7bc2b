package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subledgerhq/subledger/internal/idgen"
)

func TestMemoryStore_AppendIfAbsent_ConcurrentDuplicates(t *testing.T) {
	// Simulates the provider redelivering the same event on parallel
	// connections: exactly one delivery may win the append.
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	const deliveries = 32
	var inserted atomic.Int64
	errs := make(chan error, deliveries)
	var wg sync.WaitGroup

	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := &LedgerEntry{
				ID: idgen.WithPrefix("sub_"), OwnerUserID: "7", PlanID: "2", OrganizationID: "42",
				StartDate: now, EndDate: now.Add(SubscriptionPeriod),
				Amount: "349.00", SourceEventID: "evt_123", CreatedAt: now,
			}
			ok, err := s.AppendLedgerEntryIfAbsent(ctx, entry)
			if err != nil {
				errs <- err
				return
			}
			if ok {
				inserted.Add(1)
			}
		}()
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
