package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/subledgerhq/subledger/internal/catalog"
	"github.com/subledgerhq/subledger/internal/metrics"
)

// Timer periodically re-derives organization entitlements from recent ledger
// entries. A crash between the ledger append and the entitlement write can
// leave the entitlement stale until the provider redelivers; the sweep closes
// that window without waiting for redelivery.
type Timer struct {
	store    Store
	plans    catalog.Store
	interval time.Duration
	window   time.Duration
	logger   *slog.Logger
}

// NewTimer creates a repair sweep timer. interval is how often the sweep
// runs; window is how far back it looks.
func NewTimer(store Store, plans catalog.Store, interval, window time.Duration, logger *slog.Logger) *Timer {
	return &Timer{store: store, plans: plans, interval: interval, window: window, logger: logger}
}

// Run sweeps on the configured interval until ctx is done.
func (t *Timer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Sweep(ctx); err != nil {
				t.logger.Error("repair sweep failed", "error", err)
				metrics.RepairSweepsTotal.WithLabelValues("error").Inc()
			} else {
				metrics.RepairSweepsTotal.WithLabelValues("ok").Inc()
			}
		}
	}
}

// Sweep replays entries from the window, oldest first, re-applying each
// organization's entitlement. Last write wins, so replaying entries that
// already took effect is harmless.
func (t *Timer) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-t.window)
	entries, err := t.store.ListEntriesSince(ctx, cutoff)
	if err != nil {
		return err
	}

	repaired := 0
	for _, entry := range entries {
		if entry.OrganizationID == "" {
			continue
		}
		plan, err := t.plans.Get(ctx, entry.PlanID)
		if err != nil {
			if errors.Is(err, catalog.ErrPlanNotFound) {
				continue
			}
			return err
		}

		current, err := t.store.GetEntitlement(ctx, entry.OrganizationID)
		if err != nil && !errors.Is(err, ErrEntitlementNotFound) {
			return err
		}
		// Already reflects this payment (or a later one); skip the write.
		if current != nil && !current.UpdatedAt.Before(entry.CreatedAt) {
			continue
		}

		ent := &Entitlement{
			OrganizationID: entry.OrganizationID,
			PlanID:         plan.ID,
			SeatLimit:      plan.SeatLimit,
			SourceEventID:  entry.SourceEventID,
			UpdatedAt:      time.Now().UTC(),
		}
		if err := t.store.UpdateEntitlement(ctx, ent); err != nil {
			return err
		}
		repaired++
	}

	if repaired > 0 {
		t.logger.Info("repair sweep applied missing entitlements", "count", repaired)
	}
	return nil
}
