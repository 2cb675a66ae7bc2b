// Package reconcile turns verified payment provider events into durable
// subscription records and organization entitlements. The ledger is
// append-only and keyed by provider event id, so redelivered events never
// produce a second entry; entitlement writes are last-write-wins, so
// re-running an event converges instead of corrupting state.
package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/subledgerhq/subledger/internal/catalog"
	"github.com/subledgerhq/subledger/internal/idgen"
	"github.com/subledgerhq/subledger/internal/logging"
	"github.com/subledgerhq/subledger/internal/metrics"
	"github.com/subledgerhq/subledger/internal/money"
	"github.com/subledgerhq/subledger/internal/payment"
)

// Errors
var (
	ErrEntitlementNotFound = errors.New("reconcile: entitlement not found")
	ErrStore               = errors.New("reconcile: store operation failed")
)

// SubscriptionPeriod is how long a single successful payment entitles the
// purchaser for.
const SubscriptionPeriod = 30 * 24 * time.Hour

// LedgerEntry is one row of the append-only subscription ledger. Amount is
// in major currency units as a decimal string.
type LedgerEntry struct {
	ID             string    `json:"id"`
	OwnerUserID    string    `json:"ownerUserId"`
	PlanID         string    `json:"planId"`
	OrganizationID string    `json:"organizationId,omitempty"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	Amount         string    `json:"amount"`
	SourceEventID  string    `json:"sourceEventId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Entitlement is an organization's current plan access. One row per
// organization, overwritten on every successful payment.
type Entitlement struct {
	OrganizationID string    `json:"organizationId"`
	PlanID         string    `json:"planId"`
	SeatLimit      int       `json:"seatLimit"`
	SourceEventID  string    `json:"sourceEventId"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Store persists the subscription ledger and organization entitlements.
type Store interface {
	// AppendLedgerEntryIfAbsent appends the entry unless one with the same
	// SourceEventID already exists. Returns whether the entry was inserted.
	// The check and insert are a single atomic operation.
	AppendLedgerEntryIfAbsent(ctx context.Context, entry *LedgerEntry) (inserted bool, err error)
	// UpdateEntitlement overwrites the organization's entitlement.
	UpdateEntitlement(ctx context.Context, ent *Entitlement) error
	// GetEntitlement returns the organization's entitlement, or
	// ErrEntitlementNotFound.
	GetEntitlement(ctx context.Context, orgID string) (*Entitlement, error)
	// ListEntriesByUser returns a user's ledger entries, newest first.
	ListEntriesByUser(ctx context.Context, userID string) ([]*LedgerEntry, error)
	// ListEntriesSince returns entries created at or after the cutoff,
	// oldest first.
	ListEntriesSince(ctx context.Context, cutoff time.Time) ([]*LedgerEntry, error)
}

// EventEmitter receives notifications as the pipeline commits state. The
// realtime hub implements this; a nil emitter disables notifications.
type EventEmitter interface {
	SubscriptionActivated(entry *LedgerEntry)
	EntitlementUpdated(ent *Entitlement)
}

// Outcome classifies what Process did with an event.
type Outcome string

const (
	// OutcomeProcessed means a new ledger entry was appended.
	OutcomeProcessed Outcome = "processed"
	// OutcomeDuplicate means the ledger already held the event id.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeIgnored means the event type is not one the pipeline acts on.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeIncomplete means required metadata was missing.
	OutcomeIncomplete Outcome = "incomplete"
	// OutcomeNoOrganization means the entry was recorded for an individual
	// purchaser, so no entitlement was touched.
	OutcomeNoOrganization Outcome = "no_organization"
)

// Processor applies verified provider events to the store.
type Processor struct {
	store   Store
	plans   catalog.Store
	emitter EventEmitter
	now     func() time.Time
}

// NewProcessor creates an event processor. emitter may be nil.
func NewProcessor(store Store, plans catalog.Store, emitter EventEmitter) *Processor {
	return &Processor{store: store, plans: plans, emitter: emitter, now: time.Now}
}

// Process applies one verified event. A non-nil error means the event was
// NOT durably recorded and the caller must signal the provider to retry.
// Duplicate deliveries re-run the entitlement write: if a previous delivery
// appended the ledger entry but failed before the entitlement committed,
// the retry completes it.
func (p *Processor) Process(ctx context.Context, event *payment.Event) (Outcome, error) {
	log := logging.L(ctx)

	if event.Type != payment.EventTypePaymentSucceeded {
		metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
		return OutcomeIgnored, nil
	}

	if event.Metadata.Incomplete() {
		// Cannot attribute the payment. Acknowledge so the provider stops
		// retrying; redelivery would carry the same broken metadata.
		log.Warn("event has incomplete metadata, acknowledging without action",
			"event_id", event.ID, "intent_id", event.IntentID)
		metrics.WebhookEventsTotal.WithLabelValues("incomplete").Inc()
		return OutcomeIncomplete, nil
	}

	now := p.now().UTC()
	entry := &LedgerEntry{
		ID:             idgen.WithPrefix("sub_"),
		OwnerUserID:    event.Metadata.UserID,
		PlanID:         event.Metadata.PlanID,
		OrganizationID: event.Metadata.OrganizationID,
		StartDate:      now,
		EndDate:        now.Add(SubscriptionPeriod),
		Amount:         money.FromMinorUnits(event.AmountMinor),
		SourceEventID:  event.ID,
		CreatedAt:      now,
	}

	inserted, err := p.store.AppendLedgerEntryIfAbsent(ctx, entry)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	if inserted {
		metrics.LedgerEntriesTotal.Inc()
		log.Info("subscription recorded",
			"entry_id", entry.ID,
			"event_id", event.ID,
			"user_id", entry.OwnerUserID,
			"plan_id", entry.PlanID,
			"amount", entry.Amount,
		)
		if p.emitter != nil {
			p.emitter.SubscriptionActivated(entry)
		}
	} else {
		metrics.DuplicateEventsTotal.Inc()
		log.Info("duplicate event, ledger unchanged", "event_id", event.ID)
	}

	// Entitlement runs even on duplicates so a retry after a failed
	// entitlement write converges. The write is last-write-wins.
	if entry.OrganizationID != "" {
		if err := p.applyEntitlement(ctx, entry, event.ID); err != nil {
			metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
			return "", err
		}
	}

	if !inserted {
		metrics.WebhookEventsTotal.WithLabelValues("duplicate").Inc()
		return OutcomeDuplicate, nil
	}
	if entry.OrganizationID == "" {
		metrics.WebhookEventsTotal.WithLabelValues("processed").Inc()
		return OutcomeNoOrganization, nil
	}
	metrics.WebhookEventsTotal.WithLabelValues("processed").Inc()
	return OutcomeProcessed, nil
}

func (p *Processor) applyEntitlement(ctx context.Context, entry *LedgerEntry, eventID string) error {
	log := logging.L(ctx)

	plan, err := p.plans.Get(ctx, entry.PlanID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			// Payment referenced a plan the catalog no longer knows. The
			// ledger entry stands; the entitlement cannot be computed.
			log.Warn("plan missing from catalog, entitlement not updated",
				"plan_id", entry.PlanID, "event_id", eventID)
			metrics.EntitlementUpdatesTotal.WithLabelValues("plan_missing").Inc()
			return nil
		}
		return err
	}

	ent := &Entitlement{
		OrganizationID: entry.OrganizationID,
		PlanID:         plan.ID,
		SeatLimit:      plan.SeatLimit,
		SourceEventID:  eventID,
		UpdatedAt:      p.now().UTC(),
	}
	if err := p.store.UpdateEntitlement(ctx, ent); err != nil {
		metrics.EntitlementUpdatesTotal.WithLabelValues("failed").Inc()
		return err
	}

	metrics.EntitlementUpdatesTotal.WithLabelValues("updated").Inc()
	log.Info("entitlement updated",
		"organization_id", ent.OrganizationID,
		"plan_id", ent.PlanID,
		"seat_limit", ent.SeatLimit,
	)
	if p.emitter != nil {
		p.emitter.EntitlementUpdated(ent)
	}
	return nil
}
