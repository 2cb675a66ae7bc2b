package reconcile

import (
	"context"
	"database/sql"
	"time"
)

// PostgresStore persists the subscription ledger and entitlements in
// PostgreSQL. Idempotency rides on the UNIQUE constraint over
// source_event_id: the insert and the duplicate check are one statement.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed reconciliation store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) AppendLedgerEntryIfAbsent(ctx context.Context, e *LedgerEntry) (bool, error) {
	result, err := p.db.ExecContext(ctx, `
		INSERT INTO subscription_ledger
			(id, owner_user_id, plan_id, organization_id, start_date, end_date,
			 amount, source_event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_event_id) DO NOTHING`,
		e.ID, e.OwnerUserID, e.PlanID, nullable(e.OrganizationID),
		e.StartDate, e.EndDate, e.Amount, e.SourceEventID, e.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (p *PostgresStore) UpdateEntitlement(ctx context.Context, ent *Entitlement) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO org_entitlements (organization_id, plan_id, seat_limit, source_event_id, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (organization_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			seat_limit = EXCLUDED.seat_limit,
			source_event_id = EXCLUDED.source_event_id,
			updated_at = EXCLUDED.updated_at`,
		ent.OrganizationID, ent.PlanID, ent.SeatLimit, ent.SourceEventID, ent.UpdatedAt,
	)
	return err
}

func (p *PostgresStore) GetEntitlement(ctx context.Context, orgID string) (*Entitlement, error) {
	ent := &Entitlement{}
	err := p.db.QueryRowContext(ctx, `
		SELECT organization_id, plan_id, seat_limit, source_event_id, updated_at
		FROM org_entitlements WHERE organization_id = $1`, orgID).
		Scan(&ent.OrganizationID, &ent.PlanID, &ent.SeatLimit, &ent.SourceEventID, &ent.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrEntitlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return ent, nil
}

func (p *PostgresStore) ListEntriesByUser(ctx context.Context, userID string) ([]*LedgerEntry, error) {
	return p.queryEntries(ctx, `
		SELECT id, owner_user_id, plan_id, organization_id, start_date, end_date,
		       amount, source_event_id, created_at
		FROM subscription_ledger
		WHERE owner_user_id = $1
		ORDER BY created_at DESC`, userID)
}

func (p *PostgresStore) ListEntriesSince(ctx context.Context, cutoff time.Time) ([]*LedgerEntry, error) {
	return p.queryEntries(ctx, `
		SELECT id, owner_user_id, plan_id, organization_id, start_date, end_date,
		       amount, source_event_id, created_at
		FROM subscription_ledger
		WHERE created_at >= $1
		ORDER BY created_at ASC`, cutoff)
}

func (p *PostgresStore) queryEntries(ctx context.Context, query string, arg any) ([]*LedgerEntry, error) {
	rows, err := p.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*LedgerEntry
	for rows.Next() {
		e := &LedgerEntry{}
		var orgID sql.NullString
		if err := rows.Scan(&e.ID, &e.OwnerUserID, &e.PlanID, &orgID, &e.StartDate,
			&e.EndDate, &e.Amount, &e.SourceEventID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OrganizationID = orgID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
