package catalog

import (
	"context"
	"database/sql"
)

// PostgresStore reads the plan catalog from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed catalog store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Plan, error) {
	plan := &Plan{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, display_name, price, seat_limit, created_at
		FROM plans WHERE id = $1`, id).
		Scan(&plan.ID, &plan.DisplayName, &plan.Price, &plan.SeatLimit, &plan.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*Plan, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, display_name, price, seat_limit, created_at
		FROM plans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var plans []*Plan
	for rows.Next() {
		plan := &Plan{}
		if err := rows.Scan(&plan.ID, &plan.DisplayName, &plan.Price, &plan.SeatLimit, &plan.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
