package directory

import (
	"context"
	"database/sql"
)

// PostgresStore reads users and organizations from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed directory store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) GetUser(ctx context.Context, id string) (*User, error) {
	u := &User{}
	var orgID sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, organization_id, created_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &orgID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.OrganizationID = orgID.String
	return u, nil
}

func (p *PostgresStore) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	o := &Organization{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM organizations WHERE id = $1`, id).
		Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (p *PostgresStore) OrganizationForUser(ctx context.Context, userID string) (string, error) {
	var orgID sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT organization_id FROM users WHERE id = $1`, userID).Scan(&orgID)
	if err == sql.ErrNoRows {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return orgID.String, nil
}
