package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subledgerhq/subledger/internal/testutil"
)

func TestPostgresStore_UsersAndOrgs(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	_, err := db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, created_at) VALUES ('42', 'Acme', $1)`, now)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, email, organization_id, created_at)
		VALUES ('7', 'buyer@acme.test', '42', $1), ('8', 'solo@example.test', NULL, $1)`, now)
	require.NoError(t, err)

	s := NewPostgresStore(db)

	orgID, err := s.OrganizationForUser(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "42", orgID)

	orgID, err = s.OrganizationForUser(ctx, "8")
	require.NoError(t, err)
	assert.Empty(t, orgID)

	_, err = s.OrganizationForUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	org, err := s.GetOrganization(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)
}
