package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_OrganizationForUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.PutOrganization(ctx, &Organization{ID: "42", Name: "Acme"})
	s.PutUser(ctx, &User{ID: "7", Email: "buyer@acme.test", OrganizationID: "42"})
	s.PutUser(ctx, &User{ID: "8", Email: "solo@example.test"})

	orgID, err := s.OrganizationForUser(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "42", orgID)

	// User without an organization: empty ID, no error.
	orgID, err = s.OrganizationForUser(ctx, "8")
	require.NoError(t, err)
	assert.Empty(t, orgID)

	_, err = s.OrganizationForUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_GetOrganization(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.PutOrganization(ctx, &Organization{ID: "42", Name: "Acme"})

	org, err := s.GetOrganization(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)

	_, err = s.GetOrganization(ctx, "43")
	assert.ErrorIs(t, err, ErrOrgNotFound)
}
