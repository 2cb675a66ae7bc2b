package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subledgerhq/subledger/internal/testutil"
)

func TestPostgresStore_GetAndList(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	_, err := db.ExecContext(ctx, `
		INSERT INTO plans (id, display_name, price, seat_limit, created_at)
		VALUES ('1', 'Starter', '49.00', 3, $1), ('2', 'Team', '349.00', 10, $1)`,
		time.Now().UTC())
	require.NoError(t, err)

	s := NewPostgresStore(db)

	plan, err := s.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "349.00", plan.Price)
	assert.Equal(t, 10, plan.SeatLimit)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	plans, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}
