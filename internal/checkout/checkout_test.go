package checkout

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subledgerhq/subledger/internal/catalog"
	"github.com/subledgerhq/subledger/internal/directory"
	"github.com/subledgerhq/subledger/internal/logging"
	"github.com/subledgerhq/subledger/internal/payment"
)

// fakeProvider records the intent params it receives.
type fakeProvider struct {
	lastParams  payment.CreateIntentParams
	customerErr error
	intentErr   error
}

func (f *fakeProvider) EnsureCustomer(_ context.Context, email string) (string, error) {
	if f.customerErr != nil {
		return "", f.customerErr
	}
	return "cus_test_" + email, nil
}

func (f *fakeProvider) CreateIntent(_ context.Context, p payment.CreateIntentParams) (*payment.Intent, error) {
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	f.lastParams = p
	return &payment.Intent{
		ID:           "pi_test",
		ClientSecret: "pi_test_secret",
		CustomerID:   p.CustomerID,
		AmountMinor:  p.AmountMinor,
		Currency:     p.Currency,
	}, nil
}

func newTestService(provider payment.Provider) *Service {
	plans := catalog.NewMemoryStore()
	users := directory.NewMemoryStore()
	ctx := context.Background()
	users.PutOrganization(ctx, &directory.Organization{ID: "42", Name: "Acme"})
	users.PutUser(ctx, &directory.User{ID: "7", Email: "buyer@acme.test", OrganizationID: "42"})
	users.PutUser(ctx, &directory.User{ID: "8", Email: "solo@example.test"})
	return NewService(plans, users, provider, "usd")
}

func TestCreateIntent_CatalogPriceInMinorUnits(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider)

	result, err := svc.CreateIntent(context.Background(), Request{
		UserID: "7", PlanID: "2", Email: "buyer@acme.test",
	})
	require.NoError(t, err)

	// Plan 2 is priced 349.00; the provider must be charged 34900 minor units.
	assert.Equal(t, int64(34900), result.AmountMinor)
	assert.Equal(t, int64(34900), provider.lastParams.AmountMinor)
	assert.Equal(t, "usd", result.Currency)
	assert.Equal(t, "pi_test_secret", result.ClientSecret)
	assert.Equal(t, "cus_test_buyer@acme.test", result.CustomerID)
}

func TestCreateIntent_MetadataCarriesReconciliationKeys(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider)

	_, err := svc.CreateIntent(context.Background(), Request{
		UserID: "7", PlanID: "2", Email: "buyer@acme.test",
	})
	require.NoError(t, err)

	assert.Equal(t, payment.IntentMetadata{
		UserID: "7", PlanID: "2", OrganizationID: "42",
	}, provider.lastParams.Metadata)
}

func TestCreateIntent_NoOrganization(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider)

	_, err := svc.CreateIntent(context.Background(), Request{
		UserID: "8", PlanID: "1", Email: "solo@example.test",
	})
	require.NoError(t, err)

	assert.Empty(t, provider.lastParams.Metadata.OrganizationID)
}

func TestCreateIntent_NoOrganizationIsLogged(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.WithLogger(context.Background(), logger)

	_, err := svc.CreateIntent(ctx, Request{
		UserID: "8", PlanID: "1", Email: "solo@example.test",
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "no organization for purchaser")
	assert.Contains(t, buf.String(), "user_id=8")
}

func TestCreateIntent_UnknownUserStillCheckouts(t *testing.T) {
	// A user the directory has never seen is treated like an individual
	// purchaser: the checkout proceeds without an organization.
	provider := &fakeProvider{}
	svc := newTestService(provider)

	_, err := svc.CreateIntent(context.Background(), Request{
		UserID: "unknown", PlanID: "1", Email: "new@example.test",
	})
	require.NoError(t, err)
	assert.Empty(t, provider.lastParams.Metadata.OrganizationID)
}

func TestCreateIntent_PlanNotFound(t *testing.T) {
	svc := newTestService(&fakeProvider{})

	_, err := svc.CreateIntent(context.Background(), Request{
		UserID: "7", PlanID: "999", Email: "buyer@acme.test",
	})
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCreateIntent_MissingFields(t *testing.T) {
	svc := newTestService(&fakeProvider{})

	_, err := svc.CreateIntent(context.Background(), Request{PlanID: "2", Email: "a@b.co"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCreateIntent_ProviderFailure(t *testing.T) {
	provider := &fakeProvider{intentErr: errors.New("provider down")}
	svc := newTestService(provider)

	_, err := svc.CreateIntent(context.Background(), Request{
		UserID: "7", PlanID: "2", Email: "buyer@acme.test",
	})
	assert.Error(t, err)
}
