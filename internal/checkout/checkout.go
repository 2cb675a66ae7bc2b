// Package checkout creates payment intents for plan purchases. The amount
// charged always comes from the plan catalog, never from the client.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/subledgerhq/subledger/internal/catalog"
	"github.com/subledgerhq/subledger/internal/directory"
	"github.com/subledgerhq/subledger/internal/logging"
	"github.com/subledgerhq/subledger/internal/money"
	"github.com/subledgerhq/subledger/internal/payment"
)

// Errors
var (
	ErrInvalidRequest = errors.New("checkout: invalid request")
	ErrPlanNotFound   = errors.New("checkout: plan not found")
)

// Request is a checkout intent creation request.
type Request struct {
	UserID string `json:"userId"`
	PlanID string `json:"planId"`
	Email  string `json:"email"`
}

// Result carries what the client needs to complete the payment.
type Result struct {
	ClientSecret string `json:"clientSecret"`
	CustomerID   string `json:"customerId"`
	IntentID     string `json:"intentId"`
	AmountMinor  int64  `json:"amountMinor"`
	Currency     string `json:"currency"`
}

// Service orchestrates checkout intent creation.
type Service struct {
	plans    catalog.Store
	users    directory.Store
	provider payment.Provider
	currency string
}

// NewService creates a checkout service.
func NewService(plans catalog.Store, users directory.Store, provider payment.Provider, currency string) *Service {
	return &Service{plans: plans, users: users, provider: provider, currency: currency}
}

// CreateIntent validates the request, resolves the authoritative plan price,
// converts it to minor units, and opens a payment intent carrying the
// reconciliation metadata.
func (s *Service) CreateIntent(ctx context.Context, req Request) (*Result, error) {
	if req.UserID == "" || req.PlanID == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: userId, planId, and email are required", ErrInvalidRequest)
	}

	plan, err := s.plans.Get(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, req.PlanID)
		}
		return nil, err
	}

	// Organization membership is optional; individual purchasers check out
	// without one.
	orgID, err := s.users.OrganizationForUser(ctx, req.UserID)
	if err != nil && !errors.Is(err, directory.ErrUserNotFound) {
		return nil, err
	}
	if orgID == "" {
		logging.L(ctx).Warn("no organization for purchaser, creating individual intent",
			"user_id", req.UserID, "plan_id", req.PlanID)
	}

	customerID, err := s.provider.EnsureCustomer(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	amountMinor, err := money.ToMinorUnits(plan.Price)
	if err != nil {
		return nil, fmt.Errorf("checkout: plan %s has malformed price %q: %w", plan.ID, plan.Price, err)
	}

	intent, err := s.provider.CreateIntent(ctx, payment.CreateIntentParams{
		CustomerID:  customerID,
		AmountMinor: amountMinor,
		Currency:    s.currency,
		Metadata: payment.IntentMetadata{
			UserID:         req.UserID,
			PlanID:         req.PlanID,
			OrganizationID: orgID,
		},
	})
	if err != nil {
		return nil, err
	}

	logging.L(ctx).Info("checkout intent created",
		"intent_id", intent.ID,
		"user_id", req.UserID,
		"plan_id", req.PlanID,
		"organization_id", orgID,
		"amount_minor", amountMinor,
	)

	return &Result{
		ClientSecret: intent.ClientSecret,
		CustomerID:   customerID,
		IntentID:     intent.ID,
		AmountMinor:  amountMinor,
		Currency:     s.currency,
	}, nil
}
