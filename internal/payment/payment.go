// Package payment abstracts the card payment provider. The rest of the
// service talks to the Provider and Verifier interfaces; the Stripe
// implementation lives in stripe.go.
package payment

import (
	"context"
	"errors"
)

// Errors
var (
	ErrInvalidSignature = errors.New("payment: webhook signature verification failed")
	ErrProvider         = errors.New("payment: provider request failed")
)

// EventTypePaymentSucceeded is the only provider event type the pipeline
// acts on. Everything else is acknowledged and dropped.
const EventTypePaymentSucceeded = "payment_intent.succeeded"

// Metadata keys attached to every checkout intent.
const (
	metaUserID = "userId"
	metaPlanID = "planId"
	metaOrgID  = "organizationId"
)

// IntentMetadata is the typed contract for metadata attached to a checkout
// intent at creation and read back off the webhook event. OrganizationID is
// empty for individual purchasers.
type IntentMetadata struct {
	UserID         string
	PlanID         string
	OrganizationID string
}

// ToMap renders the metadata as provider key/value pairs.
func (m IntentMetadata) ToMap() map[string]string {
	out := map[string]string{
		metaUserID: m.UserID,
		metaPlanID: m.PlanID,
	}
	if m.OrganizationID != "" {
		out[metaOrgID] = m.OrganizationID
	}
	return out
}

// MetadataFromMap parses provider metadata back into the typed contract.
// Unknown keys are ignored.
func MetadataFromMap(raw map[string]string) IntentMetadata {
	return IntentMetadata{
		UserID:         raw[metaUserID],
		PlanID:         raw[metaPlanID],
		OrganizationID: raw[metaOrgID],
	}
}

// Incomplete reports whether the metadata is missing a required field.
// UserID and PlanID are mandatory; OrganizationID is optional.
func (m IntentMetadata) Incomplete() bool {
	return m.UserID == "" || m.PlanID == ""
}

// CreateIntentParams carries everything needed to open a payment intent.
type CreateIntentParams struct {
	CustomerID  string
	AmountMinor int64
	Currency    string
	Metadata    IntentMetadata
}

// Intent is a provider payment intent opened for a checkout.
type Intent struct {
	ID           string
	ClientSecret string
	CustomerID   string
	AmountMinor  int64
	Currency     string
}

// Event is a verified provider webhook event, reduced to the fields the
// reconciliation pipeline needs.
type Event struct {
	ID          string
	Type        string
	IntentID    string
	AmountMinor int64
	Currency    string
	Metadata    IntentMetadata
}

// Provider opens payment intents with the card payment provider.
type Provider interface {
	// EnsureCustomer finds the provider customer for an email, creating one
	// if none exists, and returns the provider customer ID.
	EnsureCustomer(ctx context.Context, email string) (string, error)
	// CreateIntent opens a payment intent for the given amount and metadata.
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
}

// Verifier authenticates raw webhook payloads against their signature header
// and parses them into Events. Verification is offline; no provider call is
// made.
type Verifier interface {
	Verify(payload []byte, sigHeader string) (*Event, error)
}
