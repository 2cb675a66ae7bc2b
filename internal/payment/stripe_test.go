package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subledgerhq/subledger/internal/testutil"
)

const testSecret = "whsec_test_secret"

const succeededPayload = `{
	"id": "evt_123",
	"type": "payment_intent.succeeded",
	"data": {
		"object": {
			"id": "pi_abc",
			"amount": 34900,
			"currency": "usd",
			"metadata": {"userId": "7", "planId": "2", "organizationId": "42"}
		}
	}
}`

func TestStripeWebhookVerifier_ValidSignature(t *testing.T) {
	v := NewStripeWebhookVerifier(testSecret)
	payload := []byte(succeededPayload)
	header := testutil.SignStripePayload(payload, testSecret, time.Now())

	event, err := v.Verify(payload, header)
	require.NoError(t, err)

	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, EventTypePaymentSucceeded, event.Type)
	assert.Equal(t, "pi_abc", event.IntentID)
	assert.Equal(t, int64(34900), event.AmountMinor)
	assert.Equal(t, "usd", event.Currency)
	assert.Equal(t, IntentMetadata{UserID: "7", PlanID: "2", OrganizationID: "42"}, event.Metadata)
}

func TestStripeWebhookVerifier_TamperedBody(t *testing.T) {
	v := NewStripeWebhookVerifier(testSecret)
	payload := []byte(succeededPayload)
	header := testutil.SignStripePayload(payload, testSecret, time.Now())

	tampered := []byte(`{"id": "evt_123", "type": "payment_intent.succeeded", "data": {"object": {"id": "pi_abc", "amount": 1}}}`)
	_, err := v.Verify(tampered, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeWebhookVerifier_WrongSecret(t *testing.T) {
	v := NewStripeWebhookVerifier(testSecret)
	payload := []byte(succeededPayload)
	header := testutil.SignStripePayload(payload, "whsec_other", time.Now())

	_, err := v.Verify(payload, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeWebhookVerifier_OtherEventType(t *testing.T) {
	v := NewStripeWebhookVerifier(testSecret)
	payload := []byte(`{"id": "evt_456", "type": "charge.refunded", "data": {"object": {}}}`)
	header := testutil.SignStripePayload(payload, testSecret, time.Now())

	event, err := v.Verify(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_456", event.ID)
	assert.Equal(t, "charge.refunded", event.Type)
	assert.Empty(t, event.IntentID)
}
