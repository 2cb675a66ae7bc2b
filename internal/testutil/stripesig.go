package testutil

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81/webhook"
)

// SignStripePayload computes a valid Stripe-Signature header for a webhook
// payload, the same way Stripe's servers would sign it.
func SignStripePayload(payload []byte, secret string, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}
