package reconcile

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subledgerhq/subledger/internal/logging"
	"github.com/subledgerhq/subledger/internal/payment"
)

// Handler provides the webhook receiver and reconciliation query endpoints.
type Handler struct {
	verifier  payment.Verifier
	processor *Processor
	store     Store
}

// NewHandler creates a new reconciliation handler.
func NewHandler(verifier payment.Verifier, processor *Processor, store Store) *Handler {
	return &Handler{verifier: verifier, processor: processor, store: store}
}

// RegisterRoutes sets up webhook and query routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/stripe", h.ReceiveWebhook)
	r.GET("/users/:id/subscriptions", h.ListUserSubscriptions)
	r.GET("/organizations/:id/entitlement", h.GetOrgEntitlement)
}

// ReceiveWebhook handles POST /v1/webhooks/stripe.
//
// The raw body is read exactly as received; signature verification runs over
// those bytes, not over a re-serialized form. A 5xx tells the provider to
// redeliver, so it is returned only when the event failed to persist.
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_signature", "message": "Stripe-Signature header required"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "message": "could not read request body"})
		return
	}

	event, err := h.verifier.Verify(body, sigHeader)
	if err != nil {
		logging.L(c.Request.Context()).Warn("webhook signature rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signature", "message": "signature verification failed"})
		return
	}

	outcome, err := h.processor.Process(c.Request.Context(), event)
	if err != nil {
		logging.L(c.Request.Context()).Error("event processing failed, provider will retry",
			"event_id", event.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing_failed", "message": "event not recorded"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "result": string(outcome)})
}

// ListUserSubscriptions handles GET /v1/users/:id/subscriptions.
func (h *Handler) ListUserSubscriptions(c *gin.Context) {
	entries, err := h.store.ListEntriesByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		logging.L(c.Request.Context()).Error("list subscriptions failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "could not list subscriptions"})
		return
	}
	if entries == nil {
		entries = []*LedgerEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": entries})
}

// GetOrgEntitlement handles GET /v1/organizations/:id/entitlement.
func (h *Handler) GetOrgEntitlement(c *gin.Context) {
	ent, err := h.store.GetEntitlement(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrEntitlementNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "organization has no entitlement"})
			return
		}
		logging.L(c.Request.Context()).Error("get entitlement failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "could not load entitlement"})
		return
	}
	c.JSON(http.StatusOK, ent)
}
