package checkout

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subledgerhq/subledger/internal/logging"
	"github.com/subledgerhq/subledger/internal/metrics"
	"github.com/subledgerhq/subledger/internal/validation"
)

// Handler provides HTTP endpoints for checkout.
type Handler struct {
	svc *Service
}

// NewHandler creates a new checkout handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes sets up checkout routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/checkout/intents", h.CreateIntent)
}

// CreateIntent handles POST /v1/checkout/intents.
func (h *Handler) CreateIntent(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.CheckoutIntentsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "userId, planId, and email required"})
		return
	}

	// Trim whitespace and strip null bytes before validating; length limits
	// are enforced below so oversized fields are rejected, not truncated.
	req.UserID = validation.SanitizeString(req.UserID, validation.MaxStringLength)
	req.PlanID = validation.SanitizeString(req.PlanID, validation.MaxStringLength)
	req.Email = validation.SanitizeString(req.Email, validation.MaxStringLength)

	if errs := validation.Validate(
		validation.Required("userId", req.UserID),
		validation.Required("planId", req.PlanID),
		validation.Required("email", req.Email),
		validation.MaxLength("userId", req.UserID, 64),
		validation.MaxLength("planId", req.PlanID, 64),
	); len(errs) > 0 {
		metrics.CheckoutIntentsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": errs.Error(), "fields": errs})
		return
	}

	if errs := validation.Validate(validation.ValidEmail("email", req.Email)); len(errs) > 0 {
		metrics.CheckoutIntentsTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_email", "message": "email is not valid"})
		return
	}

	result, err := h.svc.CreateIntent(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest):
			metrics.CheckoutIntentsTotal.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		case errors.Is(err, ErrPlanNotFound):
			metrics.CheckoutIntentsTotal.WithLabelValues("plan_not_found").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "plan_not_found", "message": "no such plan"})
		default:
			metrics.CheckoutIntentsTotal.WithLabelValues("error").Inc()
			logging.L(c.Request.Context()).Error("checkout intent failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "could not create checkout intent"})
		}
		return
	}

	metrics.CheckoutIntentsTotal.WithLabelValues("created").Inc()
	c.JSON(http.StatusOK, result)
}
