package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subledgerhq/subledger/internal/logging"
)

// Handler provides read-only plan catalog endpoints.
type Handler struct {
	store Store
}

// NewHandler creates a new catalog handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up catalog routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/plans", h.ListPlans)
	r.GET("/plans/:id", h.GetPlan)
}

// ListPlans handles GET /v1/plans.
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.store.List(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("list plans failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "could not list plans"})
		return
	}
	if plans == nil {
		plans = []*Plan{}
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// GetPlan handles GET /v1/plans/:id.
func (h *Handler) GetPlan(c *gin.Context) {
	plan, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no such plan"})
			return
		}
		logging.L(c.Request.Context()).Error("get plan failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "could not load plan"})
		return
	}
	c.JSON(http.StatusOK, plan)
}
