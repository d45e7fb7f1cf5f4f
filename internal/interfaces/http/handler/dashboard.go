package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/stockflow/backend/internal/domain/dashboard"
)

// SummaryService reads the dashboard summary
type SummaryService interface {
	GetSummary(ctx context.Context, ownerID int64) (*dashboard.Summary, error)
}

// DashboardHandler serves the per-owner dashboard
type DashboardHandler struct {
	BaseHandler
	summaries SummaryService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(summaries SummaryService) *DashboardHandler {
	return &DashboardHandler{summaries: summaries}
}

// Get returns product and sale totals plus low stock products
// GET /dashboard/get
func (h *DashboardHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	summary, err := h.summaries.GetSummary(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
