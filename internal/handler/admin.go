package handler

import (
	"net/http"

	"shopcore/internal/service"
	"shopcore/internal/worker"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes manual triggers for the scheduled sweeps, mainly for
// operators and integration tests.
type AdminHandler struct {
	alerts  service.AlertService
	restock worker.RestockPlanner
}

func NewAdminHandler(alerts service.AlertService, restock worker.RestockPlanner) *AdminHandler {
	return &AdminHandler{alerts: alerts, restock: restock}
}

// RunAlertSweep re-evaluates every alertable product now.
// POST /v1/admin/sweeps/alerts
func (h *AdminHandler) RunAlertSweep(c *gin.Context) {
	count, err := h.alerts.SweepActiveProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluated": count})
}

// RunRestockSweep drafts purchase orders for reorder-point breaches now.
// POST /v1/admin/sweeps/restock
func (h *AdminHandler) RunRestockSweep(c *gin.Context) {
	count, err := h.restock.RunRestockSweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": count})
}
