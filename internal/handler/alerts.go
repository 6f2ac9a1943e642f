package handler

import (
	"context"
	"net/http"

	"shopcore/internal/dto"
	"shopcore/internal/middleware"
	"shopcore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AlertsHandler struct{ svc service.AlertService }

func NewAlertsHandler(svc service.AlertService) *AlertsHandler {
	return &AlertsHandler{svc: svc}
}

// ListActive returns every alert still requiring attention.
// GET /v1/alerts
func (h *AlertsHandler) ListActive(c *gin.Context) {
	resp, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Acknowledge marks an active alert as seen.
// POST /v1/alerts/:id/acknowledge
func (h *AlertsHandler) Acknowledge(c *gin.Context) {
	h.action(c, h.svc.Acknowledge)
}

// Resolve closes an alert out.
// POST /v1/alerts/:id/resolve
func (h *AlertsHandler) Resolve(c *gin.Context) {
	h.action(c, h.svc.Resolve)
}

// Dismiss silences an active alert without resolving the condition.
// POST /v1/alerts/:id/dismiss
func (h *AlertsHandler) Dismiss(c *gin.Context) {
	h.action(c, h.svc.Dismiss)
}

func (h *AlertsHandler) action(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, actor string, notes *string) error) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	// Notes body is optional; an empty body is fine.
	var req dto.AlertActionRequest
	_ = c.ShouldBindJSON(&req)

	actor := middleware.GetClaims(c).Username
	if err := fn(c.Request.Context(), id, actor, req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
