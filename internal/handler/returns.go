package handler

import (
	"context"
	"net/http"

	"shopcore/internal/apierror"
	"shopcore/internal/dto"
	"shopcore/internal/middleware"
	"shopcore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReturnsHandler struct{ svc service.ReturnService }

func NewReturnsHandler(svc service.ReturnService) *ReturnsHandler {
	return &ReturnsHandler{svc: svc}
}

// Create opens a return request against a delivered order.
// POST /v1/returns
func (h *ReturnsHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetClaims(c).Username
	resp, err := h.svc.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List returns return requests with filters.
// GET /v1/returns
func (h *ReturnsHandler) List(c *gin.Context) {
	var filter dto.ReturnFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one return with its items.
// GET /v1/returns/:id
func (h *ReturnsHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Approve accepts a requested return.
// POST /v1/returns/:id/approve
func (h *ReturnsHandler) Approve(c *gin.Context) {
	h.transition(c, h.svc.Approve)
}

// Reject declines a requested return with a reason.
// POST /v1/returns/:id/reject
func (h *ReturnsHandler) Reject(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.RejectReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetClaims(c).Username
	resp, err := h.svc.Reject(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarkReceived confirms the goods are physically back.
// POST /v1/returns/:id/receive
func (h *ReturnsHandler) MarkReceived(c *gin.Context) {
	h.transition(c, h.svc.MarkReceived)
}

// Process inspects received goods.
// POST /v1/returns/:id/process
func (h *ReturnsHandler) Process(c *gin.Context) {
	h.transition(c, h.svc.Process)
}

// Refund completes the workflow and stamps the order.
// POST /v1/returns/:id/refund
func (h *ReturnsHandler) Refund(c *gin.Context) {
	h.transition(c, h.svc.Refund)
}

// Restock puts returned goods back on hand, once.
// POST /v1/returns/:id/restock
func (h *ReturnsHandler) Restock(c *gin.Context) {
	h.transition(c, h.svc.Restock)
}

func (h *ReturnsHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error)) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	actor := middleware.GetClaims(c).Username
	resp, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
