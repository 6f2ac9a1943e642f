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

type PurchaseOrdersHandler struct{ svc service.PurchaseOrderService }

func NewPurchaseOrdersHandler(svc service.PurchaseOrderService) *PurchaseOrdersHandler {
	return &PurchaseOrdersHandler{svc: svc}
}

// Create opens a manual purchase order in pending status.
// POST /v1/purchase-orders
func (h *PurchaseOrdersHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
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

// List returns purchase orders with filters.
// GET /v1/purchase-orders
func (h *PurchaseOrdersHandler) List(c *gin.Context) {
	var filter dto.PurchaseOrderFilter
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

// Get returns one purchase order with items and supplier.
// GET /v1/purchase-orders/:id
func (h *PurchaseOrdersHandler) Get(c *gin.Context) {
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

// Submit promotes a sweep-created draft into the approval flow.
// POST /v1/purchase-orders/:id/submit
func (h *PurchaseOrdersHandler) Submit(c *gin.Context) {
	h.transition(c, h.svc.Submit)
}

// Approve signs off a pending purchase order.
// POST /v1/purchase-orders/:id/approve
func (h *PurchaseOrdersHandler) Approve(c *gin.Context) {
	h.transition(c, h.svc.Approve)
}

// Send marks the order as sent to the supplier.
// POST /v1/purchase-orders/:id/send
func (h *PurchaseOrdersHandler) Send(c *gin.Context) {
	h.transition(c, h.svc.Send)
}

// Cancel aborts a non-terminal purchase order.
// POST /v1/purchase-orders/:id/cancel
func (h *PurchaseOrdersHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.CancelPurchaseOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetClaims(c).Username
	resp, err := h.svc.Cancel(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Receive reconciles a supplier delivery line by line.
// POST /v1/purchase-orders/:id/receive
func (h *PurchaseOrdersHandler) Receive(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req dto.ReceivePurchaseOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetClaims(c).Username
	resp, err := h.svc.Receive(c.Request.Context(), id, actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PurchaseOrdersHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, actor string) (*dto.PurchaseOrderResponse, error)) {
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
