package dto

import "github.com/shopspring/decimal"

type CreateReturnItemRequest struct {
	OrderItemID string `json:"order_item_id" validate:"required,uuid4"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

type CreateReturnRequest struct {
	OrderID string                    `json:"order_id" validate:"required,uuid4"`
	Reason  string                    `json:"reason" validate:"required"`
	Items   []CreateReturnItemRequest `json:"items" validate:"required,min=1,dive"`
}

type RejectReturnRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type ReturnItemResponse struct {
	ID           string          `json:"id"`
	OrderItemID  string          `json:"order_item_id"`
	ProductID    string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

type ReturnResponse struct {
	ID           string               `json:"id"`
	OrderID      string               `json:"order_id"`
	Status       string               `json:"status"`
	Reason       string               `json:"reason"`
	RefundAmount decimal.Decimal      `json:"refund_amount"`
	Items        []ReturnItemResponse `json:"items"`
	RestockedAt  *string              `json:"restocked_at,omitempty"`
	CreatedAt    string               `json:"created_at"`
}

type ReturnListResponse struct {
	Data  []ReturnResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type ReturnFilter struct {
	Status  string `form:"status"`
	OrderID string `form:"order_id"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
}
