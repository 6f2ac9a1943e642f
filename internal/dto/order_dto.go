package dto

import "github.com/shopspring/decimal"

type CreateOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items         []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingCost  decimal.Decimal          `json:"shipping_cost" validate:"min=0"`
	Tax           decimal.Decimal          `json:"tax" validate:"min=0"`
	CustomerEmail *string                  `json:"customer_email,omitempty" validate:"omitempty,email"`
}

type UpdateOrderStatusRequest struct {
	Status       string  `json:"status" validate:"required"`
	Reason       *string `json:"reason,omitempty"`
	TrackingCode *string `json:"tracking_code,omitempty"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type OrderItemResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name,omitempty"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	FulfilledQuantity int             `json:"fulfilled_quantity"`
}

type OrderResponse struct {
	ID                 string              `json:"id"`
	OrderNumber        string              `json:"order_number"`
	UserID             string              `json:"user_id"`
	Status             string              `json:"status"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	ShippingCost       decimal.Decimal     `json:"shipping_cost"`
	Tax                decimal.Decimal     `json:"tax"`
	Total              decimal.Decimal     `json:"total"`
	CanBeCancelled     bool                `json:"can_be_cancelled"`
	CanBeReturned      bool                `json:"can_be_returned"`
	TrackingCode       *string             `json:"tracking_code,omitempty"`
	ActualDeliveryDate *string             `json:"actual_delivery_date,omitempty"`
	CancelledAt        *string             `json:"cancelled_at,omitempty"`
	RefundAmount       *decimal.Decimal    `json:"refund_amount,omitempty"`
	Items              []OrderItemResponse `json:"items"`
	CreatedAt          string              `json:"created_at"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type OrderFilter struct {
	Status string `form:"status"`
	UserID string `form:"user_id"`
	Date   string `form:"date"` // YYYY-MM-DD
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

type OrderHistoryResponse struct {
	FromStatus string  `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	Reason     *string `json:"reason,omitempty"`
	ChangedBy  string  `json:"changed_by"`
	CreatedAt  string  `json:"created_at"`
}
