package dto

import "github.com/shopspring/decimal"

type CreatePurchaseOrderItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid4"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"min=0"`
}

type CreatePurchaseOrderRequest struct {
	SupplierID   string                           `json:"supplier_id" validate:"required,uuid4"`
	Items        []CreatePurchaseOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ExpectedDate *string                          `json:"expected_date,omitempty"` // YYYY-MM-DD
}

type ReceiveLineRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type ReceivePurchaseOrderRequest struct {
	Items []ReceiveLineRequest `json:"items" validate:"required,min=1,dive"`
}

type CancelPurchaseOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type PurchaseOrderItemResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name,omitempty"`
	Quantity         int             `json:"quantity"`
	ReceivedQuantity int             `json:"received_quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
}

type PurchaseOrderResponse struct {
	ID           string                      `json:"id"`
	OrderNumber  string                      `json:"order_number"`
	SupplierID   string                      `json:"supplier_id"`
	SupplierName string                      `json:"supplier_name,omitempty"`
	Status       string                      `json:"status"`
	TotalAmount  decimal.Decimal             `json:"total_amount"`
	Items        []PurchaseOrderItemResponse `json:"items"`
	CreatedAt    string                      `json:"created_at"`
}

type PurchaseOrderListResponse struct {
	Data  []PurchaseOrderResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type PurchaseOrderFilter struct {
	Status     string `form:"status"`
	SupplierID string `form:"supplier_id"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}
