package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest is the write side of the stock ledger.
// Quantity is always positive; the sign is derived from Type.
type RecordMovementRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Type      string `json:"type" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Reason    string `json:"reason" validate:"required"`

	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Batch           *string          `json:"batch,omitempty"`
	ExpirationDate  *time.Time       `json:"expiration_date,omitempty"`
	Location        *string          `json:"location,omitempty"`
	ReferenceNumber *string          `json:"reference_number,omitempty"`
}

type MovementResponse struct {
	ID              string           `json:"id"`
	ProductID       string           `json:"product_id"`
	Type            string           `json:"type"`
	Reason          string           `json:"reason"`
	Quantity        int              `json:"quantity"`
	PreviousStock   int              `json:"previous_stock"`
	NewStock        int              `json:"new_stock"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceNumber *string          `json:"reference_number,omitempty"`
	CreatedBy       string           `json:"created_by"`
	CreatedAt       string           `json:"created_at"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type MovementFilter struct {
	ProductID string `form:"product_id"`
	Type      string `form:"type"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

type ReserveRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type ReleaseRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type ProductFilter struct {
	SKU        string `form:"sku"`
	Name       string `form:"name"`
	SupplierID string `form:"supplier_id"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}
