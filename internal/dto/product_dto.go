package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest registers a product in the inventory engine. Catalog
// attributes are minimal; this surface owns the stock counters and thresholds.
type CreateProductRequest struct {
	SKU   string          `json:"sku" validate:"required"`
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price" validate:"required,gt=0"`
	Cost  decimal.Decimal `json:"cost" validate:"min=0"`
	Stock int             `json:"stock" validate:"min=0"`

	MinStockLevel int  `json:"min_stock_level" validate:"min=0"`
	ReorderPoint  int  `json:"reorder_point" validate:"min=0"`
	MaxStockLevel int  `json:"max_stock_level" validate:"min=0"`
	AlertsEnabled *bool `json:"alerts_enabled,omitempty"`

	AutoRestock     bool    `json:"auto_restock"`
	ReorderQuantity int     `json:"reorder_quantity" validate:"min=0"`
	SupplierID      *string `json:"supplier_id,omitempty" validate:"omitempty,uuid4"`

	TrackExpiration bool       `json:"track_expiration"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`
}

// UpdateProductRequest adjusts thresholds and restock settings. Stock counters
// are never writable here; only the ledger and the reservation manager touch
// them.
type UpdateProductRequest struct {
	Name  *string          `json:"name,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Cost  *decimal.Decimal `json:"cost,omitempty"`

	MinStockLevel *int  `json:"min_stock_level,omitempty" validate:"omitempty,min=0"`
	ReorderPoint  *int  `json:"reorder_point,omitempty" validate:"omitempty,min=0"`
	MaxStockLevel *int  `json:"max_stock_level,omitempty" validate:"omitempty,min=0"`
	AlertsEnabled *bool `json:"alerts_enabled,omitempty"`

	AutoRestock     *bool   `json:"auto_restock,omitempty"`
	ReorderQuantity *int    `json:"reorder_quantity,omitempty" validate:"omitempty,min=0"`
	SupplierID      *string `json:"supplier_id,omitempty" validate:"omitempty,uuid4"`

	TrackExpiration *bool      `json:"track_expiration,omitempty"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`

	Active *bool `json:"active,omitempty"`
}

type ProductResponse struct {
	ID             string          `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Cost           decimal.Decimal `json:"cost"`
	Stock          int             `json:"stock"`
	ReservedStock  int             `json:"reserved_stock"`
	AvailableStock int             `json:"available_stock"`

	MinStockLevel int  `json:"min_stock_level"`
	ReorderPoint  int  `json:"reorder_point"`
	MaxStockLevel int  `json:"max_stock_level"`
	AlertsEnabled bool `json:"alerts_enabled"`

	AutoRestock     bool    `json:"auto_restock"`
	ReorderQuantity int     `json:"reorder_quantity"`
	SupplierID      *string `json:"supplier_id,omitempty"`

	TrackExpiration bool    `json:"track_expiration"`
	ExpirationDate  *string `json:"expiration_date,omitempty"`

	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
