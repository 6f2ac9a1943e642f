package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the inventory-bearing side of a catalog product. Catalog CRUD is
// owned elsewhere; this row carries the stock counters and the thresholds the
// alert engine evaluates. Invariant: 0 <= ReservedStock <= Stock.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU           string          `gorm:"uniqueIndex;not null"`
	Name          string          `gorm:"index;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Cost          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Stock         int             `gorm:"not null;default:0"`
	ReservedStock int             `gorm:"not null;default:0"`

	// Alerting thresholds. MaxStockLevel = 0 disables the overstock check.
	MinStockLevel int  `gorm:"not null;default:5"`
	ReorderPoint  int  `gorm:"not null;default:10"`
	MaxStockLevel int  `gorm:"not null;default:0"`
	AlertsEnabled bool `gorm:"not null;default:true"`

	// Auto-restock: the daily sweep creates draft purchase orders of
	// ReorderQuantity units against SupplierID when available stock falls to
	// or below ReorderPoint.
	AutoRestock     bool       `gorm:"not null;default:false"`
	ReorderQuantity int        `gorm:"not null;default:0"`
	SupplierID      *uuid.UUID `gorm:"type:uuid;index"`

	TrackExpiration bool       `gorm:"not null;default:false"`
	ExpirationDate  *time.Time

	// Cosmetic bookkeeping updated by the ledger, not invariant-bearing.
	LastSoldAt    *time.Time
	LastRestockAt *time.Time
	TotalSold     int `gorm:"not null;default:0"`

	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

// AvailableStock is on-hand stock minus soft holds — the sellable quantity.
func (p *Product) AvailableStock() int {
	return p.Stock - p.ReservedStock
}
