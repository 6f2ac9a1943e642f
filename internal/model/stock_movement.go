package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovement is one atomic, signed change to a product's on-hand stock.
// Rows are append-only: created in the same transaction as the product stock
// update, never mutated or deleted afterwards. NewStock = PreviousStock plus
// the signed quantity derived from Type.
type StockMovement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Type          string    `gorm:"type:varchar(20);not null;index"`
	Reason        string    `gorm:"not null"`
	Quantity      int       `gorm:"not null"` // always positive; sign lives in Type
	PreviousStock int       `gorm:"not null"`
	NewStock      int       `gorm:"not null"`

	UnitCost        *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Batch           *string
	ExpirationDate  *time.Time
	Location        *string
	ReferenceNumber *string `gorm:"index"` // order number, PO number, return id

	CreatedBy string `gorm:"not null"`
	CreatedAt time.Time
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
