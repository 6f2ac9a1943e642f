package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder tracks a replenishment order against a supplier. Receiving
// reconciles supplier deliveries into PURCHASE stock movements line by line;
// the status flips to received only when every item is fully received.
type PurchaseOrder struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber string    `gorm:"uniqueIndex;not null"` // PO-YYYYMMDD-NNNN
	SupplierID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending';index"`

	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ExpectedDate *time.Time
	ReceivedAt   *time.Time
	CancelReason *string
	CreatedBy    string `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Supplier *Supplier           `gorm:"foreignKey:SupplierID"`
	Items    []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID"`
}

// PurchaseOrderItem invariant: 0 <= ReceivedQuantity <= Quantity.
type PurchaseOrderItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseOrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity         int             `gorm:"not null"`
	ReceivedQuantity int             `gorm:"not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// RemainingQuantity is how many units are still expected from the supplier.
func (i *PurchaseOrderItem) RemainingQuantity() int {
	return i.Quantity - i.ReceivedQuantity
}
