package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is created once at checkout and mutated only through the lifecycle
// service's transition table. CanBeCancelled / CanBeReturned are derived flags
// kept in sync with Status by every transition — never set independently.
type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber string    `gorm:"uniqueIndex;not null"` // ORD-YYYYMMDD-NNNN
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending';index"`

	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ShippingCost decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	CanBeCancelled bool `gorm:"not null;default:true"`
	CanBeReturned  bool `gorm:"not null;default:false"`

	CancelledAt        *time.Time
	CancellationReason *string
	ActualDeliveryDate *time.Time
	TrackingCode       *string

	// Stamped back by the return workflow on refund, for audit.
	RefundAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	RefundedAt   *time.Time

	CustomerEmail *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem snapshots the product price at order time; the snapshot is
// immutable afterwards even if the live price changes.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	// FulfilledQuantity tracks how many units have been converted from
	// reservation into SALE movements.
	FulfilledQuantity int `gorm:"not null;default:0"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// OrderStatusHistory is the append-only audit trail: one row per transition,
// never updated or deleted.
type OrderStatusHistory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	FromStatus string    `gorm:"type:varchar(20);not null"`
	ToStatus   string    `gorm:"type:varchar(20);not null"`
	Reason     *string
	ChangedBy  string `gorm:"not null"`
	CreatedAt  time.Time
}

// TableName overrides GORM's pluralization (order_status_histories → order_status_history).
func (OrderStatusHistory) TableName() string { return "order_status_history" }
