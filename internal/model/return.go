package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Return is the post-delivery return/refund workflow instance. It references
// the originating order but owns its own state machine. RefundAmount is always
// the sum of the item refund amounts, each bounded by the original line total.
type Return struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status  string    `gorm:"type:varchar(20);not null;default:'requested';index"`
	Reason  string    `gorm:"not null"`

	RefundAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	RequestedBy  string `gorm:"not null"`
	ApprovedBy   *string
	ApprovedAt   *time.Time
	RejectedBy   *string
	RejectedAt   *time.Time
	RejectReason *string
	ReceivedAt   *time.Time
	ProcessedAt  *time.Time
	RefundedAt   *time.Time

	// Restocking returned goods is a distinct explicit action, not part of the
	// refund; RestockedAt guards against emitting RETURN movements twice.
	RestockedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Order *Order       `gorm:"foreignKey:OrderID"`
	Items []ReturnItem `gorm:"foreignKey:ReturnID"`
}

type ReturnItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReturnID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderItemID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity     int             `gorm:"not null"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
