package model

import (
	"time"

	"github.com/google/uuid"
)

// InventoryAlert is produced by the alert engine when a product breaches a
// threshold. At most one active alert exists per (ProductID, Type): a repeated
// breach updates the existing active row in place. Once resolved or dismissed,
// the next breach creates a fresh row.
type InventoryAlert struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_alert_product_type"`
	Type      string    `gorm:"type:varchar(20);not null;index:idx_alert_product_type"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active';index"`
	Priority  string    `gorm:"type:varchar(10);not null"`

	Threshold      *int
	CurrentValue   *int
	ExpirationDate *time.Time
	Message        string

	AcknowledgedBy *string
	AcknowledgedAt *time.Time
	ResolvedBy     *string
	ResolvedAt     *time.Time
	Notes          *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
