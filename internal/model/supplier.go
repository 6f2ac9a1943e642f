package model

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is the counterparty of purchase orders. Products point at their
// preferred supplier; the auto-restock sweep groups replenishment by it.
type Supplier struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"not null"`
	Email        *string
	Phone        *string
	LeadTimeDays int  `gorm:"not null;default:7"`
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Products []Product `gorm:"foreignKey:SupplierID"`
}
