package model

// NumberSequence backs the per-day monotonic counters behind order and PO
// numbers (ORD-YYYYMMDD-NNNN, PO-YYYYMMDD-NNNN). Incremented with an
// INSERT .. ON CONFLICT DO UPDATE .. RETURNING so concurrent checkouts can
// never observe the same value.
type NumberSequence struct {
	Scope string `gorm:"primaryKey;type:varchar(20)"` // "order" | "purchase_order"
	Day   string `gorm:"primaryKey;type:varchar(8)"`  // YYYYMMDD
	Value int    `gorm:"not null"`
}
