package infra

import (
	"fmt"

	"shopcore/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all tables, then applies the idempotent SQL patches GORM cannot express
// (partial indexes, check constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates the schema. Also used by the integration
// tests against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Supplier{},
		&model.Product{},
		&model.StockMovement{},
		&model.InventoryAlert{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.Return{},
		&model.ReturnItem{},
		&model.NumberSequence{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement is guarded so re-running on a patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// At most one active alert per (product, type); the alert engine's
		// dedup relies on this.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_alerts_active_product_type') THEN
		    CREATE UNIQUE INDEX idx_alerts_active_product_type
		        ON inventory_alerts (product_id, type)
		        WHERE status = 'active';
		  END IF;
		END $$`,
		// Stock counter invariants enforced at the database as a last line of
		// defense behind the guarded UPDATEs.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_stock_nonnegative') THEN
		    ALTER TABLE products ADD CONSTRAINT chk_products_stock_nonnegative CHECK (stock >= 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_reserved_bounds') THEN
		    ALTER TABLE products ADD CONSTRAINT chk_products_reserved_bounds
		        CHECK (reserved_stock >= 0 AND reserved_stock <= stock);
		  END IF;
		END $$`,
		// PO line invariant: 0 <= received_quantity <= quantity.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_po_items_received_bounds') THEN
		    ALTER TABLE purchase_order_items ADD CONSTRAINT chk_po_items_received_bounds
		        CHECK (received_quantity >= 0 AND received_quantity <= quantity);
		  END IF;
		END $$`,
		// Partial index for the sweep queries over alertable products.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_products_reorder_sweep') THEN
		    CREATE INDEX idx_products_reorder_sweep
		        ON products (supplier_id)
		        WHERE active = true AND auto_restock = true;
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
