package repository

import (
	"context"
	"errors"
	"time"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseOrderRepository interface {
	CreateTx(tx *gorm.DB, po *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error)
	List(ctx context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error)
	UpdateTx(tx *gorm.DB, po *model.PurchaseOrder) error
	UpdateItemTx(tx *gorm.DB, item *model.PurchaseOrderItem) error

	// HasOpenForProduct reports whether a non-terminal PO already covers this
	// product/supplier pair — the auto-restock sweep's dedup check.
	HasOpenForProduct(ctx context.Context, productID, supplierID uuid.UUID) (bool, error)

	NextOrderNumber(tx *gorm.DB, now time.Time) (string, error)

	DB() *gorm.DB
}

type purchaseOrderRepo struct{ db *gorm.DB }

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) DB() *gorm.DB { return r.db }

func (r *purchaseOrderRepo) CreateTx(tx *gorm.DB, po *model.PurchaseOrder) error {
	return tx.Create(po).Error
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Items.Product").Preload("Supplier").First(&po, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &po, err
}

func (r *purchaseOrderRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "purchase_orders"}}).
		Preload("Items").First(&po, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &po, err
}

func (r *purchaseOrderRepo) List(ctx context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != "" {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var pos []model.PurchaseOrder
	err := q.Preload("Items.Product").Preload("Supplier").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&pos).Error
	return pos, total, err
}

func (r *purchaseOrderRepo) UpdateTx(tx *gorm.DB, po *model.PurchaseOrder) error {
	return tx.Omit("Items", "Supplier").Save(po).Error
}

func (r *purchaseOrderRepo) UpdateItemTx(tx *gorm.DB, item *model.PurchaseOrderItem) error {
	return tx.Omit("Product").Save(item).Error
}

func (r *purchaseOrderRepo) HasOpenForProduct(ctx context.Context, productID, supplierID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PurchaseOrderItem{}).
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_items.purchase_order_id").
		Where("purchase_order_items.product_id = ?", productID).
		Where("purchase_orders.supplier_id = ?", supplierID).
		Where("purchase_orders.status NOT IN ?", []string{string(domain.POReceived), string(domain.POCancelled)}).
		Count(&count).Error
	return count > 0, err
}

func (r *purchaseOrderRepo) NextOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	return nextDailyNumber(tx, "purchase_order", "PO", now)
}
