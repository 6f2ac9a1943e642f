package repository

import (
	"context"
	"errors"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository is the data access contract for products. Services depend
// on this interface, not on the concrete GORM implementation, enabling clean
// unit testing via stubs.
//
// Everything that reads-then-writes Stock/ReservedStock goes through either
// FindByIDForUpdateTx (row lock inside a caller-owned transaction) or one of
// the single-statement guarded updates (TryReserve / Release) — never a plain
// load-mutate-save from the service layer.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error

	// FindByIDForUpdateTx loads the product row under SELECT .. FOR UPDATE so
	// the ledger's read-check-write is one atomic unit.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)

	// UpdateStockTx writes the new stock level plus any bookkeeping columns
	// computed by the ledger, inside the caller's transaction.
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error

	// TryReserve atomically increments ReservedStock iff enough available
	// stock remains. Returns false (no error) when the guard fails.
	TryReserve(ctx context.Context, id uuid.UUID, qty int) (bool, error)

	// Release decrements ReservedStock flooring at zero; releasing more than
	// held is tolerated since cancellations race with partial fulfillment.
	Release(ctx context.Context, id uuid.UUID, qty int) error
	ReleaseTx(tx *gorm.DB, id uuid.UUID, qty int) error

	// Sweep queries for the background jobs.
	ListAlertable(ctx context.Context) ([]model.Product, error)
	ListBelowReorderPoint(ctx context.Context) ([]model.Product, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &p, err
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("sku = ? AND active = true", sku).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &p, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("active = true")
	if filter.SKU != "" {
		q = q.Where("sku = ?", filter.SKU)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.SupplierID != "" {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	err := q.Order("name ASC").Limit(limit).Offset((page - 1) * limit).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &p, err
}

func (r *productRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) TryReserve(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	// Single guarded UPDATE: the availability check and the increment are one
	// statement, so concurrent reservations cannot both pass on the last unit.
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND active = true AND stock - reserved_stock >= ?", id, qty).
		Update("reserved_stock", gorm.Expr("reserved_stock + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) Release(ctx context.Context, id uuid.UUID, qty int) error {
	return r.ReleaseTx(r.db.WithContext(ctx), id, qty)
}

func (r *productRepo) ReleaseTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("reserved_stock", gorm.Expr("GREATEST(reserved_stock - ?, 0)", qty)).Error
}

func (r *productRepo) ListAlertable(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("active = true AND (alerts_enabled = true OR track_expiration = true)").
		Find(&products).Error
	return products, err
}

func (r *productRepo) ListBelowReorderPoint(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("active = true AND auto_restock = true AND supplier_id IS NOT NULL").
		Where("stock - reserved_stock <= reorder_point").
		Find(&products).Error
	return products, err
}

func (r *productRepo) DB() *gorm.DB { return r.db }
