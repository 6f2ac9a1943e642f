package repository

import (
	"context"
	"errors"

	"shopcore/internal/domain"
	"shopcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertRepository interface {
	Create(ctx context.Context, a *model.InventoryAlert) error
	Update(ctx context.Context, a *model.InventoryAlert) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryAlert, error)
	// FindActive returns the single active alert for (product, type), or
	// domain.ErrNotFound — the engine relies on this for deduplication.
	FindActive(ctx context.Context, productID uuid.UUID, alertType string) (*model.InventoryAlert, error)
	ListActive(ctx context.Context) ([]model.InventoryAlert, error)
}

type alertRepo struct{ db *gorm.DB }

func NewAlertRepository(db *gorm.DB) AlertRepository { return &alertRepo{db: db} }

func (r *alertRepo) Create(ctx context.Context, a *model.InventoryAlert) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *alertRepo) Update(ctx context.Context, a *model.InventoryAlert) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *alertRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryAlert, error) {
	var a model.InventoryAlert
	err := r.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &a, err
}

func (r *alertRepo) FindActive(ctx context.Context, productID uuid.UUID, alertType string) (*model.InventoryAlert, error) {
	var a model.InventoryAlert
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND type = ? AND status = ?", productID, alertType, string(domain.AlertActive)).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &a, err
}

func (r *alertRepo) ListActive(ctx context.Context) ([]model.InventoryAlert, error) {
	var alerts []model.InventoryAlert
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("status = ?", string(domain.AlertActive)).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}
