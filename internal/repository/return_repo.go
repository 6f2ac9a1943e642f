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

type ReturnRepository interface {
	CreateTx(tx *gorm.DB, ret *model.Return) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Return, error)
	// FindByIDForUpdateTx locks the return row for the duration of the
	// transaction, so status checks and the RestockedAt guard are serialized.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Return, error)
	List(ctx context.Context, filter dto.ReturnFilter) ([]model.Return, int64, error)
	UpdateTx(tx *gorm.DB, ret *model.Return) error
	DB() *gorm.DB
}

type returnRepo struct{ db *gorm.DB }

func NewReturnRepository(db *gorm.DB) ReturnRepository { return &returnRepo{db: db} }

func (r *returnRepo) DB() *gorm.DB { return r.db }

func (r *returnRepo) CreateTx(tx *gorm.DB, ret *model.Return) error {
	return tx.Create(ret).Error
}

func (r *returnRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	var ret model.Return
	err := r.db.WithContext(ctx).Preload("Items").Preload("Order").First(&ret, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &ret, err
}

func (r *returnRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Return, error) {
	var ret model.Return
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&ret, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &ret, err
}

func (r *returnRepo) List(ctx context.Context, filter dto.ReturnFilter) ([]model.Return, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Return{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrderID != "" {
		q = q.Where("order_id = ?", filter.OrderID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var returns []model.Return
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&returns).Error
	return returns, total, err
}

func (r *returnRepo) UpdateTx(tx *gorm.DB, ret *model.Return) error {
	return tx.Omit("Items", "Order").Save(ret).Error
}
