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

type OrderRepository interface {
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	UpdateTx(tx *gorm.DB, o *model.Order) error
	UpdateItemTx(tx *gorm.DB, item *model.OrderItem) error

	// AppendHistoryTx writes one audit row per transition; history is
	// append-only and never updated.
	AppendHistoryTx(tx *gorm.DB, h *model.OrderStatusHistory) error
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)

	// NextOrderNumber allocates ORD-YYYYMMDD-NNNN inside the caller's
	// transaction via the day-scoped counter.
	NextOrderNumber(tx *gorm.DB, now time.Time) (string, error)

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items.Product").First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &o, err
}

func (r *orderRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var orders []model.Order
	err := q.Preload("Items.Product").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) UpdateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Save(o).Error
}

func (r *orderRepo) UpdateItemTx(tx *gorm.DB, item *model.OrderItem) error {
	return tx.Save(item).Error
}

func (r *orderRepo) AppendHistoryTx(tx *gorm.DB, h *model.OrderStatusHistory) error {
	return tx.Create(h).Error
}

func (r *orderRepo) ListHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	var rows []model.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *orderRepo) NextOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	return nextDailyNumber(tx, "order", "ORD", now)
}
