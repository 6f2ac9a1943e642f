package service

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/metrics"
	"shopcore/internal/model"
	"shopcore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertEvaluator re-checks a product's thresholds after a committed stock
// mutation. Implemented by AlertService; nil-safe callers skip evaluation.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, productID uuid.UUID) error
}

// MovementParams is the in-transaction input to the ledger. Quantity is
// always positive; the sign comes from Type.
type MovementParams struct {
	ProductID       uuid.UUID
	Type            domain.MovementType
	Quantity        int
	Reason          string
	UnitCost        *decimal.Decimal
	Batch           *string
	ExpirationDate  *time.Time
	Location        *string
	ReferenceNumber *string
	CreatedBy       string

	// ReleaseReserved additionally lowers ReservedStock by Quantity in the
	// same statement — used when a reservation is converted into a sale.
	ReleaseReserved bool
}

// StockService is the ledger plus the reservation manager: the only two ways
// stock counters change. Reservations are a soft hold, not movements.
type StockService interface {
	RecordMovement(ctx context.Context, actor string, req dto.RecordMovementRequest) (*dto.MovementResponse, error)
	// RecordMovementTx is the in-transaction core used by fulfillment and PO
	// receiving; the caller owns the transaction and the post-commit alert
	// re-evaluation.
	RecordMovementTx(ctx context.Context, tx *gorm.DB, p MovementParams) (*model.StockMovement, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)

	Reserve(ctx context.Context, productID uuid.UUID, qty int) error
	Release(ctx context.Context, productID uuid.UUID, qty int) error
}

type stockService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	alerts    AlertEvaluator
}

func NewStockService(
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	alerts AlertEvaluator,
) StockService {
	return &stockService{products: products, movements: movements, alerts: alerts}
}

// RecordMovement applies one signed stock change atomically: lock the product
// row, derive the delta from the movement type, reject anything that would
// drive stock negative, then write the new level and the immutable ledger row
// in the same transaction. Alert evaluation runs after commit; its failure is
// logged but never rolls back the stock mutation.
func (s *stockService) RecordMovement(ctx context.Context, actor string, req dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	movType, err := domain.ParseMovementType(req.Type)
	if err != nil {
		return nil, err
	}

	var mov *model.StockMovement
	txErr := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		var innerErr error
		mov, innerErr = s.RecordMovementTx(ctx, tx, MovementParams{
			ProductID:       productID,
			Type:            movType,
			Quantity:        req.Quantity,
			Reason:          req.Reason,
			UnitCost:        req.UnitCost,
			Batch:           req.Batch,
			ExpirationDate:  req.ExpirationDate,
			Location:        req.Location,
			ReferenceNumber: req.ReferenceNumber,
			CreatedBy:       actor,
		})
		return innerErr
	})
	if txErr != nil {
		return nil, txErr
	}

	s.evaluateAlerts(ctx, productID)
	return movementToResponse(mov), nil
}

func (s *stockService) RecordMovementTx(ctx context.Context, tx *gorm.DB, p MovementParams) (*model.StockMovement, error) {
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("movement quantity must be positive, got %d", p.Quantity)
	}

	product, err := s.products.FindByIDForUpdateTx(tx, p.ProductID)
	if err != nil {
		return nil, err
	}

	delta := p.Type.Delta(p.Quantity)
	newStock := product.Stock + delta
	if newStock < 0 {
		return nil, fmt.Errorf("%w: product %s has %d on hand, movement needs %d",
			domain.ErrInsufficientStock, product.SKU, product.Stock, p.Quantity)
	}

	now := time.Now()
	fields := map[string]interface{}{"stock": newStock}
	switch p.Type {
	case domain.MovementSale:
		fields["last_sold_at"] = now
		fields["total_sold"] = gorm.Expr("total_sold + ?", p.Quantity)
	case domain.MovementRestock, domain.MovementPurchase:
		fields["last_restock_at"] = now
	}
	if p.ReleaseReserved {
		fields["reserved_stock"] = gorm.Expr("GREATEST(reserved_stock - ?, 0)", p.Quantity)
	}
	if err := s.products.UpdateStockTx(tx, p.ProductID, fields); err != nil {
		return nil, err
	}

	mov := &model.StockMovement{
		ProductID:       p.ProductID,
		Type:            string(p.Type),
		Reason:          p.Reason,
		Quantity:        p.Quantity,
		PreviousStock:   product.Stock,
		NewStock:        newStock,
		UnitCost:        p.UnitCost,
		Batch:           p.Batch,
		ExpirationDate:  p.ExpirationDate,
		Location:        p.Location,
		ReferenceNumber: p.ReferenceNumber,
		CreatedBy:       p.CreatedBy,
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, err
	}

	metrics.StockMovements.WithLabelValues(string(p.Type)).Inc()
	return mov, nil
}

func (s *stockService) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	repoFilter := repository.StockMovementFilter{
		Type:  filter.Type,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	if filter.ProductID != "" {
		pid, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id: %w", err)
		}
		repoFilter.ProductID = &pid
	}

	movements, total, err := s.movements.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, *movementToResponse(&movements[i]))
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return &dto.MovementListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

// Reserve places a soft hold without touching the ledger. The availability
// check and the increment are a single guarded UPDATE, so two concurrent
// reservations of the last unit cannot both succeed.
func (s *stockService) Reserve(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}
	ok, err := s.products.TryReserve(ctx, productID, qty)
	if err != nil {
		return err
	}
	if !ok {
		// Distinguish a missing product from a failed availability guard.
		product, findErr := s.products.FindByID(ctx, productID)
		if findErr != nil {
			return findErr
		}
		metrics.ReservationFailures.Inc()
		return fmt.Errorf("%w: product %s has %d available, requested %d",
			domain.ErrInsufficientAvailableStock, product.SKU, product.AvailableStock(), qty)
	}
	return nil
}

// Release lowers the hold, flooring at zero. Releasing more than held is
// tolerated: a cancellation may race with partial fulfillment that already
// consumed part of the hold.
func (s *stockService) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", qty)
	}
	return s.products.Release(ctx, productID, qty)
}

// evaluateAlerts is advisory: it re-reads the committed product state, so it
// must not run inside the inventory transaction, and its failure stands apart
// from the stock mutation.
func (s *stockService) evaluateAlerts(ctx context.Context, productID uuid.UUID) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.Evaluate(ctx, productID); err != nil {
		log.Error().Err(err).Str("product_id", productID.String()).
			Msg("alert evaluation failed after stock mutation")
	}
}

func movementToResponse(m *model.StockMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:              m.ID.String(),
		ProductID:       m.ProductID.String(),
		Type:            m.Type,
		Reason:          m.Reason,
		Quantity:        m.Quantity,
		PreviousStock:   m.PreviousStock,
		NewStock:        m.NewStock,
		UnitCost:        m.UnitCost,
		ReferenceNumber: m.ReferenceNumber,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
}
