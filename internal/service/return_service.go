package service

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReturnService owns the post-delivery return workflow. It drives the
// originating order's returned/refunded transitions through OrderService so
// the order transition table stays authoritative. Restocking returned goods
// is a separate explicit action: a refund alone never changes stock.
type ReturnService interface {
	Create(ctx context.Context, actor string, req dto.CreateReturnRequest) (*dto.ReturnResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ReturnResponse, error)
	List(ctx context.Context, filter dto.ReturnFilter) (*dto.ReturnListResponse, error)

	Approve(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error)
	Reject(ctx context.Context, id uuid.UUID, actor string, reason string) (*dto.ReturnResponse, error)
	// MarkReceived confirms the goods are physically back; the order moves to
	// returned in the same transaction.
	MarkReceived(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error)
	Process(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error)
	// Refund completes the workflow and stamps the refund back on the order.
	Refund(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error)

	// Restock emits one RETURN movement per item. Guarded by RestockedAt so
	// it can run at most once per return.
	Restock(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error)
}

type returnService struct {
	returns    repository.ReturnRepository
	orders     repository.OrderRepository
	orderSvc   OrderService
	stock      StockService
	alerts     AlertEvaluator
	dispatcher *worker.Dispatcher
}

func NewReturnService(
	returns repository.ReturnRepository,
	orders repository.OrderRepository,
	orderSvc OrderService,
	stock StockService,
	alerts AlertEvaluator,
	dispatcher *worker.Dispatcher,
) ReturnService {
	return &returnService{
		returns:    returns,
		orders:     orders,
		orderSvc:   orderSvc,
		stock:      stock,
		alerts:     alerts,
		dispatcher: dispatcher,
	}
}

// Create opens a return request against a delivered order. Each line is
// validated against the original order item and refunded pro rata from the
// price snapshot, so the refund can never exceed what was paid.
func (s *returnService) Create(ctx context.Context, actor string, req dto.CreateReturnRequest) (*dto.ReturnResponse, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order_id: %w", err)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if domain.OrderStatus(order.Status) != domain.OrderDelivered || !order.CanBeReturned {
		return nil, fmt.Errorf("%w: order %s is not eligible for return (status %s)",
			domain.ErrConflict, order.OrderNumber, order.Status)
	}

	orderItems := make(map[uuid.UUID]*model.OrderItem, len(order.Items))
	for i := range order.Items {
		orderItems[order.Items[i].ID] = &order.Items[i]
	}

	refundTotal := decimal.Zero
	items := make([]model.ReturnItem, 0, len(req.Items))
	for _, line := range req.Items {
		itemID, err := uuid.Parse(line.OrderItemID)
		if err != nil {
			return nil, fmt.Errorf("invalid order_item_id %q: %w", line.OrderItemID, err)
		}
		orderItem, ok := orderItems[itemID]
		if !ok {
			return nil, fmt.Errorf("%w: item %s does not belong to order %s",
				domain.ErrNotFound, itemID, order.OrderNumber)
		}
		if line.Quantity > orderItem.Quantity {
			return nil, fmt.Errorf("%w: cannot return %d of item %s, only %d were ordered",
				domain.ErrConflict, line.Quantity, itemID, orderItem.Quantity)
		}
		refund := orderItem.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		refundTotal = refundTotal.Add(refund)
		items = append(items, model.ReturnItem{
			OrderItemID:  itemID,
			ProductID:    orderItem.ProductID,
			Quantity:     line.Quantity,
			RefundAmount: refund,
		})
	}

	ret := &model.Return{
		OrderID:      orderID,
		Status:       string(domain.ReturnRequested),
		Reason:       req.Reason,
		RefundAmount: refundTotal,
		RequestedBy:  actor,
		Items:        items,
	}
	txErr := runTx(ctx, s.returns.DB(), func(tx *gorm.DB) error {
		return s.returns.CreateTx(tx, ret)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, ret.ID)
}

func (s *returnService) Get(ctx context.Context, id uuid.UUID) (*dto.ReturnResponse, error) {
	ret, err := s.returns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return returnToResponse(ret), nil
}

func (s *returnService) List(ctx context.Context, filter dto.ReturnFilter) (*dto.ReturnListResponse, error) {
	returns, total, err := s.returns.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ReturnResponse, 0, len(returns))
	for i := range returns {
		data = append(data, *returnToResponse(&returns[i]))
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return &dto.ReturnListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *returnService) Approve(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error) {
	return s.transition(ctx, id, domain.ReturnApproved, func(ret *model.Return, now time.Time) error {
		ret.ApprovedBy = &actor
		ret.ApprovedAt = &now
		return nil
	})
}

func (s *returnService) Reject(ctx context.Context, id uuid.UUID, actor string, reason string) (*dto.ReturnResponse, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection requires a reason", domain.ErrConflict)
	}
	return s.transition(ctx, id, domain.ReturnRejected, func(ret *model.Return, now time.Time) error {
		ret.RejectedBy = &actor
		ret.RejectedAt = &now
		ret.RejectReason = &reason
		return nil
	})
}

func (s *returnService) MarkReceived(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error) {
	return s.transitionWithTx(ctx, id, domain.ReturnReceived, func(tx *gorm.DB, r *model.Return, now time.Time) error {
		r.ReceivedAt = &now
		return s.orderSvc.MarkReturnedTx(tx, r.OrderID, actor)
	})
}

func (s *returnService) Process(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error) {
	return s.transition(ctx, id, domain.ReturnProcessed, func(ret *model.Return, now time.Time) error {
		ret.ProcessedAt = &now
		return nil
	})
}

func (s *returnService) Refund(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error) {
	var ret *model.Return
	resp, err := s.transitionWithTx(ctx, id, domain.ReturnRefunded, func(tx *gorm.DB, r *model.Return, now time.Time) error {
		r.RefundedAt = &now
		ret = r
		return s.orderSvc.MarkRefundedTx(tx, r.OrderID, actor, r.RefundAmount)
	})
	if err != nil {
		return nil, err
	}

	s.sendRefundEmail(ctx, ret)
	return resp, nil
}

// Restock puts returned goods back on hand. It never runs twice: the return
// row is locked for the transaction, so the RestockedAt guard and the
// movements are one atomic unit.
func (s *returnService) Restock(ctx context.Context, id uuid.UUID, actor string) (*dto.ReturnResponse, error) {
	var touched []uuid.UUID
	txErr := runTx(ctx, s.returns.DB(), func(tx *gorm.DB) error {
		ret, err := s.returns.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		if ret.RestockedAt != nil {
			return fmt.Errorf("%w: return %s has already been restocked", domain.ErrConflict, ret.ID)
		}
		switch domain.ReturnStatus(ret.Status) {
		case domain.ReturnReceived, domain.ReturnProcessed, domain.ReturnRefunded:
		default:
			return fmt.Errorf("%w: return %s must be received before restocking, is %s",
				domain.ErrConflict, ret.ID, ret.Status)
		}

		order, err := s.orders.FindByID(ctx, ret.OrderID)
		if err != nil {
			return err
		}

		for i := range ret.Items {
			_, err = s.stock.RecordMovementTx(ctx, tx, MovementParams{
				ProductID:       ret.Items[i].ProductID,
				Type:            domain.MovementReturn,
				Quantity:        ret.Items[i].Quantity,
				Reason:          "customer return restock",
				ReferenceNumber: &order.OrderNumber,
				CreatedBy:       actor,
			})
			if err != nil {
				return err
			}
			touched = append(touched, ret.Items[i].ProductID)
		}

		now := time.Now()
		ret.RestockedAt = &now
		return s.returns.UpdateTx(tx, ret)
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.alerts != nil {
		for _, pid := range touched {
			if err := s.alerts.Evaluate(ctx, pid); err != nil {
				log.Error().Err(err).Str("product_id", pid.String()).
					Msg("alert evaluation failed after restock")
			}
		}
	}

	return s.Get(ctx, id)
}

func (s *returnService) transition(ctx context.Context, id uuid.UUID, next domain.ReturnStatus, mutate func(*model.Return, time.Time) error) (*dto.ReturnResponse, error) {
	return s.transitionWithTx(ctx, id, next, func(_ *gorm.DB, ret *model.Return, now time.Time) error {
		return mutate(ret, now)
	})
}

func (s *returnService) transitionWithTx(ctx context.Context, id uuid.UUID, next domain.ReturnStatus, mutate func(*gorm.DB, *model.Return, time.Time) error) (*dto.ReturnResponse, error) {
	txErr := runTx(ctx, s.returns.DB(), func(tx *gorm.DB) error {
		ret, err := s.returns.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		current := domain.ReturnStatus(ret.Status)
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%w: return %s cannot go from %s to %s",
				domain.ErrInvalidTransition, ret.ID, current, next)
		}
		now := time.Now()
		ret.Status = string(next)
		if err := mutate(tx, ret, now); err != nil {
			return err
		}
		return s.returns.UpdateTx(tx, ret)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, id)
}

func (s *returnService) sendRefundEmail(ctx context.Context, ret *model.Return) {
	if s.dispatcher == nil || ret == nil {
		return
	}
	order, err := s.orders.FindByID(ctx, ret.OrderID)
	if err != nil || order.CustomerEmail == nil || *order.CustomerEmail == "" {
		return
	}
	sendErr := s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: *order.CustomerEmail,
		Subject: fmt.Sprintf("Refund issued for order %s", order.OrderNumber),
		Body: fmt.Sprintf("A refund of $%s has been issued for order %s.",
			ret.RefundAmount.StringFixed(2), order.OrderNumber),
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("order", order.OrderNumber).Msg("failed to enqueue refund email")
	}
}

func returnToResponse(ret *model.Return) *dto.ReturnResponse {
	resp := &dto.ReturnResponse{
		ID:           ret.ID.String(),
		OrderID:      ret.OrderID.String(),
		Status:       ret.Status,
		Reason:       ret.Reason,
		RefundAmount: ret.RefundAmount,
		CreatedAt:    ret.CreatedAt.Format(time.RFC3339),
	}
	if ret.RestockedAt != nil {
		v := ret.RestockedAt.Format(time.RFC3339)
		resp.RestockedAt = &v
	}
	resp.Items = make([]dto.ReturnItemResponse, 0, len(ret.Items))
	for i := range ret.Items {
		resp.Items = append(resp.Items, dto.ReturnItemResponse{
			ID:           ret.Items[i].ID.String(),
			OrderItemID:  ret.Items[i].OrderItemID.String(),
			ProductID:    ret.Items[i].ProductID.String(),
			Quantity:     ret.Items[i].Quantity,
			RefundAmount: ret.Items[i].RefundAmount,
		})
	}
	return resp
}
