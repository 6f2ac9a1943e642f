package service

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/infra"
	"shopcore/internal/metrics"
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService owns the order lifecycle. Every status change goes through the
// transition table; checkout reserves stock per item, and on-hand stock only
// decreases at fulfillment, when reservations are converted into SALE
// movements.
type OrderService interface {
	Create(ctx context.Context, userID uuid.UUID, actor string, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	History(ctx context.Context, id uuid.UUID) ([]dto.OrderHistoryResponse, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, actor string, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string, reason string) (*dto.OrderResponse, error)
	// Fulfill converts the remaining reservations of a processing order into
	// SALE movements inside one transaction.
	Fulfill(ctx context.Context, id uuid.UUID, actor string) (*dto.OrderResponse, error)

	Invoice(ctx context.Context, id uuid.UUID) (string, error)

	// MarkReturnedTx / MarkRefundedTx let the return workflow drive the order
	// state machine inside its own transaction without bypassing the
	// transition table.
	MarkReturnedTx(tx *gorm.DB, orderID uuid.UUID, actor string) error
	MarkRefundedTx(tx *gorm.DB, orderID uuid.UUID, actor string, amount decimal.Decimal) error
}

type orderService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	stock      StockService
	alerts     AlertEvaluator
	dispatcher *worker.Dispatcher
	pdfPath    string
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	stock StockService,
	alerts AlertEvaluator,
	dispatcher *worker.Dispatcher,
	pdfPath string,
) OrderService {
	return &orderService{
		orders:     orders,
		products:   products,
		stock:      stock,
		alerts:     alerts,
		dispatcher: dispatcher,
		pdfPath:    pdfPath,
	}
}

// Create runs checkout: snapshot prices, reserve every line, then persist the
// order. Reservations are taken before the transaction; if any line fails, or
// the transaction aborts, every hold taken so far is released.
func (s *orderService) Create(ctx context.Context, userID uuid.UUID, actor string, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	type line struct {
		product *model.Product
		qty     int
	}
	lines := make([]line, 0, len(req.Items))
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id %q: %w", item.ProductID, err)
		}
		product, err := s.products.FindByID(ctx, pid)
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, fmt.Errorf("%w: product %s is inactive", domain.ErrConflict, product.SKU)
		}
		lines = append(lines, line{product: product, qty: item.Quantity})
	}

	reserved := make([]line, 0, len(lines))
	releaseAll := func() {
		for _, l := range reserved {
			if err := s.stock.Release(ctx, l.product.ID, l.qty); err != nil {
				log.Error().Err(err).Str("product_id", l.product.ID.String()).
					Msg("failed to release reservation during checkout rollback")
			}
		}
	}
	for _, l := range lines {
		if err := s.stock.Reserve(ctx, l.product.ID, l.qty); err != nil {
			releaseAll()
			return nil, err
		}
		reserved = append(reserved, l)
	}

	subtotal := decimal.Zero
	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		subtotal = subtotal.Add(l.product.Price.Mul(decimal.NewFromInt(int64(l.qty))))
		items = append(items, model.OrderItem{
			ProductID: l.product.ID,
			Quantity:  l.qty,
			Price:     l.product.Price,
		})
	}

	order := &model.Order{
		UserID:         userID,
		Status:         string(domain.OrderPending),
		Subtotal:       subtotal,
		ShippingCost:   req.ShippingCost,
		Tax:            req.Tax,
		Total:          subtotal.Add(req.ShippingCost).Add(req.Tax),
		CanBeCancelled: true,
		CustomerEmail:  req.CustomerEmail,
		Items:          items,
	}

	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		number, err := s.orders.NextOrderNumber(tx, time.Now())
		if err != nil {
			return err
		}
		order.OrderNumber = number
		if err := s.orders.CreateTx(tx, order); err != nil {
			return err
		}
		return s.orders.AppendHistoryTx(tx, &model.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: "",
			ToStatus:   string(domain.OrderPending),
			ChangedBy:  actor,
		})
	})
	if txErr != nil {
		releaseAll()
		return nil, txErr
	}

	metrics.OrdersCreated.Inc()
	s.sendLifecycleEmail(ctx, order,
		fmt.Sprintf("Order %s confirmed", order.OrderNumber),
		fmt.Sprintf("Your order %s has been received.\nTotal: $%s", order.OrderNumber, order.Total.StringFixed(2)))

	return s.Get(ctx, order.ID)
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return orderToResponse(order), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, *orderToResponse(&orders[i]))
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return &dto.OrderListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *orderService) History(ctx context.Context, id uuid.UUID) ([]dto.OrderHistoryResponse, error) {
	if _, err := s.orders.FindByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.orders.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderHistoryResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, dto.OrderHistoryResponse{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Reason:     h.Reason,
			ChangedBy:  h.ChangedBy,
			CreatedAt:  h.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

// UpdateStatus applies one forward transition. Cancellation is routed through
// Cancel so its reservation-release side effect cannot be skipped.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, actor string, req dto.UpdateOrderStatusRequest) (*dto.OrderResponse, error) {
	next, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if next == domain.OrderCancelled {
		reason := ""
		if req.Reason != nil {
			reason = *req.Reason
		}
		return s.Cancel(ctx, id, actor, reason)
	}

	var order *model.Order
	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		var innerErr error
		order, innerErr = s.orders.FindByIDForUpdateTx(tx, id)
		if innerErr != nil {
			return innerErr
		}
		current := domain.OrderStatus(order.Status)
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%w: order %s cannot go from %s to %s",
				domain.ErrInvalidTransition, order.OrderNumber, current, next)
		}

		now := time.Now()
		switch next {
		case domain.OrderShipped:
			order.CanBeCancelled = false
			if req.TrackingCode != nil {
				order.TrackingCode = req.TrackingCode
			}
		case domain.OrderDelivered:
			order.ActualDeliveryDate = &now
			order.CanBeReturned = true
		}
		order.Status = string(next)

		if innerErr = s.orders.UpdateTx(tx, order); innerErr != nil {
			return innerErr
		}
		return s.orders.AppendHistoryTx(tx, &model.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: string(current),
			ToStatus:   string(next),
			Reason:     req.Reason,
			ChangedBy:  actor,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	switch next {
	case domain.OrderShipped:
		body := fmt.Sprintf("Your order %s is on its way.", order.OrderNumber)
		if order.TrackingCode != nil {
			body += fmt.Sprintf("\nTracking code: %s", *order.TrackingCode)
		}
		s.sendLifecycleEmail(ctx, order, fmt.Sprintf("Order %s shipped", order.OrderNumber), body)
	case domain.OrderDelivered:
		s.sendLifecycleEmail(ctx, order,
			fmt.Sprintf("Order %s delivered", order.OrderNumber),
			fmt.Sprintf("Your order %s has been delivered.", order.OrderNumber))
	}

	return s.Get(ctx, id)
}

// Cancel aborts a pre-shipment order: the transition table plus the
// CanBeCancelled flag gate it, and every unfulfilled reservation is released
// in the same transaction.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID, actor string, reason string) (*dto.OrderResponse, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation requires a reason", domain.ErrConflict)
	}

	var order *model.Order
	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		var innerErr error
		order, innerErr = s.orders.FindByIDForUpdateTx(tx, id)
		if innerErr != nil {
			return innerErr
		}
		current := domain.OrderStatus(order.Status)
		if !current.CanTransitionTo(domain.OrderCancelled) {
			return fmt.Errorf("%w: order %s cannot be cancelled from %s",
				domain.ErrInvalidTransition, order.OrderNumber, current)
		}
		if !order.CanBeCancelled {
			return fmt.Errorf("%w: order %s is no longer cancellable", domain.ErrConflict, order.OrderNumber)
		}

		for i := range order.Items {
			remaining := order.Items[i].Quantity - order.Items[i].FulfilledQuantity
			if remaining <= 0 {
				continue
			}
			if innerErr = s.products.ReleaseTx(tx, order.Items[i].ProductID, remaining); innerErr != nil {
				return innerErr
			}
		}

		now := time.Now()
		order.Status = string(domain.OrderCancelled)
		order.CanBeCancelled = false
		order.CanBeReturned = false
		order.CancelledAt = &now
		order.CancellationReason = &reason

		if innerErr = s.orders.UpdateTx(tx, order); innerErr != nil {
			return innerErr
		}
		return s.orders.AppendHistoryTx(tx, &model.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: string(current),
			ToStatus:   string(domain.OrderCancelled),
			Reason:     &reason,
			ChangedBy:  actor,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.sendLifecycleEmail(ctx, order,
		fmt.Sprintf("Order %s cancelled", order.OrderNumber),
		fmt.Sprintf("Your order %s was cancelled.\nReason: %s", order.OrderNumber, reason))

	return s.Get(ctx, id)
}

// Fulfill converts every remaining reservation of a processing order into a
// SALE movement. The movements, the item fulfillment counters and the stock
// decrements commit or roll back as one unit.
func (s *orderService) Fulfill(ctx context.Context, id uuid.UUID, actor string) (*dto.OrderResponse, error) {
	var touched []uuid.UUID
	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := s.orders.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		if domain.OrderStatus(order.Status) != domain.OrderProcessing {
			return fmt.Errorf("%w: order %s must be processing to fulfill, is %s",
				domain.ErrConflict, order.OrderNumber, order.Status)
		}

		for i := range order.Items {
			item := &order.Items[i]
			remaining := item.Quantity - item.FulfilledQuantity
			if remaining <= 0 {
				continue
			}
			_, err = s.stock.RecordMovementTx(ctx, tx, MovementParams{
				ProductID:       item.ProductID,
				Type:            domain.MovementSale,
				Quantity:        remaining,
				Reason:          "order fulfillment",
				ReferenceNumber: &order.OrderNumber,
				CreatedBy:       actor,
				ReleaseReserved: true,
			})
			if err != nil {
				return err
			}
			item.FulfilledQuantity = item.Quantity
			if err = s.orders.UpdateItemTx(tx, item); err != nil {
				return err
			}
			touched = append(touched, item.ProductID)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.alerts != nil {
		for _, pid := range touched {
			if err := s.alerts.Evaluate(ctx, pid); err != nil {
				log.Error().Err(err).Str("product_id", pid.String()).
					Msg("alert evaluation failed after fulfillment")
			}
		}
	}

	return s.Get(ctx, id)
}

// Invoice renders the order as a PDF and returns the file path.
func (s *orderService) Invoice(ctx context.Context, id uuid.UUID) (string, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return infra.GenerateInvoicePDF(order, s.pdfPath)
}

func (s *orderService) MarkReturnedTx(tx *gorm.DB, orderID uuid.UUID, actor string) error {
	return s.transitionTx(tx, orderID, domain.OrderReturned, actor, func(o *model.Order) {})
}

func (s *orderService) MarkRefundedTx(tx *gorm.DB, orderID uuid.UUID, actor string, amount decimal.Decimal) error {
	return s.transitionTx(tx, orderID, domain.OrderRefunded, actor, func(o *model.Order) {
		now := time.Now()
		o.RefundAmount = &amount
		o.RefundedAt = &now
	})
}

func (s *orderService) transitionTx(tx *gorm.DB, orderID uuid.UUID, next domain.OrderStatus, actor string, mutate func(*model.Order)) error {
	order, err := s.orders.FindByIDForUpdateTx(tx, orderID)
	if err != nil {
		return err
	}
	current := domain.OrderStatus(order.Status)
	if !current.CanTransitionTo(next) {
		return fmt.Errorf("%w: order %s cannot go from %s to %s",
			domain.ErrInvalidTransition, order.OrderNumber, current, next)
	}
	order.Status = string(next)
	mutate(order)
	if err := s.orders.UpdateTx(tx, order); err != nil {
		return err
	}
	return s.orders.AppendHistoryTx(tx, &model.OrderStatusHistory{
		OrderID:    order.ID,
		FromStatus: string(current),
		ToStatus:   string(next),
		ChangedBy:  actor,
	})
}

// sendLifecycleEmail enqueues asynchronously; a full queue never fails the
// order mutation.
func (s *orderService) sendLifecycleEmail(ctx context.Context, order *model.Order, subject, body string) {
	if s.dispatcher == nil || order.CustomerEmail == nil || *order.CustomerEmail == "" {
		return
	}
	err := s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: *order.CustomerEmail,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		log.Error().Err(err).Str("order", order.OrderNumber).Msg("failed to enqueue lifecycle email")
	}
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:             o.ID.String(),
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID.String(),
		Status:         o.Status,
		Subtotal:       o.Subtotal,
		ShippingCost:   o.ShippingCost,
		Tax:            o.Tax,
		Total:          o.Total,
		CanBeCancelled: o.CanBeCancelled,
		CanBeReturned:  o.CanBeReturned,
		TrackingCode:   o.TrackingCode,
		RefundAmount:   o.RefundAmount,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
	if o.ActualDeliveryDate != nil {
		v := o.ActualDeliveryDate.Format(time.RFC3339)
		resp.ActualDeliveryDate = &v
	}
	if o.CancelledAt != nil {
		v := o.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &v
	}
	resp.Items = make([]dto.OrderItemResponse, 0, len(o.Items))
	for i := range o.Items {
		item := dto.OrderItemResponse{
			ID:                o.Items[i].ID.String(),
			ProductID:         o.Items[i].ProductID.String(),
			Quantity:          o.Items[i].Quantity,
			Price:             o.Items[i].Price,
			FulfilledQuantity: o.Items[i].FulfilledQuantity,
		}
		if o.Items[i].Product != nil {
			item.ProductName = o.Items[i].Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
