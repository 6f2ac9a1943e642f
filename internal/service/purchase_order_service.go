package service

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrderService owns the replenishment workflow: manual purchase
// orders go through pending → approved → sent, receiving reconciles supplier
// deliveries into PURCHASE movements, and the restock sweep drafts orders for
// auto-restock products at or below their reorder point.
type PurchaseOrderService interface {
	Create(ctx context.Context, actor string, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseOrderResponse, error)
	List(ctx context.Context, filter dto.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error)

	Submit(ctx context.Context, id uuid.UUID, actor string) (*dto.PurchaseOrderResponse, error)
	Approve(ctx context.Context, id uuid.UUID, actor string) (*dto.PurchaseOrderResponse, error)
	Send(ctx context.Context, id uuid.UUID, actor string) (*dto.PurchaseOrderResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, actor string, reason string) (*dto.PurchaseOrderResponse, error)

	// Receive reconciles one supplier delivery line by line; over-receipt on
	// any line rejects the whole delivery.
	Receive(ctx context.Context, id uuid.UUID, actor string, req dto.ReceivePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error)

	// RunRestockSweep drafts one purchase order per supplier covering every
	// auto-restock product at or below its reorder point that no open PO
	// already covers. Returns the number of orders created.
	RunRestockSweep(ctx context.Context) (int, error)
}

type purchaseOrderService struct {
	purchaseOrders repository.PurchaseOrderRepository
	suppliers      repository.SupplierRepository
	products       repository.ProductRepository
	stock          StockService
	alerts         AlertEvaluator
}

func NewPurchaseOrderService(
	purchaseOrders repository.PurchaseOrderRepository,
	suppliers repository.SupplierRepository,
	products repository.ProductRepository,
	stock StockService,
	alerts AlertEvaluator,
) PurchaseOrderService {
	return &purchaseOrderService{
		purchaseOrders: purchaseOrders,
		suppliers:      suppliers,
		products:       products,
		stock:          stock,
		alerts:         alerts,
	}
}

// Create builds a manual purchase order in pending status. The sweep is the
// only path that creates drafts.
func (s *purchaseOrderService) Create(ctx context.Context, actor string, req dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier_id: %w", err)
	}
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if !supplier.Active {
		return nil, fmt.Errorf("%w: supplier %s is inactive", domain.ErrConflict, supplier.Name)
	}

	total := decimal.Zero
	items := make([]model.PurchaseOrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id %q: %w", line.ProductID, err)
		}
		if _, err := s.products.FindByID(ctx, pid); err != nil {
			return nil, err
		}
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, model.PurchaseOrderItem{
			ProductID: pid,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	var expected *time.Time
	if req.ExpectedDate != nil {
		t, err := time.Parse("2006-01-02", *req.ExpectedDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expected_date: %w", err)
		}
		expected = &t
	}

	po := &model.PurchaseOrder{
		SupplierID:   supplierID,
		Status:       string(domain.POPending),
		TotalAmount:  total,
		ExpectedDate: expected,
		CreatedBy:    actor,
		Items:        items,
	}

	txErr := runTx(ctx, s.purchaseOrders.DB(), func(tx *gorm.DB) error {
		number, err := s.purchaseOrders.NextOrderNumber(tx, time.Now())
		if err != nil {
			return err
		}
		po.OrderNumber = number
		return s.purchaseOrders.CreateTx(tx, po)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, po.ID)
}

func (s *purchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseOrderResponse, error) {
	po, err := s.purchaseOrders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return purchaseOrderToResponse(po), nil
}

func (s *purchaseOrderService) List(ctx context.Context, filter dto.PurchaseOrderFilter) (*dto.PurchaseOrderListResponse, error) {
	pos, total, err := s.purchaseOrders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.PurchaseOrderResponse, 0, len(pos))
	for i := range pos {
		data = append(data, *purchaseOrderToResponse(&pos[i]))
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return &dto.PurchaseOrderListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *purchaseOrderService) Submit(ctx context.Context, id uuid.UUID, actor string) (*dto.PurchaseOrderResponse, error) {
	return s.transition(ctx, id, domain.POPending, func(po *model.PurchaseOrder) {})
}

func (s *purchaseOrderService) Approve(ctx context.Context, id uuid.UUID, actor string) (*dto.PurchaseOrderResponse, error) {
	return s.transition(ctx, id, domain.POApproved, func(po *model.PurchaseOrder) {})
}

func (s *purchaseOrderService) Send(ctx context.Context, id uuid.UUID, actor string) (*dto.PurchaseOrderResponse, error) {
	return s.transition(ctx, id, domain.POSent, func(po *model.PurchaseOrder) {})
}

func (s *purchaseOrderService) Cancel(ctx context.Context, id uuid.UUID, actor string, reason string) (*dto.PurchaseOrderResponse, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation requires a reason", domain.ErrConflict)
	}
	return s.transition(ctx, id, domain.POCancelled, func(po *model.PurchaseOrder) {
		po.CancelReason = &reason
	})
}

func (s *purchaseOrderService) transition(ctx context.Context, id uuid.UUID, next domain.POStatus, mutate func(*model.PurchaseOrder)) (*dto.PurchaseOrderResponse, error) {
	txErr := runTx(ctx, s.purchaseOrders.DB(), func(tx *gorm.DB) error {
		po, err := s.purchaseOrders.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		current := domain.POStatus(po.Status)
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%w: purchase order %s cannot go from %s to %s",
				domain.ErrInvalidTransition, po.OrderNumber, current, next)
		}
		po.Status = string(next)
		mutate(po)
		return s.purchaseOrders.UpdateTx(tx, po)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, id)
}

// Receive validates every line against its remaining quantity before applying
// any of them, then records one PURCHASE movement per line. The status flips
// to received only when every item is fully received.
func (s *purchaseOrderService) Receive(ctx context.Context, id uuid.UUID, actor string, req dto.ReceivePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	var touched []uuid.UUID
	txErr := runTx(ctx, s.purchaseOrders.DB(), func(tx *gorm.DB) error {
		po, err := s.purchaseOrders.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		current := domain.POStatus(po.Status)
		if current != domain.POSent && current != domain.POPartiallyReceived {
			return fmt.Errorf("%w: purchase order %s must be sent to receive against, is %s",
				domain.ErrConflict, po.OrderNumber, current)
		}

		itemsByID := make(map[uuid.UUID]*model.PurchaseOrderItem, len(po.Items))
		for i := range po.Items {
			itemsByID[po.Items[i].ID] = &po.Items[i]
		}

		type receipt struct {
			item *model.PurchaseOrderItem
			qty  int
		}
		receipts := make([]receipt, 0, len(req.Items))
		claimed := make(map[uuid.UUID]int, len(req.Items))
		for _, line := range req.Items {
			itemID, err := uuid.Parse(line.ItemID)
			if err != nil {
				return fmt.Errorf("invalid item_id %q: %w", line.ItemID, err)
			}
			item, ok := itemsByID[itemID]
			if !ok {
				return fmt.Errorf("%w: item %s does not belong to purchase order %s",
					domain.ErrNotFound, itemID, po.OrderNumber)
			}
			// Cumulative per item, so duplicate lines in one delivery cannot
			// each validate against the same pre-receipt remainder.
			claimed[itemID] += line.Quantity
			if claimed[itemID] > item.RemainingQuantity() {
				return fmt.Errorf("%w: item %s has %d remaining, delivery claims %d",
					domain.ErrOverReceipt, itemID, item.RemainingQuantity(), claimed[itemID])
			}
			receipts = append(receipts, receipt{item: item, qty: line.Quantity})
		}

		for _, rc := range receipts {
			unitCost := rc.item.UnitPrice
			_, err = s.stock.RecordMovementTx(ctx, tx, MovementParams{
				ProductID:       rc.item.ProductID,
				Type:            domain.MovementPurchase,
				Quantity:        rc.qty,
				Reason:          "purchase order receipt",
				UnitCost:        &unitCost,
				ReferenceNumber: &po.OrderNumber,
				CreatedBy:       actor,
			})
			if err != nil {
				return err
			}
			rc.item.ReceivedQuantity += rc.qty
			if err = s.purchaseOrders.UpdateItemTx(tx, rc.item); err != nil {
				return err
			}
			touched = append(touched, rc.item.ProductID)
		}

		complete := true
		for i := range po.Items {
			if po.Items[i].RemainingQuantity() > 0 {
				complete = false
				break
			}
		}
		if complete {
			now := time.Now()
			po.Status = string(domain.POReceived)
			po.ReceivedAt = &now
		} else {
			po.Status = string(domain.POPartiallyReceived)
		}
		return s.purchaseOrders.UpdateTx(tx, po)
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.alerts != nil {
		for _, pid := range touched {
			if err := s.alerts.Evaluate(ctx, pid); err != nil {
				log.Error().Err(err).Str("product_id", pid.String()).
					Msg("alert evaluation failed after receipt")
			}
		}
	}

	return s.Get(ctx, id)
}

// RunRestockSweep groups eligible products by supplier and drafts one
// purchase order per group. A product already covered by an open PO for the
// same supplier is skipped, so repeated sweeps cannot pile up duplicates.
func (s *purchaseOrderService) RunRestockSweep(ctx context.Context) (int, error) {
	products, err := s.products.ListBelowReorderPoint(ctx)
	if err != nil {
		return 0, err
	}

	bySupplier := make(map[uuid.UUID][]model.Product)
	for _, p := range products {
		if p.SupplierID == nil || p.ReorderQuantity <= 0 {
			continue
		}
		covered, err := s.purchaseOrders.HasOpenForProduct(ctx, p.ID, *p.SupplierID)
		if err != nil {
			return 0, err
		}
		if covered {
			continue
		}
		bySupplier[*p.SupplierID] = append(bySupplier[*p.SupplierID], p)
	}

	created := 0
	for supplierID, group := range bySupplier {
		total := decimal.Zero
		items := make([]model.PurchaseOrderItem, 0, len(group))
		for _, p := range group {
			total = total.Add(p.Cost.Mul(decimal.NewFromInt(int64(p.ReorderQuantity))))
			items = append(items, model.PurchaseOrderItem{
				ProductID: p.ID,
				Quantity:  p.ReorderQuantity,
				UnitPrice: p.Cost,
			})
		}
		po := &model.PurchaseOrder{
			SupplierID:  supplierID,
			Status:      string(domain.PODraft),
			TotalAmount: total,
			CreatedBy:   "system",
			Items:       items,
		}
		txErr := runTx(ctx, s.purchaseOrders.DB(), func(tx *gorm.DB) error {
			number, err := s.purchaseOrders.NextOrderNumber(tx, time.Now())
			if err != nil {
				return err
			}
			po.OrderNumber = number
			return s.purchaseOrders.CreateTx(tx, po)
		})
		if txErr != nil {
			log.Error().Err(txErr).Str("supplier_id", supplierID.String()).
				Msg("restock sweep: failed to create draft purchase order")
			continue
		}
		created++
		log.Info().Str("order_number", po.OrderNumber).Int("items", len(items)).
			Msg("restock sweep: draft purchase order created")
	}
	return created, nil
}

func purchaseOrderToResponse(po *model.PurchaseOrder) *dto.PurchaseOrderResponse {
	resp := &dto.PurchaseOrderResponse{
		ID:          po.ID.String(),
		OrderNumber: po.OrderNumber,
		SupplierID:  po.SupplierID.String(),
		Status:      po.Status,
		TotalAmount: po.TotalAmount,
		CreatedAt:   po.CreatedAt.Format(time.RFC3339),
	}
	if po.Supplier != nil {
		resp.SupplierName = po.Supplier.Name
	}
	resp.Items = make([]dto.PurchaseOrderItemResponse, 0, len(po.Items))
	for i := range po.Items {
		item := dto.PurchaseOrderItemResponse{
			ID:               po.Items[i].ID.String(),
			ProductID:        po.Items[i].ProductID.String(),
			Quantity:         po.Items[i].Quantity,
			ReceivedQuantity: po.Items[i].ReceivedQuantity,
			UnitPrice:        po.Items[i].UnitPrice,
		}
		if po.Items[i].Product != nil {
			item.ProductName = po.Items[i].Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
