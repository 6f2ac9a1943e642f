package tests

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// In-memory repository stubs shared by the service unit tests. They return
// copies from Find methods so services observe snapshot semantics, the same
// way a row loaded from Postgres is detached from later writes.

// ── ProductRepository stub ───────────────────────────────────────────────────

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) add(p *model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(p)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SKU == sku && p.Active {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

// UpdateStockTx interprets the same field map the GORM implementation writes:
// plain ints plus the guarded reserved_stock / total_sold expressions.
func (r *stubProductRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if v, ok := fields["stock"].(int); ok {
		p.Stock = v
	}
	if expr, ok := fields["reserved_stock"].(clause.Expr); ok {
		if qty, ok := expr.Vars[0].(int); ok {
			p.ReservedStock -= qty
			if p.ReservedStock < 0 {
				p.ReservedStock = 0
			}
		}
	}
	if expr, ok := fields["total_sold"].(clause.Expr); ok {
		if qty, ok := expr.Vars[0].(int); ok {
			p.TotalSold += qty
		}
	}
	if v, ok := fields["last_sold_at"].(time.Time); ok {
		p.LastSoldAt = &v
	}
	if v, ok := fields["last_restock_at"].(time.Time); ok {
		p.LastRestockAt = &v
	}
	return nil
}

func (r *stubProductRepo) TryReserve(_ context.Context, id uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || !p.Active {
		return false, nil
	}
	if p.Stock-p.ReservedStock < qty {
		return false, nil
	}
	p.ReservedStock += qty
	return true, nil
}

func (r *stubProductRepo) Release(_ context.Context, id uuid.UUID, qty int) error {
	return r.ReleaseTx(nil, id, qty)
}

func (r *stubProductRepo) ReleaseTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.ReservedStock -= qty
	if p.ReservedStock < 0 {
		p.ReservedStock = 0
	}
	return nil
}

func (r *stubProductRepo) ListAlertable(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.Active && (p.AlertsEnabled || p.TrackExpiration) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) ListBelowReorderPoint(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.Active && p.AutoRestock && p.SupplierID != nil && p.Stock-p.ReservedStock <= p.ReorderPoint {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── StockMovementRepository stub ─────────────────────────────────────────────

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
}

func newStubMovementRepo() *stubMovementRepo { return &stubMovementRepo{} }

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── AlertRepository stub ─────────────────────────────────────────────────────

type stubAlertRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]*model.InventoryAlert
}

func newStubAlertRepo() *stubAlertRepo {
	return &stubAlertRepo{alerts: make(map[uuid.UUID]*model.InventoryAlert)}
}

func (r *stubAlertRepo) Create(_ context.Context, a *model.InventoryAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	cp := *a
	r.alerts[a.ID] = &cp
	return nil
}

func (r *stubAlertRepo) Update(_ context.Context, a *model.InventoryAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.alerts[a.ID] = &cp
	return nil
}

func (r *stubAlertRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stubAlertRepo) FindActive(_ context.Context, productID uuid.UUID, alertType string) (*model.InventoryAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.ProductID == productID && a.Type == alertType && a.Status == string(domain.AlertActive) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubAlertRepo) ListActive(_ context.Context) ([]model.InventoryAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryAlert
	for _, a := range r.alerts {
		if a.Status == string(domain.AlertActive) {
			out = append(out, *a)
		}
	}
	return out, nil
}

var _ repository.AlertRepository = (*stubAlertRepo)(nil)

// ── OrderRepository stub ─────────────────────────────────────────────────────

type stubOrderRepo struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*model.Order
	history []model.OrderStatusHistory
	seq     int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func copyOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = make([]model.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}

func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	r.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *stubOrderRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubOrderRepo) List(_ context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if filter.Status != "" && filter.Status != "all" && o.Status != filter.Status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) UpdateTx(_ *gorm.DB, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if !ok {
		return domain.ErrNotFound
	}
	items := stored.Items
	r.orders[o.ID] = copyOrder(o)
	if len(o.Items) == 0 {
		r.orders[o.ID].Items = items
	}
	return nil
}

func (r *stubOrderRepo) UpdateItemTx(_ *gorm.DB, item *model.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[item.OrderID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range o.Items {
		if o.Items[i].ID == item.ID {
			o.Items[i] = *item
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *stubOrderRepo) AppendHistoryTx(_ *gorm.DB, h *model.OrderStatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	h.CreatedAt = time.Now()
	r.history = append(r.history, *h)
	return nil
}

func (r *stubOrderRepo) ListHistory(_ context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrderStatusHistory
	for _, h := range r.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *stubOrderRepo) NextOrderNumber(_ *gorm.DB, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), r.seq), nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// ── PurchaseOrderRepository stub ─────────────────────────────────────────────

type stubPurchaseOrderRepo struct {
	mu  sync.Mutex
	pos map[uuid.UUID]*model.PurchaseOrder
	seq int
}

func newStubPurchaseOrderRepo() *stubPurchaseOrderRepo {
	return &stubPurchaseOrderRepo{pos: make(map[uuid.UUID]*model.PurchaseOrder)}
}

func copyPO(po *model.PurchaseOrder) *model.PurchaseOrder {
	cp := *po
	cp.Items = make([]model.PurchaseOrderItem, len(po.Items))
	copy(cp.Items, po.Items)
	return &cp
}

func (r *stubPurchaseOrderRepo) CreateTx(_ *gorm.DB, po *model.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	po.CreatedAt = time.Now()
	for i := range po.Items {
		if po.Items[i].ID == uuid.Nil {
			po.Items[i].ID = uuid.New()
		}
		po.Items[i].PurchaseOrderID = po.ID
	}
	r.pos[po.ID] = copyPO(po)
	return nil
}

func (r *stubPurchaseOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	po, ok := r.pos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyPO(po), nil
}

func (r *stubPurchaseOrderRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPurchaseOrderRepo) List(_ context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PurchaseOrder
	for _, po := range r.pos {
		if filter.Status != "" && filter.Status != "all" && po.Status != filter.Status {
			continue
		}
		out = append(out, *copyPO(po))
	}
	return out, int64(len(out)), nil
}

func (r *stubPurchaseOrderRepo) UpdateTx(_ *gorm.DB, po *model.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.pos[po.ID]
	if !ok {
		return domain.ErrNotFound
	}
	items := stored.Items
	r.pos[po.ID] = copyPO(po)
	if len(po.Items) == 0 {
		r.pos[po.ID].Items = items
	}
	return nil
}

func (r *stubPurchaseOrderRepo) UpdateItemTx(_ *gorm.DB, item *model.PurchaseOrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	po, ok := r.pos[item.PurchaseOrderID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range po.Items {
		if po.Items[i].ID == item.ID {
			po.Items[i] = *item
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *stubPurchaseOrderRepo) HasOpenForProduct(_ context.Context, productID, supplierID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, po := range r.pos {
		if po.SupplierID != supplierID {
			continue
		}
		if po.Status == string(domain.POReceived) || po.Status == string(domain.POCancelled) {
			continue
		}
		for _, item := range po.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *stubPurchaseOrderRepo) NextOrderNumber(_ *gorm.DB, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("PO-%s-%04d", now.Format("20060102"), r.seq), nil
}

func (r *stubPurchaseOrderRepo) DB() *gorm.DB { return nil }

var _ repository.PurchaseOrderRepository = (*stubPurchaseOrderRepo)(nil)

// ── ReturnRepository stub ────────────────────────────────────────────────────

type stubReturnRepo struct {
	mu      sync.Mutex
	returns map[uuid.UUID]*model.Return
}

func newStubReturnRepo() *stubReturnRepo {
	return &stubReturnRepo{returns: make(map[uuid.UUID]*model.Return)}
}

func copyReturn(ret *model.Return) *model.Return {
	cp := *ret
	cp.Items = make([]model.ReturnItem, len(ret.Items))
	copy(cp.Items, ret.Items)
	return &cp
}

func (r *stubReturnRepo) CreateTx(_ *gorm.DB, ret *model.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	ret.CreatedAt = time.Now()
	for i := range ret.Items {
		if ret.Items[i].ID == uuid.Nil {
			ret.Items[i].ID = uuid.New()
		}
		ret.Items[i].ReturnID = ret.ID
	}
	r.returns[ret.ID] = copyReturn(ret)
	return nil
}

func (r *stubReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Return, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret, ok := r.returns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyReturn(ret), nil
}

func (r *stubReturnRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Return, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubReturnRepo) List(_ context.Context, filter dto.ReturnFilter) ([]model.Return, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Return
	for _, ret := range r.returns {
		if filter.Status != "" && filter.Status != "all" && ret.Status != filter.Status {
			continue
		}
		out = append(out, *copyReturn(ret))
	}
	return out, int64(len(out)), nil
}

func (r *stubReturnRepo) UpdateTx(_ *gorm.DB, ret *model.Return) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.returns[ret.ID]
	if !ok {
		return domain.ErrNotFound
	}
	items := stored.Items
	r.returns[ret.ID] = copyReturn(ret)
	if len(ret.Items) == 0 {
		r.returns[ret.ID].Items = items
	}
	return nil
}

func (r *stubReturnRepo) DB() *gorm.DB { return nil }

var _ repository.ReturnRepository = (*stubReturnRepo)(nil)

// ── SupplierRepository stub ──────────────────────────────────────────────────

type stubSupplierRepo struct {
	mu        sync.Mutex
	suppliers map[uuid.UUID]*model.Supplier
}

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (r *stubSupplierRepo) add(s *model.Supplier) *model.Supplier {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.suppliers[s.ID] = s
	return s
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(s)
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSupplierRepo) ListActive(_ context.Context) ([]model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Supplier
	for _, s := range r.suppliers {
		if s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSupplierRepo) Update(_ context.Context, s *model.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.suppliers[s.ID] = &cp
	return nil
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)
