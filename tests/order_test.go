package tests

import (
	"context"
	"os"
	"regexp"
	"testing"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc       service.OrderService
	stock     service.StockService
	products  *stubProductRepo
	orders    *stubOrderRepo
	movements *stubMovementRepo
}

func newOrderFixture() *orderFixture {
	products := newStubProductRepo()
	movements := newStubMovementRepo()
	stock := service.NewStockService(products, movements, nil)
	orders := newStubOrderRepo()
	return &orderFixture{
		svc:       service.NewOrderService(orders, products, stock, nil, nil, os.TempDir()),
		stock:     stock,
		products:  products,
		orders:    orders,
		movements: movements,
	}
}

func (f *orderFixture) seedProduct(sku string, price int64, stock int) *model.Product {
	return f.products.add(&model.Product{
		SKU:    sku,
		Name:   "Product " + sku,
		Price:  decimal.NewFromInt(price),
		Stock:  stock,
		Active: true,
	})
}

func (f *orderFixture) createOrder(t *testing.T, req dto.CreateOrderRequest) *dto.OrderResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), uuid.New(), "tester", req)
	require.NoError(t, err)
	return resp
}

func lineItems(products ...*model.Product) []dto.CreateOrderItemRequest {
	items := make([]dto.CreateOrderItemRequest, 0, len(products))
	for _, p := range products {
		items = append(items, dto.CreateOrderItemRequest{ProductID: p.ID.String(), Quantity: 2})
	}
	return items
}

func TestCreateOrderTotalsAndReservations(t *testing.T) {
	f := newOrderFixture()
	a := f.seedProduct("A", 100, 10)
	b := f.seedProduct("B", 25, 10)

	resp := f.createOrder(t, dto.CreateOrderRequest{
		Items:        lineItems(a, b), // 2×100 + 2×25
		ShippingCost: decimal.NewFromInt(10),
		Tax:          decimal.NewFromInt(5),
	})

	assert.True(t, decimal.NewFromInt(250).Equal(resp.Subtotal))
	assert.True(t, decimal.NewFromInt(265).Equal(resp.Total))
	assert.Equal(t, string(domain.OrderPending), resp.Status)
	assert.True(t, resp.CanBeCancelled)
	assert.False(t, resp.CanBeReturned)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-\d{4}$`), resp.OrderNumber)

	// Checkout holds stock but never moves it.
	for _, p := range []*model.Product{a, b} {
		stored, _ := f.products.FindByID(context.Background(), p.ID)
		assert.Equal(t, 10, stored.Stock)
		assert.Equal(t, 2, stored.ReservedStock)
	}
	_, total, _ := f.movements.List(context.Background(), listAllMovements())
	assert.Equal(t, int64(0), total)

	// Creation leaves one audit row: "" → pending.
	history, err := f.svc.History(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "", history[0].FromStatus)
	assert.Equal(t, string(domain.OrderPending), history[0].ToStatus)
}

func TestCreateOrderReleasesHoldsWhenALineFails(t *testing.T) {
	f := newOrderFixture()
	a := f.seedProduct("A", 100, 10)
	b := f.seedProduct("B", 25, 1) // cannot cover quantity 2

	_, err := f.svc.Create(context.Background(), uuid.New(), "tester", dto.CreateOrderRequest{
		Items: lineItems(a, b),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientAvailableStock)

	// The hold taken on A before B failed must be compensated.
	stored, _ := f.products.FindByID(context.Background(), a.ID)
	assert.Equal(t, 0, stored.ReservedStock)
}

func TestCreateOrderRejectsInactiveProduct(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)
	p.Active = false

	_, err := f.svc.Create(context.Background(), uuid.New(), "tester", dto.CreateOrderRequest{
		Items: lineItems(p),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOrderPriceSnapshotIsImmutable(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)

	resp := f.createOrder(t, dto.CreateOrderRequest{Items: lineItems(p)})

	// A later price change must not leak into the existing order.
	live, _ := f.products.FindByID(context.Background(), p.ID)
	live.Price = decimal.NewFromInt(999)
	require.NoError(t, f.products.Update(context.Background(), live))

	reread, err := f.svc.Get(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	require.Len(t, reread.Items, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(reread.Items[0].Price))
	assert.True(t, decimal.NewFromInt(200).Equal(reread.Subtotal))
}

func TestOrderStatusTransitions(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)
	resp := f.createOrder(t, dto.CreateOrderRequest{Items: lineItems(p)})
	id := uuid.MustParse(resp.ID)
	ctx := context.Background()

	resp, err := f.svc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{
		Status: string(domain.OrderProcessing),
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderProcessing), resp.Status)

	tracking := "TRACK-42"
	resp, err = f.svc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{
		Status:       string(domain.OrderShipped),
		TrackingCode: &tracking,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderShipped), resp.Status)
	assert.False(t, resp.CanBeCancelled)
	require.NotNil(t, resp.TrackingCode)
	assert.Equal(t, tracking, *resp.TrackingCode)

	resp, err = f.svc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{
		Status: string(domain.OrderDelivered),
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderDelivered), resp.Status)
	assert.True(t, resp.CanBeReturned)
	assert.NotNil(t, resp.ActualDeliveryDate)

	history, err := f.svc.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 4) // create + 3 transitions
}

func TestOrderRejectsSkippedTransition(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)
	resp := f.createOrder(t, dto.CreateOrderRequest{Items: lineItems(p)})

	// pending → delivered skips processing and shipped.
	_, err := f.svc.UpdateStatus(context.Background(), uuid.MustParse(resp.ID), "tester",
		dto.UpdateOrderStatusRequest{Status: string(domain.OrderDelivered)})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelReleasesReservations(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)
	resp := f.createOrder(t, dto.CreateOrderRequest{Items: lineItems(p)})
	ctx := context.Background()

	cancelled, err := f.svc.Cancel(ctx, uuid.MustParse(resp.ID), "tester", "customer changed mind")
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderCancelled), cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.False(t, cancelled.CanBeCancelled)
	assert.False(t, cancelled.CanBeReturned)

	stored, _ := f.products.FindByID(ctx, p.ID)
	assert.Equal(t, 0, stored.ReservedStock)
	assert.Equal(t, 10, stored.Stock)
}

func TestCancelRequiresReason(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)
	resp := f.createOrder(t, dto.CreateOrderRequest{Items: lineItems(p)})

	_, err := f.svc.Cancel(context.Background(), uuid.MustParse(resp.ID), "tester", "")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancelRejectedAfterShipping(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)
	resp := f.createOrder(t, dto.CreateOrderRequest{Items: lineItems(p)})
	id := uuid.MustParse(resp.ID)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{Status: string(domain.OrderProcessing)})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{Status: string(domain.OrderShipped)})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, id, "tester", "too late")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestFulfillConvertsReservationsIntoSales(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)
	resp := f.createOrder(t, dto.CreateOrderRequest{Items: lineItems(p)})
	id := uuid.MustParse(resp.ID)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{Status: string(domain.OrderProcessing)})
	require.NoError(t, err)

	fulfilled, err := f.svc.Fulfill(ctx, id, "picker")
	require.NoError(t, err)
	require.Len(t, fulfilled.Items, 1)
	assert.Equal(t, 2, fulfilled.Items[0].FulfilledQuantity)

	stored, _ := f.products.FindByID(ctx, p.ID)
	assert.Equal(t, 8, stored.Stock)
	assert.Equal(t, 0, stored.ReservedStock)

	rows, total, _ := f.movements.List(ctx, listAllMovements())
	require.Equal(t, int64(1), total)
	assert.Equal(t, string(domain.MovementSale), rows[0].Type)
	require.NotNil(t, rows[0].ReferenceNumber)
	assert.Equal(t, resp.OrderNumber, *rows[0].ReferenceNumber)
}

func TestFulfillRequiresProcessingStatus(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)
	resp := f.createOrder(t, dto.CreateOrderRequest{Items: lineItems(p)})

	_, err := f.svc.Fulfill(context.Background(), uuid.MustParse(resp.ID), "picker")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestFulfillIsIdempotentPerItem(t *testing.T) {
	f := newOrderFixture()
	p := f.seedProduct("A", 100, 10)
	resp := f.createOrder(t, dto.CreateOrderRequest{Items: lineItems(p)})
	id := uuid.MustParse(resp.ID)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{Status: string(domain.OrderProcessing)})
	require.NoError(t, err)
	_, err = f.svc.Fulfill(ctx, id, "picker")
	require.NoError(t, err)

	// A second fulfillment finds no remaining quantity and moves nothing.
	_, err = f.svc.Fulfill(ctx, id, "picker")
	require.NoError(t, err)

	stored, _ := f.products.FindByID(ctx, p.ID)
	assert.Equal(t, 8, stored.Stock)
	_, total, _ := f.movements.List(ctx, listAllMovements())
	assert.Equal(t, int64(1), total)
}

func TestInvoiceRendersPDF(t *testing.T) {
	products := newStubProductRepo()
	movements := newStubMovementRepo()
	stock := service.NewStockService(products, movements, nil)
	orders := newStubOrderRepo()
	svc := service.NewOrderService(orders, products, stock, nil, nil, t.TempDir())

	p := products.add(&model.Product{
		SKU: "A", Name: "Product A", Price: decimal.NewFromInt(100), Stock: 10, Active: true,
	})
	resp, err := svc.Create(context.Background(), uuid.New(), "tester", dto.CreateOrderRequest{
		Items: lineItems(p),
	})
	require.NoError(t, err)

	path, err := svc.Invoice(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
