package tests

import (
	"context"
	"os"
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

type returnFixture struct {
	svc       service.ReturnService
	orderSvc  service.OrderService
	returns   *stubReturnRepo
	orders    *stubOrderRepo
	products  *stubProductRepo
	movements *stubMovementRepo
}

func newReturnFixture() *returnFixture {
	products := newStubProductRepo()
	movements := newStubMovementRepo()
	stock := service.NewStockService(products, movements, nil)
	orders := newStubOrderRepo()
	returns := newStubReturnRepo()
	orderSvc := service.NewOrderService(orders, products, stock, nil, nil, os.TempDir())
	return &returnFixture{
		svc:       service.NewReturnService(returns, orders, orderSvc, stock, nil, nil),
		orderSvc:  orderSvc,
		returns:   returns,
		orders:    orders,
		products:  products,
		movements: movements,
	}
}

// deliveredOrder walks one order through checkout, fulfillment and delivery so
// returns can be opened against it. Stock ends up decremented by the sale.
func (f *returnFixture) deliveredOrder(t *testing.T) *dto.OrderResponse {
	t.Helper()
	ctx := context.Background()
	p := f.products.add(&model.Product{
		SKU: "RET-1", Name: "Returnable", Price: decimal.NewFromInt(40), Stock: 10, Active: true,
	})
	resp, err := f.orderSvc.Create(ctx, uuid.New(), "tester", dto.CreateOrderRequest{
		Items: []dto.CreateOrderItemRequest{{ProductID: p.ID.String(), Quantity: 3}},
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.orderSvc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{Status: string(domain.OrderProcessing)})
	require.NoError(t, err)
	_, err = f.orderSvc.Fulfill(ctx, id, "picker")
	require.NoError(t, err)
	_, err = f.orderSvc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{Status: string(domain.OrderShipped)})
	require.NoError(t, err)
	resp, err = f.orderSvc.UpdateStatus(ctx, id, "tester", dto.UpdateOrderStatusRequest{Status: string(domain.OrderDelivered)})
	require.NoError(t, err)
	return resp
}

func (f *returnFixture) openReturn(t *testing.T, order *dto.OrderResponse, qty int) *dto.ReturnResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), "tester", dto.CreateReturnRequest{
		OrderID: order.ID,
		Reason:  "damaged in transit",
		Items: []dto.CreateReturnItemRequest{
			{OrderItemID: order.Items[0].ID, Quantity: qty},
		},
	})
	require.NoError(t, err)
	return resp
}

func TestCreateReturnComputesRefundFromSnapshot(t *testing.T) {
	f := newReturnFixture()
	order := f.deliveredOrder(t)

	ret := f.openReturn(t, order, 2)

	assert.Equal(t, string(domain.ReturnRequested), ret.Status)
	assert.True(t, decimal.NewFromInt(80).Equal(ret.RefundAmount)) // 2 × 40
	require.Len(t, ret.Items, 1)
	assert.Equal(t, 2, ret.Items[0].Quantity)
}

func TestCreateReturnRequiresDeliveredOrder(t *testing.T) {
	f := newReturnFixture()
	ctx := context.Background()
	p := f.products.add(&model.Product{
		SKU: "RET-2", Name: "Pending", Price: decimal.NewFromInt(40), Stock: 10, Active: true,
	})
	order, err := f.orderSvc.Create(ctx, uuid.New(), "tester", dto.CreateOrderRequest{
		Items: []dto.CreateOrderItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, "tester", dto.CreateReturnRequest{
		OrderID: order.ID,
		Reason:  "too early",
		Items:   []dto.CreateReturnItemRequest{{OrderItemID: order.Items[0].ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateReturnBoundsQuantityByOrderedAmount(t *testing.T) {
	f := newReturnFixture()
	order := f.deliveredOrder(t) // ordered 3

	_, err := f.svc.Create(context.Background(), "tester", dto.CreateReturnRequest{
		OrderID: order.ID,
		Reason:  "greedy",
		Items:   []dto.CreateReturnItemRequest{{OrderItemID: order.Items[0].ID, Quantity: 4}},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateReturnRejectsForeignOrderItem(t *testing.T) {
	f := newReturnFixture()
	order := f.deliveredOrder(t)

	_, err := f.svc.Create(context.Background(), "tester", dto.CreateReturnRequest{
		OrderID: order.ID,
		Reason:  "wrong item",
		Items:   []dto.CreateReturnItemRequest{{OrderItemID: uuid.New().String(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRejectRequiresReasonAndIsTerminal(t *testing.T) {
	f := newReturnFixture()
	order := f.deliveredOrder(t)
	ret := f.openReturn(t, order, 1)
	id := uuid.MustParse(ret.ID)
	ctx := context.Background()

	_, err := f.svc.Reject(ctx, id, "manager", "")
	assert.ErrorIs(t, err, domain.ErrConflict)

	rejected, err := f.svc.Reject(ctx, id, "manager", "outside the return window")
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReturnRejected), rejected.Status)

	_, err = f.svc.Approve(ctx, id, "manager")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestFullReturnChainStampsOrderRefunded(t *testing.T) {
	f := newReturnFixture()
	order := f.deliveredOrder(t)
	ret := f.openReturn(t, order, 2)
	id := uuid.MustParse(ret.ID)
	orderID := uuid.MustParse(order.ID)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, id, "manager")
	require.NoError(t, err)

	// Receiving the goods flips the order to returned in the same step.
	received, err := f.svc.MarkReceived(ctx, id, "warehouse")
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReturnReceived), received.Status)
	o, err := f.orderSvc.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderReturned), o.Status)

	_, err = f.svc.Process(ctx, id, "warehouse")
	require.NoError(t, err)

	refunded, err := f.svc.Refund(ctx, id, "manager")
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReturnRefunded), refunded.Status)

	o, err = f.orderSvc.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderRefunded), o.Status)
	require.NotNil(t, o.RefundAmount)
	assert.True(t, decimal.NewFromInt(80).Equal(*o.RefundAmount))
}

func TestReturnCannotSkipStates(t *testing.T) {
	f := newReturnFixture()
	order := f.deliveredOrder(t)
	ret := f.openReturn(t, order, 1)
	id := uuid.MustParse(ret.ID)
	ctx := context.Background()

	// requested → received skips approval.
	_, err := f.svc.MarkReceived(ctx, id, "warehouse")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// requested → refunded skips everything.
	_, err = f.svc.Refund(ctx, id, "manager")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRefundAloneDoesNotRestock(t *testing.T) {
	f := newReturnFixture()
	order := f.deliveredOrder(t) // fulfillment left stock at 7
	ret := f.openReturn(t, order, 2)
	id := uuid.MustParse(ret.ID)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, id, "manager")
	require.NoError(t, err)
	_, err = f.svc.MarkReceived(ctx, id, "warehouse")
	require.NoError(t, err)
	_, err = f.svc.Process(ctx, id, "warehouse")
	require.NoError(t, err)
	_, err = f.svc.Refund(ctx, id, "manager")
	require.NoError(t, err)

	productID := uuid.MustParse(order.Items[0].ProductID)
	stored, _ := f.products.FindByID(ctx, productID)
	assert.Equal(t, 7, stored.Stock)
}

func TestRestockEmitsReturnMovementsOnce(t *testing.T) {
	f := newReturnFixture()
	order := f.deliveredOrder(t)
	ret := f.openReturn(t, order, 2)
	id := uuid.MustParse(ret.ID)
	ctx := context.Background()

	// Restocking before the goods are back is rejected.
	_, err := f.svc.Restock(ctx, id, "warehouse")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.svc.Approve(ctx, id, "manager")
	require.NoError(t, err)
	_, err = f.svc.MarkReceived(ctx, id, "warehouse")
	require.NoError(t, err)

	restocked, err := f.svc.Restock(ctx, id, "warehouse")
	require.NoError(t, err)
	assert.NotNil(t, restocked.RestockedAt)

	productID := uuid.MustParse(order.Items[0].ProductID)
	stored, _ := f.products.FindByID(ctx, productID)
	assert.Equal(t, 9, stored.Stock) // 7 after sale + 2 back

	rows, total, _ := f.movements.List(ctx, listAllMovements())
	require.Equal(t, int64(2), total) // the sale plus the restock
	assert.Equal(t, string(domain.MovementReturn), rows[1].Type)
	require.NotNil(t, rows[1].ReferenceNumber)
	assert.Equal(t, order.OrderNumber, *rows[1].ReferenceNumber)

	// A second restock is blocked by the RestockedAt guard.
	_, err = f.svc.Restock(ctx, id, "warehouse")
	assert.ErrorIs(t, err, domain.ErrConflict)
}
