package tests

import (
	"context"
	"sync"
	"testing"

	"shopcore/internal/domain"
	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listAllMovements() repository.StockMovementFilter { return repository.StockMovementFilter{} }

func newStockFixture() (service.StockService, *stubProductRepo, *stubMovementRepo) {
	products := newStubProductRepo()
	movements := newStubMovementRepo()
	svc := service.NewStockService(products, movements, nil)
	return svc, products, movements
}

func seedProduct(products *stubProductRepo, stock int) *model.Product {
	return products.add(&model.Product{
		SKU:           "WIDGET-1",
		Name:          "Widget",
		Price:         decimal.NewFromInt(100),
		Cost:          decimal.NewFromInt(60),
		Stock:         stock,
		MinStockLevel: 5,
		AlertsEnabled: true,
		Active:        true,
	})
}

func TestRecordMovementAdjustsStockAndWritesLedger(t *testing.T) {
	svc, products, movements := newStockFixture()
	p := seedProduct(products, 10)

	resp, err := svc.RecordMovement(context.Background(), "tester", dto.RecordMovementRequest{
		ProductID: p.ID.String(),
		Type:      string(domain.MovementSale),
		Quantity:  3,
		Reason:    "walk-in sale",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, resp.PreviousStock)
	assert.Equal(t, 7, resp.NewStock)
	assert.Equal(t, "tester", resp.CreatedBy)

	stored, err := products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Stock)
	assert.Equal(t, 3, stored.TotalSold)
	assert.NotNil(t, stored.LastSoldAt)

	rows, total, err := movements.List(context.Background(), listAllMovements())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, string(domain.MovementSale), rows[0].Type)
	assert.Equal(t, 3, rows[0].Quantity)
}

func TestMovementTypeSigns(t *testing.T) {
	cases := []struct {
		movType  domain.MovementType
		expected int // stock after applying quantity 4 to a product with 10
	}{
		{domain.MovementPurchase, 14},
		{domain.MovementReturn, 14},
		{domain.MovementRestock, 14},
		{domain.MovementAdjustment, 14},
		{domain.MovementSale, 6},
		{domain.MovementExpired, 6},
		{domain.MovementDamaged, 6},
	}
	for _, tc := range cases {
		t.Run(string(tc.movType), func(t *testing.T) {
			svc, products, _ := newStockFixture()
			p := seedProduct(products, 10)

			_, err := svc.RecordMovement(context.Background(), "tester", dto.RecordMovementRequest{
				ProductID: p.ID.String(),
				Type:      string(tc.movType),
				Quantity:  4,
				Reason:    "test",
			})
			require.NoError(t, err)

			stored, _ := products.FindByID(context.Background(), p.ID)
			assert.Equal(t, tc.expected, stored.Stock)
		})
	}
}

func TestRecordMovementRejectsNegativeResult(t *testing.T) {
	svc, products, movements := newStockFixture()
	p := seedProduct(products, 2)

	_, err := svc.RecordMovement(context.Background(), "tester", dto.RecordMovementRequest{
		ProductID: p.ID.String(),
		Type:      string(domain.MovementSale),
		Quantity:  5,
		Reason:    "oversell attempt",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Nothing changed: no ledger row, stock untouched.
	stored, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, 2, stored.Stock)
	_, total, _ := movements.List(context.Background(), listAllMovements())
	assert.Equal(t, int64(0), total)
}

func TestRecordMovementRejectsNonPositiveQuantity(t *testing.T) {
	svc, products, _ := newStockFixture()
	p := seedProduct(products, 10)

	for _, qty := range []int{0, -3} {
		_, err := svc.RecordMovement(context.Background(), "tester", dto.RecordMovementRequest{
			ProductID: p.ID.String(),
			Type:      string(domain.MovementAdjustment),
			Quantity:  qty,
			Reason:    "bad quantity",
		})
		assert.Error(t, err)
	}
}

func TestRecordMovementUnknownProduct(t *testing.T) {
	svc, _, _ := newStockFixture()

	_, err := svc.RecordMovement(context.Background(), "tester", dto.RecordMovementRequest{
		ProductID: uuid.New().String(),
		Type:      string(domain.MovementSale),
		Quantity:  1,
		Reason:    "ghost product",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReserveAndRelease(t *testing.T) {
	svc, products, _ := newStockFixture()
	p := seedProduct(products, 10)
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, p.ID, 6))
	stored, _ := products.FindByID(ctx, p.ID)
	assert.Equal(t, 10, stored.Stock)
	assert.Equal(t, 6, stored.ReservedStock)
	assert.Equal(t, 4, stored.AvailableStock())

	// Only 4 available now; reserving 5 must fail even though stock is 10.
	err := svc.Reserve(ctx, p.ID, 5)
	require.ErrorIs(t, err, domain.ErrInsufficientAvailableStock)

	require.NoError(t, svc.Release(ctx, p.ID, 6))
	stored, _ = products.FindByID(ctx, p.ID)
	assert.Equal(t, 0, stored.ReservedStock)
}

func TestReleaseFloorsAtZero(t *testing.T) {
	svc, products, _ := newStockFixture()
	p := seedProduct(products, 10)
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, p.ID, 2))
	require.NoError(t, svc.Release(ctx, p.ID, 5))

	stored, _ := products.FindByID(ctx, p.ID)
	assert.Equal(t, 0, stored.ReservedStock)
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	svc, products, _ := newStockFixture()
	p := seedProduct(products, 9)
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Reserve(ctx, p.ID, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 9, succeeded)

	stored, _ := products.FindByID(ctx, p.ID)
	assert.Equal(t, 9, stored.ReservedStock)
	assert.Equal(t, 0, stored.AvailableStock())
}

func TestFulfillmentMovementConsumesReservation(t *testing.T) {
	svc, products, _ := newStockFixture()
	p := seedProduct(products, 10)
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, p.ID, 4))

	_, err := svc.RecordMovementTx(ctx, nil, service.MovementParams{
		ProductID:       p.ID,
		Type:            domain.MovementSale,
		Quantity:        4,
		Reason:          "order fulfillment",
		CreatedBy:       "tester",
		ReleaseReserved: true,
	})
	require.NoError(t, err)

	stored, _ := products.FindByID(ctx, p.ID)
	assert.Equal(t, 6, stored.Stock)
	assert.Equal(t, 0, stored.ReservedStock)
	assert.Equal(t, 6, stored.AvailableStock())
}

func TestListMovementsFiltersByProductAndType(t *testing.T) {
	svc, products, _ := newStockFixture()
	a := seedProduct(products, 10)
	b := products.add(&model.Product{
		SKU: "WIDGET-2", Name: "Other", Price: decimal.NewFromInt(50),
		Stock: 10, Active: true,
	})
	ctx := context.Background()

	for _, spec := range []struct {
		id  uuid.UUID
		typ domain.MovementType
	}{
		{a.ID, domain.MovementSale},
		{a.ID, domain.MovementRestock},
		{b.ID, domain.MovementSale},
	} {
		_, err := svc.RecordMovement(ctx, "tester", dto.RecordMovementRequest{
			ProductID: spec.id.String(),
			Type:      string(spec.typ),
			Quantity:  1,
			Reason:    "seed",
		})
		require.NoError(t, err)
	}

	resp, err := svc.ListMovements(ctx, dto.MovementFilter{ProductID: a.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)

	resp, err = svc.ListMovements(ctx, dto.MovementFilter{Type: string(domain.MovementSale)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)

	resp, err = svc.ListMovements(ctx, dto.MovementFilter{
		ProductID: a.ID.String(),
		Type:      string(domain.MovementSale),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
}
