package service

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/dto"
	"shopcore/internal/model"
	"shopcore/internal/repository"

	"github.com/google/uuid"
)

// ProductService owns the inventory settings surface: registration, threshold
// tuning and restock configuration. Stock counters are read-only here; the
// ledger and the reservation manager are the only writers.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
}

type productService struct {
	products repository.ProductRepository
	alerts   AlertEvaluator
}

func NewProductService(products repository.ProductRepository, alerts AlertEvaluator) ProductService {
	return &productService{products: products, alerts: alerts}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	product := &model.Product{
		SKU:             req.SKU,
		Name:            req.Name,
		Price:           req.Price,
		Cost:            req.Cost,
		Stock:           req.Stock,
		MinStockLevel:   req.MinStockLevel,
		ReorderPoint:    req.ReorderPoint,
		MaxStockLevel:   req.MaxStockLevel,
		AlertsEnabled:   true,
		AutoRestock:     req.AutoRestock,
		ReorderQuantity: req.ReorderQuantity,
		TrackExpiration: req.TrackExpiration,
		ExpirationDate:  req.ExpirationDate,
		Active:          true,
	}
	if req.AlertsEnabled != nil {
		product.AlertsEnabled = *req.AlertsEnabled
	}
	if req.SupplierID != nil {
		sid, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return nil, fmt.Errorf("invalid supplier_id: %w", err)
		}
		product.SupplierID = &sid
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.reEvaluate(ctx, product.ID)
	return productToResponse(product), nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return productToResponse(product), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, *productToResponse(&products[i]))
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return &dto.ProductListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// Update applies partial threshold/settings changes, then re-evaluates alerts
// since a changed threshold can breach immediately.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Cost != nil {
		product.Cost = *req.Cost
	}
	if req.MinStockLevel != nil {
		product.MinStockLevel = *req.MinStockLevel
	}
	if req.ReorderPoint != nil {
		product.ReorderPoint = *req.ReorderPoint
	}
	if req.MaxStockLevel != nil {
		product.MaxStockLevel = *req.MaxStockLevel
	}
	if req.AlertsEnabled != nil {
		product.AlertsEnabled = *req.AlertsEnabled
	}
	if req.AutoRestock != nil {
		product.AutoRestock = *req.AutoRestock
	}
	if req.ReorderQuantity != nil {
		product.ReorderQuantity = *req.ReorderQuantity
	}
	if req.SupplierID != nil {
		sid, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return nil, fmt.Errorf("invalid supplier_id: %w", err)
		}
		product.SupplierID = &sid
	}
	if req.TrackExpiration != nil {
		product.TrackExpiration = *req.TrackExpiration
	}
	if req.ExpirationDate != nil {
		product.ExpirationDate = req.ExpirationDate
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.reEvaluate(ctx, product.ID)
	return productToResponse(product), nil
}

func (s *productService) reEvaluate(ctx context.Context, id uuid.UUID) {
	if s.alerts == nil {
		return
	}
	_ = s.alerts.Evaluate(ctx, id)
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:              p.ID.String(),
		SKU:             p.SKU,
		Name:            p.Name,
		Price:           p.Price,
		Cost:            p.Cost,
		Stock:           p.Stock,
		ReservedStock:   p.ReservedStock,
		AvailableStock:  p.AvailableStock(),
		MinStockLevel:   p.MinStockLevel,
		ReorderPoint:    p.ReorderPoint,
		MaxStockLevel:   p.MaxStockLevel,
		AlertsEnabled:   p.AlertsEnabled,
		AutoRestock:     p.AutoRestock,
		ReorderQuantity: p.ReorderQuantity,
		TrackExpiration: p.TrackExpiration,
		Active:          p.Active,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
	if p.SupplierID != nil {
		v := p.SupplierID.String()
		resp.SupplierID = &v
	}
	if p.ExpirationDate != nil {
		v := p.ExpirationDate.Format("2006-01-02")
		resp.ExpirationDate = &v
	}
	return resp
}
