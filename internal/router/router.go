package router

import (
	"time"

	"shopcore/internal/config"
	"shopcore/internal/handler"
	"shopcore/internal/infra"
	"shopcore/internal/middleware"
	"shopcore/internal/repository"
	"shopcore/internal/service"
	"shopcore/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps carries the shared infrastructure plus the services the background
// scheduler also needs, so main can wire both from one place.
type Deps struct {
	Alerts         service.AlertService
	PurchaseOrders service.PurchaseOrderService
	Dispatcher     *worker.Dispatcher
}

// New wires all dependencies and returns a configured Gin engine plus the
// service handles the scheduler shares.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, notifyCB *infra.CircuitBreaker) (*gin.Engine, *Deps) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	purchaseOrderRepo := repository.NewPurchaseOrderRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	alertSvc := service.NewAlertService(alertRepo, productRepo, dispatcher, cfg.ExpiryHorizonDays)
	stockSvc := service.NewStockService(productRepo, movementRepo, alertSvc)
	productSvc := service.NewProductService(productRepo, alertSvc)
	supplierSvc := service.NewSupplierService(supplierRepo)
	orderSvc := service.NewOrderService(orderRepo, productRepo, stockSvc, alertSvc, dispatcher, cfg.PDFStoragePath)
	purchaseOrderSvc := service.NewPurchaseOrderService(purchaseOrderRepo, supplierRepo, productRepo, stockSvc, alertSvc)
	returnSvc := service.NewReturnService(returnRepo, orderRepo, orderSvc, stockSvc, alertSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	stockH := handler.NewStockHandler(stockSvc)
	alertsH := handler.NewAlertsHandler(alertSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	purchaseOrdersH := handler.NewPurchaseOrdersHandler(purchaseOrderSvc)
	returnsH := handler.NewReturnsHandler(returnSvc)
	productsH := handler.NewProductsHandler(productSvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)
	adminH := handler.NewAdminHandler(alertSvc, purchaseOrderSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, notifyCB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes. Roles: staff, manager, admin — declared per-endpoint.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole("staff", "manager", "admin")
	managerUp := middleware.RequireRole("manager", "admin")
	adminOnly := middleware.RequireRole("admin")

	v1 := r.Group("/v1", jwtMW)
	{
		// Stock ledger and reservations
		stock := v1.Group("/stock")
		{
			stock.POST("/movements", managerUp, stockH.RecordMovement)
			stock.GET("/movements", anyRole, stockH.ListMovements)
			stock.POST("/reserve", anyRole, stockH.Reserve)
			stock.POST("/release", anyRole, stockH.Release)
		}

		// Alerts
		alerts := v1.Group("/alerts", managerUp)
		{
			alerts.GET("", alertsH.ListActive)
			alerts.POST("/:id/acknowledge", alertsH.Acknowledge)
			alerts.POST("/:id/resolve", alertsH.Resolve)
			alerts.POST("/:id/dismiss", alertsH.Dismiss)
		}

		// Orders
		orders := v1.Group("/orders")
		{
			orders.POST("", anyRole, ordersH.Create)
			orders.GET("", anyRole, ordersH.List)
			orders.GET("/:id", anyRole, ordersH.Get)
			orders.GET("/:id/history", anyRole, ordersH.History)
			orders.GET("/:id/invoice", anyRole, ordersH.Invoice)
			orders.PATCH("/:id/status", managerUp, ordersH.UpdateStatus)
			orders.POST("/:id/cancel", anyRole, ordersH.Cancel)
			orders.POST("/:id/fulfill", managerUp, ordersH.Fulfill)
		}

		// Purchase orders
		pos := v1.Group("/purchase-orders", managerUp)
		{
			pos.POST("", purchaseOrdersH.Create)
			pos.GET("", purchaseOrdersH.List)
			pos.GET("/:id", purchaseOrdersH.Get)
			pos.POST("/:id/submit", purchaseOrdersH.Submit)
			pos.POST("/:id/approve", adminOnly, purchaseOrdersH.Approve)
			pos.POST("/:id/send", purchaseOrdersH.Send)
			pos.POST("/:id/receive", purchaseOrdersH.Receive)
			pos.POST("/:id/cancel", purchaseOrdersH.Cancel)
		}

		// Returns
		returns := v1.Group("/returns")
		{
			returns.POST("", anyRole, returnsH.Create)
			returns.GET("", anyRole, returnsH.List)
			returns.GET("/:id", anyRole, returnsH.Get)
			returns.POST("/:id/approve", managerUp, returnsH.Approve)
			returns.POST("/:id/reject", managerUp, returnsH.Reject)
			returns.POST("/:id/receive", managerUp, returnsH.MarkReceived)
			returns.POST("/:id/process", managerUp, returnsH.Process)
			returns.POST("/:id/refund", managerUp, returnsH.Refund)
			returns.POST("/:id/restock", managerUp, returnsH.Restock)
		}

		// Inventory settings
		v1.GET("/products", anyRole, productsH.List)
		v1.GET("/products/:id", anyRole, productsH.Get)
		products := v1.Group("/products", adminOnly)
		{
			products.POST("", productsH.Create)
			products.PUT("/:id", productsH.Update)
		}

		suppliers := v1.Group("/suppliers", adminOnly)
		{
			suppliers.POST("", suppliersH.Create)
			suppliers.GET("", suppliersH.List)
			suppliers.GET("/:id", suppliersH.Get)
			suppliers.PUT("/:id", suppliersH.Update)
		}

		// Manual sweep triggers
		admin := v1.Group("/admin", adminOnly)
		{
			admin.POST("/sweeps/alerts", adminH.RunAlertSweep)
			admin.POST("/sweeps/restock", adminH.RunRestockSweep)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, &Deps{
		Alerts:         alertSvc,
		PurchaseOrders: purchaseOrderSvc,
		Dispatcher:     dispatcher,
	}
}
