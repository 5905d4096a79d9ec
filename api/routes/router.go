package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stocklane/stocklane-backend/api/controllers"
	"github.com/stocklane/stocklane-backend/api/middleware"
	"github.com/stocklane/stocklane-backend/internal/alerts"
	"github.com/stocklane/stocklane-backend/internal/locations"
	"github.com/stocklane/stocklane-backend/internal/movements"
	"github.com/stocklane/stocklane-backend/internal/products"
	"github.com/stocklane/stocklane-backend/internal/stock"
	"github.com/stocklane/stocklane-backend/internal/transfers"
	"github.com/stocklane/stocklane-backend/pkg/config"
	"github.com/stocklane/stocklane-backend/pkg/db"
	"github.com/stocklane/stocklane-backend/pkg/enums"
	"github.com/stocklane/stocklane-backend/pkg/logger"
	"github.com/stocklane/stocklane-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	productService products.Service,
	locationService locations.Service,
	stockService stock.Service,
	movementService movements.Service,
	transferService transfers.Service,
	alertService alerts.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	writePolicy := middleware.NewWriteRateLimitPolicy(
		"write",
		cfg.RateLimit.WriteWindow,
		cfg.RateLimit.WriteIPLimit,
		cfg.RateLimit.WriteUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if redisClient != nil {
			r.Use(middleware.WriteRateLimit(writePolicy, redisClient, logg))
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/products", func(r chi.Router) {
			r.With(middleware.RequirePermission(enums.PermissionStockRead, logg)).Get("/", controllers.ProductList(productService, logg))
			r.With(middleware.RequirePermission(enums.PermissionStockRead, logg)).Get("/{productID}", controllers.ProductGet(productService, logg))
			r.With(middleware.RequirePermission(enums.PermissionLocationManage, logg)).Post("/", controllers.ProductCreate(productService, logg))
			r.With(middleware.RequirePermission(enums.PermissionLocationManage, logg)).Put("/{productID}", controllers.ProductUpdate(productService, logg))
			r.With(middleware.RequirePermission(enums.PermissionProductThreshold, logg)).Put("/{productID}/thresholds", controllers.ProductUpdateThresholds(productService, logg))
			r.With(middleware.RequirePermission(enums.PermissionLocationManage, logg)).Delete("/{productID}", controllers.ProductDeactivate(productService, logg))
		})

		r.Route("/locations", func(r chi.Router) {
			r.With(middleware.RequirePermission(enums.PermissionStockRead, logg)).Get("/", controllers.LocationList(locationService, logg))
			r.With(middleware.RequirePermission(enums.PermissionStockRead, logg)).Get("/{locationID}", controllers.LocationGet(locationService, logg))
			r.With(middleware.RequirePermission(enums.PermissionLocationManage, logg)).Post("/", controllers.LocationCreate(locationService, logg))
			r.With(middleware.RequirePermission(enums.PermissionLocationManage, logg)).Put("/{locationID}", controllers.LocationUpdate(locationService, logg))
			r.With(middleware.RequirePermission(enums.PermissionLocationManage, logg)).Delete("/{locationID}", controllers.LocationDeactivate(locationService, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Use(middleware.RequirePermission(enums.PermissionStockRead, logg))
			r.Get("/", controllers.StockCellList(stockService, logg))
			r.Get("/{productID}/{locationID}", controllers.StockCellGet(stockService, logg))
		})

		r.Route("/movements", func(r chi.Router) {
			r.With(middleware.RequirePermission(enums.PermissionStockMove, logg)).Post("/", controllers.MovementApply(movementService, logg))
			r.With(middleware.RequirePermission(enums.PermissionStockRead, logg)).Get("/", controllers.MovementList(movementService, logg))
			r.With(middleware.RequirePermission(enums.PermissionStockRead, logg)).Get("/{movementID}", controllers.MovementGet(movementService, logg))
		})

		r.Route("/transfers", func(r chi.Router) {
			r.With(middleware.RequirePermission(enums.PermissionTransferRequest, logg)).Post("/", controllers.TransferCreate(transferService, logg))
			r.With(middleware.RequirePermission(enums.PermissionStockRead, logg)).Get("/", controllers.TransferList(transferService, logg))
			r.With(middleware.RequirePermission(enums.PermissionStockRead, logg)).Get("/{transferID}", controllers.TransferGet(transferService, logg))
			r.With(middleware.RequirePermission(enums.PermissionTransferApprove, logg)).Post("/{transferID}/approve", controllers.TransferApprove(transferService, logg))
			r.With(middleware.RequirePermission(enums.PermissionTransferApprove, logg)).Post("/{transferID}/reject", controllers.TransferReject(transferService, logg))
			r.With(middleware.RequirePermission(enums.PermissionTransferRequest, logg)).Post("/{transferID}/cancel", controllers.TransferCancel(transferService, logg))
		})

		r.Route("/alerts", func(r chi.Router) {
			r.With(middleware.RequirePermission(enums.PermissionAlertRead, logg)).Get("/", controllers.AlertList(alertService, logg))
			r.With(middleware.RequirePermission(enums.PermissionAlertRead, logg)).Get("/{alertID}", controllers.AlertGet(alertService, logg))
			r.With(middleware.RequirePermission(enums.PermissionAlertEvaluate, logg)).Post("/evaluate", controllers.AlertEvaluate(alertService, logg))
		})
	})

	return r
}
