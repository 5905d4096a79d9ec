package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stocklane/stocklane-backend/api/routes"
	"github.com/stocklane/stocklane-backend/internal/alerts"
	"github.com/stocklane/stocklane-backend/internal/locations"
	"github.com/stocklane/stocklane-backend/internal/movements"
	"github.com/stocklane/stocklane-backend/internal/products"
	"github.com/stocklane/stocklane-backend/internal/stock"
	"github.com/stocklane/stocklane-backend/internal/transfers"
	"github.com/stocklane/stocklane-backend/pkg/config"
	"github.com/stocklane/stocklane-backend/pkg/db"
	"github.com/stocklane/stocklane-backend/pkg/logger"
	"github.com/stocklane/stocklane-backend/pkg/metrics"
	"github.com/stocklane/stocklane-backend/pkg/migrate"
	"github.com/stocklane/stocklane-backend/pkg/outbox"
	"github.com/stocklane/stocklane-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	productRepo := products.NewRepository(gormDB)
	locationRepo := locations.NewRepository(gormDB)
	stockRepo := stock.NewRepository(gormDB)
	movementRepo := movements.NewRepository(gormDB)
	transferRepo := transfers.NewRepository(gormDB)
	alertRepo := alerts.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	locationService, err := locations.NewService(locationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create location service", err)
		os.Exit(1)
	}
	stockService, err := stock.NewService(stockRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	movementMetrics := metrics.NewMovementMetrics(prometheus.DefaultRegisterer)
	movementService, err := movements.NewService(
		movementRepo,
		stockRepo,
		productRepo,
		locationRepo,
		dbClient,
		outboxService,
		cfg.Engine,
		movementMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create movement engine", err)
		os.Exit(1)
	}

	transferService, err := transfers.NewService(
		transferRepo,
		movementService,
		stockRepo,
		productRepo,
		locationRepo,
		dbClient,
		outboxService,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create transfer service", err)
		os.Exit(1)
	}

	alertService, err := alerts.NewService(alertRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			productService,
			locationService,
			stockService,
			movementService,
			transferService,
			alertService,
		),
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-signalCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining requests")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
	logg.Info(ctx, "api server shut down")
}
