package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/vendorhub-backend/api/routes"
	"github.com/angelmondragon/vendorhub-backend/internal/complaints"
	"github.com/angelmondragon/vendorhub-backend/internal/dispatch"
	"github.com/angelmondragon/vendorhub-backend/internal/documents"
	"github.com/angelmondragon/vendorhub-backend/internal/ledger"
	"github.com/angelmondragon/vendorhub-backend/internal/orders"
	products "github.com/angelmondragon/vendorhub-backend/internal/products"
	"github.com/angelmondragon/vendorhub-backend/internal/refunds"
	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	"github.com/angelmondragon/vendorhub-backend/pkg/metrics"
	"github.com/angelmondragon/vendorhub-backend/pkg/migrate"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
	"github.com/angelmondragon/vendorhub-backend/pkg/redis"
	"github.com/angelmondragon/vendorhub-backend/pkg/render"
	"github.com/angelmondragon/vendorhub-backend/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

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

	logg = logger.ForApp("api", cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	store, err := storage.Open(ctx, cfg, logg)
	requireResource(ctx, logg, "document storage", err)

	renderer, err := render.NewRenderer(render.NewGotenberg(cfg.Renderer))
	requireResource(ctx, logg, "document renderer", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	fulfillmentMetrics := metrics.NewFulfillment(registry)

	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	productsRepo := products.NewRepository(conn)
	productSvc, err := products.NewService(productsRepo, dbClient, outboxSvc)
	requireResource(ctx, logg, "products service", err)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	requireResource(ctx, logg, "ledger service", err)

	dispatchSvc, err := dispatch.NewService(dispatch.NewRepository(conn), dbClient, outboxSvc, fulfillmentMetrics)
	requireResource(ctx, logg, "dispatch service", err)

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(conn),
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Catalog:    productsRepo,
		Ledger:     ledgerSvc,
		Shipper:    dispatchSvc,
		Metrics:    fulfillmentMetrics,
	})
	requireResource(ctx, logg, "orders service", err)

	documentsSvc, err := documents.NewService(documents.ServiceParams{
		Repository: documents.NewRepository(conn),
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Renderer:   renderer,
		Store:      store,
		Metrics:    fulfillmentMetrics,
	})
	requireResource(ctx, logg, "documents service", err)

	refundsSvc, err := refunds.NewService(refunds.ServiceParams{
		Repository: refunds.NewRepository(conn),
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Ledger:     ledgerSvc,
		Metrics:    fulfillmentMetrics,
	})
	requireResource(ctx, logg, "refunds service", err)

	complaintsSvc, err := complaints.NewService(complaints.NewRepository(conn), dbClient, outboxSvc)
	requireResource(ctx, logg, "complaints service", err)

	handler := routes.NewRouter(cfg, logg, routes.Infra{
		DB:          dbClient,
		Redis:       redisClient,
		Idempotency: redisClient,
		Gatherer:    registry,
		HTTPMetrics: metrics.NewHTTP(registry),
	}, routes.Services{
		Orders:     ordersSvc,
		Dispatch:   dispatchSvc,
		Documents:  documentsSvc,
		Refunds:    refundsSvc,
		Complaints: complaintsSvc,
		Products:   productSvc,
		Ledger:     ledgerSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Driver,
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	); err != nil {
		logg.Error(serverCtx, "shutdown completed with errors", err)
		exitCode = 1
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	logg.Info(serverCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", resource), "failed to initialize resource", err)
	os.Exit(1)
}
