package main

import (
	"context"
	"embed"
	"errors"
	"log"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/matheusmosca/ecom-enrichment/pkg/database"
	"github.com/matheusmosca/ecom-enrichment/pkg/logging"
	"github.com/matheusmosca/ecom-enrichment/pkg/metrics"
	"github.com/matheusmosca/ecom-enrichment/pkg/telemetry"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OtelEndpoint)
	if err != nil {
		logger.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("error shutting down telemetry", zap.Error(err))
		}
	}()

	if err := database.Migrate(cfg.DatabaseURL, migrationsFS, "migrations"); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	dbPool, err := database.NewPool(ctx, database.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DatabaseMaxConns}, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	repository := NewOrderRepository(dbPool)
	catalog := NewHTTPCatalogClient(cfg.InventoryServiceURL, cfg.CatalogBatchPageSize)
	enrichment := NewEnrichmentService(repository, catalog, cfg.EnrichmentConfig(), logger)
	useCase := NewOrderUseCase(repository, logger)
	handler := NewOrderHandler(useCase, enrichment)

	if cfg.SeedSampleData {
		n, err := SeedSampleOrders(ctx, repository, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
		if err != nil {
			logger.Fatal("failed to seed sample orders", zap.Error(err))
		}
		logger.Info("sample orders seeded", zap.Int("created", n))
	}

	registry := prometheus.NewRegistry()
	serverMetrics := metrics.NewServerMetrics(registry, "orders")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(serverMetrics.Middleware())
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler(registry)))
	handler.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down server", zap.Error(err))
		}
	}()

	logger.Info("orders service listening",
		zap.String("port", cfg.Port),
		zap.String("inventory_url", cfg.InventoryServiceURL),
		zap.Duration("catalog_timeout", cfg.EnrichmentConfig().CatalogTimeout),
		zap.Int("catalog_retries", cfg.CatalogRetryCount),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
