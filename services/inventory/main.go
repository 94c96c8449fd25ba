package main

import (
	"context"
	"embed"
	"errors"
	"log"
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
	"github.com/matheusmosca/ecom-enrichment/pkg/kafka"
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

	var publisher EventPublisher = noopEventPublisher{}
	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
	if writer, err := kafkaClient.NewWriter(cfg.ProductEventsTopic); err == nil {
		defer writer.Close()
		publisher = NewKafkaEventPublisher(writer)
		logger.Info("publishing product events", zap.Strings("brokers", kafkaClient.Brokers), zap.String("topic", cfg.ProductEventsTopic))
	} else {
		logger.Info("product events disabled", zap.Error(err))
	}

	tracer := providers.Tracer.Tracer(cfg.ServiceName)
	repository := NewProductRepository(dbPool)
	useCase := NewCatalogUseCase(repository, publisher, tracer, logger, cfg.MaxBatchSize)
	handler := NewProductHandler(useCase)

	if cfg.SeedSampleData {
		if err := SeedSampleProducts(ctx, useCase); err != nil {
			logger.Fatal("failed to seed sample products", zap.Error(err))
		}
		logger.Info("sample products seeded")
	}

	registry := prometheus.NewRegistry()
	serverMetrics := metrics.NewServerMetrics(registry, "inventory")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(serverMetrics.Middleware())
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
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

	logger.Info("inventory service listening", zap.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
