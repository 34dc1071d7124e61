package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appreport "github.com/erp/salesledger/internal/application/report"
	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/sales"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/erp/salesledger/internal/infrastructure/auth"
	"github.com/erp/salesledger/internal/infrastructure/cache"
	"github.com/erp/salesledger/internal/infrastructure/config"
	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/infrastructure/persistence"
	"github.com/erp/salesledger/internal/infrastructure/persistence/memory"
	infrastrategy "github.com/erp/salesledger/internal/infrastructure/strategy"
	"github.com/erp/salesledger/internal/infrastructure/telemetry"
	"github.com/erp/salesledger/internal/interfaces/http/handler"
	"github.com/erp/salesledger/internal/interfaces/http/middleware"
	"github.com/erp/salesledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// repositories is the storage backend selected by database.driver
type repositories struct {
	scope   appsales.TransactionScope
	batches inventory.StockBatchReader
	lots    inventory.LotReader
	sales   sales.SaleTransactionReader
	legacy  sales.LegacySaleReader
	checks  []handler.ReadinessCheck
	close   func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdown(log, "logger provider", loggerProvider.Shutdown)
	log = telemetry.BridgeLogger(log, loggerProvider, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		ProfileTypes:    cfg.Telemetry.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	log.Info("Starting sales ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("cost_method", cfg.Costing.Method),
	)

	repos, err := openRepositories(cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := repos.close(); err != nil {
			log.Error("Error closing storage", zap.Error(err))
		}
	}()

	saleMetrics, err := telemetry.NewSaleMetrics(meterProvider.Meter("salesledger/sales"))
	if err != nil {
		log.Fatal("Failed to create sale metrics", zap.Error(err))
	}
	saleService := appsales.NewSaleService(repos.scope, repos.sales, appsales.RetryPolicy{
		MaxAttempts: cfg.Sales.MaxAttempts,
		BaseDelay:   cfg.Sales.BackoffBase,
		MaxDelay:    cfg.Sales.BackoffMax,
	}, appsales.WithLogger(log), appsales.WithObserver(saleMetrics))

	registry, err := infrastrategy.NewRegistryWithDefaults(strategy.CostMethod(cfg.Costing.Method))
	if err != nil {
		log.Fatal("Failed to build cost strategies", zap.Error(err))
	}
	costStrategy, err := registry.DefaultCostStrategy()
	if err != nil {
		log.Fatal("Unknown cost method", zap.String("method", cfg.Costing.Method), zap.Error(err))
	}
	reportService := appreport.NewReportService(
		appreport.NewQueryPlanner(repos.sales, repos.legacy),
		repos.batches, repos.lots, costStrategy, log,
	)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx, cfg.Idempotency.Backend)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRequests > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := router.NewEngine(router.Dependencies{
		Config:          cfg,
		Logger:          log,
		Version:         version,
		JWT:             auth.NewJWTService(cfg.JWT),
		Sales:           saleService,
		Reports:         reportService,
		Idempotency:     idempotencyStore,
		RateLimiter:     rateLimiter,
		MeterProvider:   meterProvider,
		ReadinessChecks: repos.checks,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// openRepositories connects the configured backend. The memory driver keeps
// everything in process and is meant for demos and local development.
func openRepositories(cfg *config.Config, log *zap.Logger) (*repositories, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		saleRepo := memory.NewSaleTransactionRepository(store)
		return &repositories{
			scope:   memory.NewTransactionScope(store),
			batches: memory.NewStockBatchRepository(store),
			lots:    memory.NewLotRepository(store),
			sales:   saleRepo,
			legacy:  memory.NewLegacySaleRepository(store),
			close:   func() error { return nil },
		}, nil
	}

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithGormLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))),
		persistence.WithPlugins(dbTracing),
	)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	return &repositories{
		scope:   persistence.NewGormTransactionScope(db.DB),
		batches: persistence.NewGormStockBatchRepository(db.DB),
		lots:    persistence.NewGormLotRepository(db.DB),
		sales:   persistence.NewGormSaleTransactionRepository(db.DB),
		legacy:  persistence.NewGormLegacySaleRepository(db.DB),
		checks: []handler.ReadinessCheck{{
			Name:  "database",
			Check: func(context.Context) error { return db.Ping() },
		}},
		close: db.Close,
	}, nil
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
