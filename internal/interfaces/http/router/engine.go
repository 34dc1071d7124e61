package router

import (
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/infrastructure/auth"
	"github.com/erp/salesledger/internal/infrastructure/config"
	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/infrastructure/telemetry"
	"github.com/erp/salesledger/internal/interfaces/http/handler"
	"github.com/erp/salesledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the HTTP surface is built from
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Version string

	JWT     *auth.JWTService
	Sales   handler.SaleCommitter
	Reports handler.CostReporter

	// Idempotency may be nil, which disables Idempotency-Key handling
	Idempotency shared.IdempotencyStore
	// RateLimiter may be nil, which disables per-team limiting
	RateLimiter     *middleware.RateLimiter
	MeterProvider   *telemetry.MeterProvider
	ReadinessChecks []handler.ReadinessCheck
}

// NewEngine builds the gin engine with the middleware chain and every route.
//
// Order: request ID, panic recovery, request logging, tracing, metrics,
// security headers, CORS, body limit, request timeout. Versioned routes then
// authenticate, rate limit per team and attach profiling labels.
func NewEngine(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: deps.MeterProvider,
			Enabled:       cfg.Telemetry.MetricsEnabled,
			Logger:        log,
		}),
		middleware.SecureWithConfig(middleware.SecurityConfigForEnv(cfg.App.Env)),
		middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	system := handler.NewSystemHandler(cfg.App.Name, deps.Version, deps.ReadinessChecks...)
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)

	r := NewRouter(engine, WithAPIVersion("v1"))

	jwtConfig := middleware.DefaultJWTConfig(deps.JWT)
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	if deps.RateLimiter != nil {
		r.Use(middleware.RateLimit(deps.RateLimiter))
	}
	r.Use(middleware.Profiling(cfg.Telemetry.ProfilingEnabled))

	sales := handler.NewSaleHandler(deps.Sales)
	idempotency := middleware.Idempotency(deps.Idempotency, shared.IdempotencyConfig{
		Enabled: cfg.Idempotency.Enabled,
		TTL:     cfg.Idempotency.TTL,
	}, log)

	saleRoutes := NewDomainGroup("sales", "/sales")
	saleRoutes.POST("", idempotency, sales.Record)
	saleRoutes.GET("/:id", sales.Get)
	saleRoutes.DELETE("/:id", sales.Delete)

	reports := handler.NewReportHandler(deps.Reports)
	reportRoutes := NewDomainGroup("reports", "/reports")
	reportRoutes.GET("/cogs", reports.COGS)

	batchRoutes := NewDomainGroup("inventory", "/batches")
	batchRoutes.GET("/:id/unit-cost", reports.UnitCost)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", system.Info(cfg.Costing.Method))

	r.Register(saleRoutes).
		Register(reportRoutes).
		Register(batchRoutes).
		Register(systemRoutes)
	r.Setup()

	return engine
}
