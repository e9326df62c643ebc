package router

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/config"
	"github.com/synexa/sis/internal/infrastructure/logger"
	"github.com/synexa/sis/internal/interfaces/http/handler"
	"github.com/synexa/sis/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Deps is everything NewEngine wires together
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Meter       metric.Meter // nil disables HTTP metrics
	Auth        middleware.JWTAuthConfig
	Idempotency shared.IdempotencyStore

	Health   *handler.HealthHandler
	Invoices *handler.InvoiceHandler
	Payments *handler.PaymentHandler
	Plans    *handler.PlanHandler
	Reports  *handler.ReportHandler
}

// NewEngine builds the gin engine with the global middleware stack, the
// probes, the documentation and the authenticated /api/v1 tree
func NewEngine(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(d.Logger, middleware.AbortInternal),
		middleware.RequestID(),
		logger.GinMiddleware(d.Logger),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.SpanRequestID(),
		middleware.HTTPMetrics(d.Meter, d.Logger),
		middleware.Secure(),
		middleware.CORS(corsConfig(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", d.Health.Health)
	engine.GET("/ready", d.Health.Ready)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// the limiter ahead of JWTAuth keys on client IP, the one after on tenant
	api := NewAPI(engine, "v1")
	limited := cfg.HTTP.RateLimitRequests > 0
	if limited {
		api.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
	}
	api.Use(middleware.JWTAuth(d.Auth))
	if limited {
		api.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
	}
	api.Use(
		middleware.Profiling(middleware.ProfilingConfig{Enabled: cfg.Telemetry.ProfilerEnabled}),
		middleware.Idempotency(d.Idempotency, idempotencyTTL(cfg.Finance.IdempotencyTTL), d.Logger),
	)

	api.Mount(
		InvoiceRoutes(d.Invoices),
		PaymentRoutes(d.Payments),
		PlanRoutes(d.Plans),
		ReportRoutes(d.Reports),
	).Build()

	return engine, nil
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}

func idempotencyTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 24 * time.Hour
	}
	return ttl
}
