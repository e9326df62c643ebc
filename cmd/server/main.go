package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/infrastructure/auth"
	"github.com/synexa/sis/internal/infrastructure/cache"
	"github.com/synexa/sis/internal/infrastructure/config"
	"github.com/synexa/sis/internal/infrastructure/event"
	"github.com/synexa/sis/internal/infrastructure/logger"
	"github.com/synexa/sis/internal/infrastructure/persistence"
	"github.com/synexa/sis/internal/infrastructure/storage"
	"github.com/synexa/sis/internal/infrastructure/telemetry"
	"github.com/synexa/sis/internal/interfaces/http/handler"
	"github.com/synexa/sis/internal/interfaces/http/middleware"
	"github.com/synexa/sis/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/synexa/sis/docs"
)

//	@title			Synexa SIS Finance API
//	@version		1.0
//	@description	Faturação de propinas, pagamentos e relatórios financeiros.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting Synexa SIS finance",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry
	collector := telemetry.Collector{
		Endpoint:       cfg.Telemetry.CollectorEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.App.Version,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Enabled:       cfg.Telemetry.Enabled,
		Collector:     collector,
		SamplingRatio: cfg.Telemetry.SamplingRatio,
	}, log)
	if err != nil {
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:        cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		Collector:      collector,
		ExportInterval: cfg.Telemetry.MetricsExportInterval,
	}, log)
	if err != nil {
		return err
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:   cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		Collector: collector,
	}, log)
	if err != nil {
		return err
	}
	log = loggerProvider.Bridge(log, logger.ParseLevel(cfg.Telemetry.LogsLevel))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilerEnabled,
		ServerAddress:     cfg.Telemetry.ProfilerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.ProfilerAuthUser,
		BasicAuthPassword: cfg.Telemetry.ProfilerAuthPassword,
		ProfileAlloc:      cfg.Telemetry.ProfilerAllocProfiles,
		Tags:              map[string]string{"env": cfg.App.Env, "version": cfg.App.Version},
	}, log)
	if err != nil {
		return err
	}
	if cfg.Telemetry.ProfilerEnabled && cfg.Telemetry.ProfilerSpanProfiles {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles not enabled", zap.Error(err))
		}
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.GormConfig{
			Level:         logger.MapGormLogLevel(cfg.Log.Level),
			SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
		})),
		persistence.WithPlugin(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}, log)),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	planRepo := persistence.NewGormPaymentPlanRepository(db.DB)
	students := persistence.NewGormStudentDirectory(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB, cfg.Finance.LockTimeout)

	for _, m := range cfg.Finance.ExtraPaymentMethods {
		finance.RegisterPaymentMethod(finance.PaymentMethod(m))
	}
	clock := appfinance.NewSystemClock(cfg.Finance.Timezone)
	policy := finance.Policy{
		OverduePrecedence: cfg.Finance.OverduePrecedence,
		AllowOverpayment:  cfg.Finance.AllowOverpayment,
		AccrualEnabled:    cfg.Finance.AccrualEnabled,
	}

	// Domain events
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appfinance.NewAuditLogHandler(log))

	financeMetrics, err := telemetry.NewFinanceMetrics(telemetry.FinanceMetricsConfig{
		Meter:           meterProvider.Meter("synexa-sis/finance"),
		Logger:          log,
		CollectInterval: cfg.Telemetry.MetricsCollectEvery,
		StatsProvider:   appfinance.NewDefaulterStats(invoiceRepo, invoiceRepo, clock, policy),
	})
	if err != nil {
		return err
	}
	bus.Subscribe(appfinance.NewMetricsEventHandler(financeMetrics, log))
	if meterProvider.IsEnabled() {
		financeMetrics.StartPeriodicCollection(ctx)
	}

	if err := bus.Start(ctx); err != nil {
		return err
	}

	// Services
	invoiceService := appfinance.NewInvoiceService(appfinance.InvoiceServiceConfig{
		TxScope:      txScope,
		InvoiceRepo:  invoiceRepo,
		PaymentRepo:  paymentRepo,
		Students:     students,
		Events:       bus,
		Clock:        clock,
		Policy:       policy,
		NumberPrefix: cfg.Finance.InvoiceNumberPrefix,
		Logger:       log,
	})
	paymentRecorder := appfinance.NewPaymentRecorder(txScope, paymentRepo, bus, clock, policy, log)
	invoicingService := appfinance.NewInvoicingService(appfinance.InvoicingServiceConfig{
		TxScope:      txScope,
		PlanRepo:     planRepo,
		Students:     students,
		Events:       bus,
		Clock:        clock,
		Policy:       policy,
		NumberPrefix: cfg.Finance.InvoiceNumberPrefix,
		Logger:       log,
	})

	var reportStorage appfinance.ReportStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ReportStorage(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return err
		}
		reportStorage = s3Storage
	}
	reportingService := appfinance.NewReportingService(appfinance.ReportingServiceConfig{
		InvoiceRepo: invoiceRepo,
		PaymentRepo: paymentRepo,
		Students:    students,
		Storage:     reportStorage,
		Clock:       clock,
		Policy:      policy,
		LinkTTL:     cfg.Storage.PresignExpiration,
		Logger:      log,
	})

	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return err
	}

	engine, err := router.NewEngine(router.Deps{
		Config: cfg,
		Logger: log,
		Meter:  meterProvider.Meter("synexa-sis/http"),
		Auth: middleware.JWTAuthConfig{
			Validator: auth.NewJWTService(cfg.JWT),
			Clock:     clock,
			Logger:    log,
		},
		Idempotency: idempotencyStore,
		Health:      handler.NewHealthHandler(db, cfg.App.Version),
		Invoices:    handler.NewInvoiceHandler(invoiceService, paymentRecorder),
		Payments:    handler.NewPaymentHandler(paymentRecorder),
		Plans:       handler.NewPlanHandler(invoicingService),
		Reports:     handler.NewReportHandler(reportingService),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	financeMetrics.Stop()
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop event bus", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Failed to stop profiler", zap.Error(err))
	}
	// the providers log their own flush failures
	_ = meterProvider.Shutdown(shutdownCtx)
	_ = tracerProvider.Shutdown(shutdownCtx)
	_ = loggerProvider.Shutdown(shutdownCtx)

	log.Info("Server exited")
	return nil
}
