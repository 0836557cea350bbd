package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apptc "github.com/erp/tempcredit/internal/application/tempcredit"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/infrastructure/auth"
	"github.com/erp/tempcredit/internal/infrastructure/cache"
	"github.com/erp/tempcredit/internal/infrastructure/config"
	"github.com/erp/tempcredit/internal/infrastructure/lock"
	"github.com/erp/tempcredit/internal/infrastructure/logger"
	"github.com/erp/tempcredit/internal/infrastructure/persistence"
	"github.com/erp/tempcredit/internal/infrastructure/telemetry"
	"github.com/erp/tempcredit/internal/interfaces/http/handler"
	"github.com/erp/tempcredit/internal/interfaces/http/middleware"
	"github.com/erp/tempcredit/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Version is stamped at build time with -ldflags "-X main.Version=..."
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting temp credit service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
		zap.String("lock_backend", cfg.TempCredit.LockBackend),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.ParseGormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to get underlying sql.DB", zap.Error(err))
		}
		if _, err := telemetry.RegisterDBMetrics(db.DB, sqlDB, meterProvider, cfg.Telemetry.DBSlowQueryThresh, log); err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
	}

	redisClient := connectRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
	}

	// Repositories
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	customerPolicyRepo := persistence.NewGormCustomerPolicyRepository(db.DB)
	salesmanPolicyRepo := persistence.NewGormSalesmanPolicyRepository(db.DB)
	usageRepo := persistence.NewGormCreditUsageRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	invoiceRepo := persistence.NewGormSalesInvoiceRepository(db.DB)

	var invalidator *cache.SettingsInvalidator
	cacheOpts := []cache.SettingsCacheOption{cache.WithSettingsLogger(log)}
	if redisClient != nil {
		invalidator = cache.NewSettingsInvalidator(redisClient, cache.WithInvalidatorLogger(log))
		cacheOpts = append(cacheOpts, cache.WithRedis(redisClient), cache.WithPublisher(invalidator))
	}
	settingsCache := cache.NewSettingsCache(settingsRepo, cfg.TempCredit.SettingsCacheTTL, cacheOpts...)

	guard := newCustomerGuard(cfg, db, redisClient, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	creditMetrics := telemetry.NewCreditMetrics(registry)

	// Application services
	loader := apptc.NewSnapshotLoader(settingsCache, customerPolicyRepo, salesmanPolicyRepo, customerRepo, usageRepo)
	evaluator := apptc.NewEvaluationService(loader, log,
		apptc.WithCurrency(cfg.TempCredit.Currency),
		apptc.WithDecisionRecorder(creditMetrics),
	)
	advisoryService := apptc.NewAdvisoryService(evaluator, apptc.NewAdvisoryTracker(cfg.TempCredit.AdvisoryTrackerTTL), log)
	submissionService := apptc.NewSubmissionService(invoiceRepo, evaluator, guard, creditMetrics, log)
	invoiceService := apptc.NewInvoiceService(invoiceRepo, customerRepo, log)
	customerService := apptc.NewCustomerService(customerRepo, log)
	settingsService := apptc.NewSettingsService(settingsRepo, settingsCache, log)
	policyService := apptc.NewPolicyService(customerPolicyRepo, salesmanPolicyRepo, customerRepo, log)
	reportService := apptc.NewReportService(settingsCache, usageRepo, customerPolicyRepo, salesmanPolicyRepo, log)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, Version).
		AddCheck("database", func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	authorizer, err := auth.NewAuthorizer()
	if err != nil {
		log.Fatal("Failed to load authorization policy", zap.Error(err))
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Close()
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTSEnabled = cfg.IsProduction()

	engine, err := router.NewEngine(router.Handlers{
		Settings:     handler.NewSettingsHandler(settingsService),
		Policy:       handler.NewPolicyHandler(policyService),
		CreditCheck:  handler.NewCreditCheckHandler(advisoryService),
		SalesInvoice: handler.NewSalesInvoiceHandler(invoiceService, submissionService),
		Customer:     handler.NewCustomerHandler(customerService),
		Report:       handler.NewReportHandler(reportService),
		System:       systemHandler,
	}, router.EngineConfig{
		Logger:         log,
		JWTService:     jwtService,
		Authorizer:     authorizer,
		Metrics:        creditMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		RateLimiter:    rateLimiter,
		CORS:           corsCfg,
		Security:       securityCfg,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	if invalidator != nil {
		go func() {
			if err := invalidator.Subscribe(gctx, settingsCache.HandleUpdate); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("Settings invalidation subscription ended", zap.Error(err))
			}
		}()
	}
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}
		if invalidator != nil {
			_ = invalidator.Close()
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Tracer provider shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server exited")
}

// connectRedis returns a live client, or nil when redis is unreachable and
// nothing requires it. The redis lock backend makes redis mandatory.
func connectRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if cfg.TempCredit.LockBackend == config.LockBackendRedis {
			log.Fatal("Redis is required by the redis lock backend", zap.Error(err))
		}
		log.Warn("Redis unavailable, settings cache runs without the shared tier",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err),
		)
		_ = client.Close()
		return nil
	}
	log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	return client
}

func newCustomerGuard(cfg *config.Config, db *persistence.Database, client *redis.Client, log *zap.Logger) tempcredit.CustomerGuard {
	tc := cfg.TempCredit
	switch tc.LockBackend {
	case config.LockBackendRedis:
		return lock.NewRedisGuard(client, tc.LockWaitTimeout, tc.LockTTL, lock.WithLogger(log))
	case config.LockBackendMemory:
		log.Warn("In-process customer lock only serializes submissions within this instance")
		return lock.NewMemoryGuard(tc.LockWaitTimeout)
	default:
		return persistence.NewAdvisoryLockGuard(db.DB, tc.LockWaitTimeout)
	}
}
