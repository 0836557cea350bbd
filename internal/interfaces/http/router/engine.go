package router

import (
	"fmt"
	"net/http"

	"github.com/erp/tempcredit/internal/infrastructure/auth"
	"github.com/erp/tempcredit/internal/infrastructure/logger"
	"github.com/erp/tempcredit/internal/infrastructure/telemetry"
	"github.com/erp/tempcredit/internal/interfaces/http/handler"
	"github.com/erp/tempcredit/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Settings     *handler.SettingsHandler
	Policy       *handler.PolicyHandler
	CreditCheck  *handler.CreditCheckHandler
	SalesInvoice *handler.SalesInvoiceHandler
	Customer     *handler.CustomerHandler
	Report       *handler.ReportHandler
	System       *handler.SystemHandler
}

// EngineConfig wires cross-cutting middleware into the engine
type EngineConfig struct {
	Logger         *zap.Logger
	JWTService     *auth.JWTService
	Authorizer     *auth.Authorizer
	Metrics        *telemetry.CreditMetrics
	MetricsHandler http.Handler
	// RateLimiter throttles the credit check and submit routes; nil disables it
	RateLimiter    *middleware.RateLimiter
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	Tracing        middleware.TracingConfig
	MaxBodySize    int64
	TrustedProxies []string
}

// NewEngine builds the gin engine with the full middleware chain and all routes
func NewEngine(h Handlers, cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	// RequestID must precede the logger so log lines carry it
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SecureWithConfig(cfg.Security),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.Metrics),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)
	if cfg.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	jwtCfg := middleware.DefaultJWTConfig(cfg.JWTService)
	jwtCfg.Logger = log
	r := NewRouter(engine, WithAPIMiddleware(
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		middleware.TracingAttributeInjector(),
	))
	r.Register(SystemRoutes(h))
	r.Register(TempCreditRoutes(h, cfg))
	r.Setup()

	return engine, nil
}

// SystemRoutes mounts build info under /api/v1/system
func SystemRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)
}

// TempCreditRoutes mounts the temp credit API under /api/v1/temp-credit.
// Administration and report groups are checked against the role policy;
// the remaining routes are open to any authenticated user.
func TempCreditRoutes(h Handlers, cfg EngineConfig) *DomainGroup {
	permission := middleware.RequireRoutePermission(middleware.PermissionConfig{
		Authorizer: cfg.Authorizer,
		Logger:     cfg.Logger,
	})
	throttle := func(c *gin.Context) { c.Next() }
	if cfg.RateLimiter != nil {
		throttle = middleware.RateLimit(cfg.RateLimiter)
	}

	tc := NewDomainGroup("temp-credit", "/temp-credit")

	tc.Group("settings", "/settings").Use(permission).
		GET("", h.Settings.Get).
		PUT("", h.Settings.Update)

	tc.Group("customer-policies", "/customer-policies").Use(permission).
		GET("/:id", h.Policy.GetCustomerPolicy).
		PUT("/:id", h.Policy.UpsertCustomerPolicy).
		DELETE("/:id", h.Policy.DeleteCustomerPolicy)

	tc.Group("salesman-policies", "/salesman-policies").Use(permission).
		GET("/:id", h.Policy.GetSalesmanPolicy).
		PUT("/:id", h.Policy.UpsertSalesmanPolicy).
		DELETE("/:id", h.Policy.DeleteSalesmanPolicy)

	tc.POST("/check", throttle, h.CreditCheck.Check)

	tc.Group("sales-invoices", "/sales-invoices").
		POST("", h.SalesInvoice.Create).
		GET("/:id", h.SalesInvoice.GetByID).
		POST("/:id/submit", throttle, h.SalesInvoice.Submit).
		POST("/:id/cancel", h.SalesInvoice.Cancel).
		POST("/:id/payments", h.SalesInvoice.RecordPayment)

	tc.Group("customers", "/customers").
		POST("", h.Customer.Create).
		GET("/:id", h.Customer.GetByID).
		PUT("/:id", h.Customer.Update).
		PUT("/:id/attributes/:key", h.Customer.SetAttribute)

	tc.Group("reports", "/reports").Use(permission).
		GET("/customer-status", h.Report.CustomerStatus).
		GET("/salesman-status", h.Report.SalesmanStatus).
		GET("/batch", h.Report.Batch)

	return tc
}
