package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	zealauth "github.com/offbit-ai/zeal-auth"
	"github.com/offbit-ai/zeal-auth/core"
	"github.com/offbit-ai/zeal-auth/x/authz"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/plugin/opentelemetry/tracing"
)

type CustomHandler struct {
	slog.Handler
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {

	r.AddAttrs(slog.String("type", "app"))

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("traceID", span.SpanContext().TraceID().String()))
		r.AddAttrs(slog.String("spanID", span.SpanContext().SpanID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

var (
	version = "unknown"
)

func main() {

	handler := &CustomHandler{Handler: slog.NewJSONHandler(os.Stdout, nil)}
	slogger := slog.New(handler)
	slog.SetDefault(slogger)

	slog.Info(fmt.Sprintf("zeal-auth %s starting...", version))

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	config := Config{}
	configPath := os.Getenv("ZEAL_AUTH_CONFIG")
	if configPath == "" {
		configPath = "/etc/zeal-auth/config.yaml"
	}

	err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
	}

	authConfig := core.SetupConfig(config.Auth)

	if config.Server.EnableTrace {
		cleanup, err := setupTraceProvider(config.Server.TraceEndpoint, "zeal-auth", version)
		if err != nil {
			panic(err)
		}
		defer cleanup()

		skipper := otelecho.WithSkipper(
			func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/health"
			},
		)
		e.Use(otelecho.Middleware("zeal-auth", skipper))
	}

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "zealauth",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))

	e.Use(middleware.Recover())

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             300 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,                   // Enable color
		},
	)

	db, err := gorm.Open(postgres.Open(config.Server.Dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		panic("failed to connect database")
	}
	sqlDB, err := db.DB() // for pinging
	if err != nil {
		panic("failed to connect database")
	}
	defer sqlDB.Close()

	err = db.Use(tracing.NewPlugin(
		tracing.WithDBName("postgres"),
	))
	if err != nil {
		panic("failed to setup tracing plugin")
	}

	// Migrate the schema
	slog.Info("start migrate")
	err = db.AutoMigrate(core.Schemas()...)
	if err != nil {
		panic("failed to migrate schema")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Server.RedisAddr,
		Password: "", // no password set
		DB:       config.Server.RedisDB,
	})
	err = redisotel.InstrumentTracing(
		rdb,
		redisotel.WithAttributes(
			attribute.KeyValue{
				Key:   "db.name",
				Value: attribute.StringValue("redis"),
			},
		),
	)
	if err != nil {
		panic("failed to setup tracing plugin")
	}

	var mc *memcache.Client
	if config.Server.MemcachedAddr != "" {
		mc = memcache.New(config.Server.MemcachedAddr)
		defer mc.Close()
	}

	cacheService, err := zealauth.SetupCacheService(config.Server.CacheBackend, rdb, mc, db, authConfig)
	if err != nil {
		panic(err)
	}
	defer cacheService.Close()

	policyService := zealauth.SetupPolicyService(db, rdb, authConfig)
	hierarchyService := zealauth.SetupHierarchyService(db, cacheService, authConfig)
	auditService := zealauth.SetupAuditService(db, authConfig)

	authzService := zealauth.SetupAuthzService(policyService, hierarchyService, auditService, cacheService, authConfig)
	authzHandler := zealauth.SetupAuthzHandler(authzService, auditService)
	socketHandler := zealauth.SetupSocketHandler(authzService, rdb, authConfig)
	agent := zealauth.SetupAgent(policyService, hierarchyService, rdb, authConfig)

	// initial load; the agent keeps both fresh afterwards. Failures are not
	// fatal, the engine serves the seeded built-in policies until a source
	// comes back.
	err = policyService.Load(context.Background())
	if err != nil {
		slog.Error("initial policy load failed", slog.String("error", err.Error()))
	}
	err = hierarchyService.Refresh(context.Background())
	if err != nil {
		slog.Error("initial hierarchy refresh failed", slog.String("error", err.Error()))
	}

	api := e.Group("", authzService.Identify)
	api.POST("/authorize", authzHandler.Authorize)
	api.POST("/token/validate", authzHandler.ValidateToken)
	api.GET("/permissions", authzHandler.GetPermissions)
	api.GET("/audit/entries", authzHandler.QueryAudit, authzService.Require(authz.Requirement{ResourceType: core.ResourceTenant, Action: core.ActionRead}))
	api.GET("/audit/report", authzHandler.GetAuditReport, authzService.Require(authz.Requirement{ResourceType: core.ResourceTenant, Action: core.ActionRead}))
	api.GET("/ws", socketHandler.Connect)

	e.GET("/health", func(c echo.Context) (err error) {
		ctx := c.Request().Context()

		err = sqlDB.Ping()
		if err != nil {
			return c.String(http.StatusInternalServerError, "db error")
		}

		err = rdb.Ping(ctx).Err()
		if err != nil {
			return c.String(http.StatusInternalServerError, "redis error")
		}

		return c.String(http.StatusOK, "ok")
	})

	var decisionMetrics = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zealauth_decisions",
			Help: "authorization decisions",
		},
		[]string{"outcome"},
	)
	prometheus.MustRegister(decisionMetrics)

	var decisionCacheMetrics = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zealauth_decision_cache",
			Help: "decision cache lookups",
		},
		[]string{"result"},
	)
	prometheus.MustRegister(decisionCacheMetrics)

	go func() {
		for {
			time.Sleep(15 * time.Second)
			metrics := authzService.GetMetrics()
			decisionMetrics.WithLabelValues("allowed").Set(float64(metrics.Allowed))
			decisionMetrics.WithLabelValues("denied").Set(float64(metrics.Denied))
			decisionMetrics.WithLabelValues("error").Set(float64(metrics.Errors))
			decisionCacheMetrics.WithLabelValues("hit").Set(float64(metrics.CacheHits))
			decisionCacheMetrics.WithLabelValues("miss").Set(float64(metrics.CacheMisses))
		}
	}()

	e.GET("/metrics", echoprometheus.NewHandler())

	agent.Boot()

	go func() {
		addr := config.Server.ListenAddr
		if addr == "" {
			addr = ":8000"
		}
		err := e.Start(addr)
		if err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = e.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to shutdown gracefully", slog.String("error", err.Error()))
	}

	// flush buffered audit entries before exiting
	err = auditService.Close()
	if err != nil {
		slog.Error("failed to close audit service", slog.String("error", err.Error()))
	}
}

func setupTraceProvider(endpoint string, serviceName string, serviceVersion string) (func(), error) {

	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)

	if err != nil {
		return nil, err
	}

	resource := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(serviceVersion),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(resource),
	)
	otel.SetTracerProvider(tracerProvider)

	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(propagator)

	cleanup := func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error(fmt.Sprintf("Failed to shutdown tracer provider: %v", err))
		}
	}
	return cleanup, nil
}
