package router

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/geneontology/go-api/internal/infrastructure/logger"
	"github.com/geneontology/go-api/internal/infrastructure/telemetry"
	"github.com/geneontology/go-api/internal/interfaces/http/dto"
	"github.com/geneontology/go-api/internal/interfaces/http/handler"
	"github.com/geneontology/go-api/internal/interfaces/http/middleware"
)

// Fixed paths outside the API base path
const (
	HealthPath  = "/health"
	OpenAPIPath = "/openapi.json"
	DocsPath    = "/docs"
)

// EngineConfig configures the gin engine of the service.
type EngineConfig struct {
	Logger *zap.Logger
	// Metrics enables /metrics and the HTTP metrics when set
	Metrics     *telemetry.Metrics
	MetricsPath string
	// RateLimiter enables per client rate limiting when set
	RateLimiter    *middleware.RateLimiter
	CORS           middleware.CORSConfig
	TrustedProxies []string
	Tracing        middleware.TracingConfig
	Profiling      bool
	Docs           middleware.SwaggerConfig
	OpenAPI        OpenAPIInfo
	StaticDir      string
	StaticRoute    string
}

// NewEngine builds the gin engine with the middleware chain, the fixed
// service routes and the API routes of h.
func NewEngine(cfg EngineConfig, h Handlers, health *handler.HealthHandler) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log, panicResponse))
	engine.Use(logger.GinMiddleware(log, HealthPath, cfg.MetricsPath))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	if cfg.Tracing.Enabled {
		engine.Use(middleware.TracingWithConfig(cfg.Tracing))
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.SpanErrorMarker())
	}
	if cfg.Profiling {
		engine.Use(middleware.Profiling())
	}
	if cfg.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			Metrics:   cfg.Metrics,
			SkipPaths: []string{cfg.MetricsPath},
		}))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Not Found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeMethodNotAllowed, "Method Not Allowed", middleware.GetRequestID(c)))
	})

	engine.GET(HealthPath, health.Health)
	if cfg.Metrics != nil {
		engine.GET(cfg.MetricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	r := NewRouter(engine)
	h.Register(r)
	r.Setup()

	doc, err := BuildOpenAPI(cfg.OpenAPI, r.Routes())
	if err != nil {
		return nil, fmt.Errorf("build openapi document: %w", err)
	}
	body, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}

	docs := engine.Group("", middleware.SwaggerProtection(cfg.Docs))
	docs.GET(OpenAPIPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	})
	docs.GET(DocsPath+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(OpenAPIPath)))

	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, DocsPath+"/index.html")
	})

	if cfg.StaticDir != "" && cfg.StaticRoute != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			engine.Static(cfg.StaticRoute, cfg.StaticDir)
		} else {
			log.Warn("Static directory not found, assets are not served", zap.String("dir", cfg.StaticDir))
		}
	}

	return engine, nil
}

func panicResponse(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal, "An unexpected error occurred", middleware.GetRequestID(c)))
}
