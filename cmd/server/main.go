package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	ontologyapp "github.com/geneontology/go-api/internal/application/ontology"
	"github.com/geneontology/go-api/internal/domain/prefix"
	"github.com/geneontology/go-api/internal/infrastructure/cache"
	"github.com/geneontology/go-api/internal/infrastructure/config"
	"github.com/geneontology/go-api/internal/infrastructure/logger"
	"github.com/geneontology/go-api/internal/infrastructure/scheduler"
	"github.com/geneontology/go-api/internal/infrastructure/telemetry"
	"github.com/geneontology/go-api/internal/infrastructure/upstream"
	"github.com/geneontology/go-api/internal/interfaces/http/handler"
	"github.com/geneontology/go-api/internal/interfaces/http/middleware"
	"github.com/geneontology/go-api/internal/interfaces/http/router"
)

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
		Service:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting GO API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	// logger.New already rejected unknown levels
	logLevel, _ := logger.ParseLevel(cfg.Log.Level)
	log = logsProvider.Bridge(log, logLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Profiling.ApplicationName,
		ProfileTypes:    cfg.Profiling.ProfileTypes,
		Tags:            map[string]string{"env": cfg.App.Env, "version": cfg.App.Version},
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	if tracerProvider.IsEnabled() && profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}

	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewMetrics(telemetry.DefaultMetricsNamespace)
	}

	prefixes, err := prefix.New(cfg.Prefixes.Context, cfg.Prefixes.Overrides)
	if err != nil {
		log.Fatal("Failed to load prefix context", zap.Error(err), zap.String("context", cfg.Prefixes.Context))
	}

	userAgent := cfg.App.Name + "/" + cfg.App.Version
	golr, err := upstream.NewGolrClient(upstream.Options{
		BaseURL:   cfg.Golr.URL,
		Timeout:   cfg.Golr.Timeout,
		UserAgent: userAgent,
		Logger:    log.Named("golr"),
		Metrics:   metrics,
	}, cfg.Golr.MaxRows)
	if err != nil {
		log.Fatal("Failed to create GOlr client", zap.Error(err))
	}
	sparql, err := upstream.NewSparqlClient(upstream.Options{
		BaseURL:   cfg.Sparql.URL,
		Timeout:   cfg.Sparql.Timeout,
		UserAgent: userAgent,
		Logger:    log.Named("sparql"),
		Metrics:   metrics,
	})
	if err != nil {
		log.Fatal("Failed to create SPARQL client", zap.Error(err))
	}
	mygene, err := upstream.NewMyGeneClient(upstream.Options{
		BaseURL:   cfg.MyGene.URL,
		Timeout:   cfg.MyGene.Timeout,
		UserAgent: userAgent,
		Logger:    log.Named("mygene"),
		Metrics:   metrics,
	})
	if err != nil {
		log.Fatal("Failed to create MyGene client", zap.Error(err))
	}

	store, err := cache.NewStoreFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create result cache", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing result cache", zap.Error(err))
		}
	}()
	searcher := upstream.NewCachedSearcher(golr, store, cfg.Cache.TTL, log.Named("golr_cache"), metrics)

	ontologyService := ontologyapp.NewService(searcher, sparql, mygene, prefixes, ontologyapp.ServiceConfig{
		MaxRows:        cfg.Golr.MaxRows,
		MaxConcurrency: cfg.Ribbon.MaxConcurrency,
	}, log.Named("ontology"))

	var warmup *scheduler.WarmupScheduler
	if cfg.Warmup.Enabled && cfg.Cache.Enabled {
		warmup, err = scheduler.NewWarmupScheduler(scheduler.WarmupConfig{
			Schedule:   cfg.Warmup.Schedule,
			Subsets:    cfg.Warmup.Subsets,
			RunOnStart: cfg.Warmup.OnStart,
		}, ontologyService, metrics, log.Named("warmup"))
		if err != nil {
			log.Fatal("Failed to create warmup scheduler", zap.Error(err))
		}
		if err := warmup.Start(ctx); err != nil {
			log.Fatal("Failed to start warmup scheduler", zap.Error(err))
		}
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		defer limiter.Stop()
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		Metrics:        metrics,
		MetricsPath:    cfg.Metrics.Path,
		RateLimiter:    limiter,
		CORS:           corsCfg,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Profiling: cfg.Profiling.Enabled,
		Docs: middleware.SwaggerConfig{
			Enabled:    cfg.Docs.Enabled,
			AllowedIPs: cfg.Docs.AllowedIPs,
		},
		OpenAPI: router.OpenAPIInfo{
			Title:       "GO API",
			Version:     cfg.App.Version,
			Description: "Gene Ontology terms, subsets, annotation ribbons and CURIE prefixes.",
		},
		StaticDir:   cfg.Static.Dir,
		StaticRoute: cfg.Static.Route,
	}, router.Handlers{
		Prefix:   handler.NewPrefixHandler(prefixes),
		Ontology: handler.NewOntologyHandler(ontologyService),
		Ribbon:   handler.NewRibbonHandler(ontologyService),
		System:   handler.NewSystemHandler(cfg.App.Name, cfg.App.Version),
	}, handler.NewHealthHandler(handler.HealthInfo{
		Version: cfg.App.Version,
		Upstreams: map[string]string{
			"golr":   cfg.Golr.URL,
			"sparql": cfg.Sparql.URL,
			"mygene": cfg.MyGene.URL,
		},
		Cache: cacheBackend(cfg.Cache, store),
	}))
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

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if warmup != nil {
		if err := warmup.Stop(shutdownCtx); err != nil {
			log.Warn("Warmup scheduler did not stop in time", zap.Error(err))
		}
	}
	stop()
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Logger provider shutdown failed", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully", zap.Duration("shutdown_timeout", cfg.HTTP.ShutdownTimeout))
}

// cacheBackend names the result cache for /health.
func cacheBackend(cfg config.CacheConfig, store cache.Store) string {
	if !cfg.Enabled {
		return "disabled"
	}
	if _, ok := store.(*cache.TieredCache); ok {
		return "redis"
	}
	return "memory"
}
