package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the service reads.
const EnvPrefix = "GOAPI"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Golr      UpstreamConfig
	Sparql    UpstreamConfig
	MyGene    UpstreamConfig
	Ribbon    RibbonConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Prefixes  PrefixConfig
	Warmup    WarmupConfig
	Static    StaticConfig
	Docs      DocsConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
	Metrics   MetricsConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// IsProduction reports whether the service runs with app.env=production.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// UpstreamConfig locates one upstream knowledge service.
type UpstreamConfig struct {
	URL     string
	Timeout time.Duration
	MaxRows int // GOlr only
}

// RibbonConfig tunes ribbon assembly.
type RibbonConfig struct {
	MaxConcurrency int // concurrent per-subject upstream lookups
}

// CacheConfig controls the upstream result cache.
type CacheConfig struct {
	Enabled               bool
	TTL                   time.Duration
	L1TTL                 time.Duration
	RedisEnabled          bool
	AllowInMemoryFallback bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PrefixConfig selects the CURIE prefix context.
type PrefixConfig struct {
	Context   string
	Overrides map[string]string // prefix -> URI base
}

// WarmupConfig schedules refreshes of the subset caches.
type WarmupConfig struct {
	Enabled  bool
	Schedule string // standard 5-field cron expression
	Subsets  []string
	OnStart  bool
}

// StaticConfig serves the static landing assets.
type StaticConfig struct {
	Dir   string
	Route string
}

// DocsConfig controls the OpenAPI document and Swagger UI.
type DocsConfig struct {
	Enabled bool
	// Explicit is true when docs.enabled was set rather than defaulted.
	Explicit bool
	// AllowedIPs restricts the docs to these IPs or CIDRs; empty allows all.
	AllowedIPs []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
	ProfileTypes    []string // empty collects the profiler defaults
}

// MetricsConfig exposes Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with GOAPI_ prefix (e.g., GOAPI_GOLR_URL)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setBoolDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			RateLimitEnabled: v.GetBool("http.rate_limit_enabled"),
			RateLimitRPS:     v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:   v.GetInt("http.rate_limit_burst"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Golr: UpstreamConfig{
			URL:     v.GetString("golr.url"),
			Timeout: v.GetDuration("golr.timeout"),
			MaxRows: v.GetInt("golr.max_rows"),
		},
		Sparql: UpstreamConfig{
			URL:     v.GetString("sparql.url"),
			Timeout: v.GetDuration("sparql.timeout"),
		},
		MyGene: UpstreamConfig{
			URL:     v.GetString("mygene.url"),
			Timeout: v.GetDuration("mygene.timeout"),
		},
		Ribbon: RibbonConfig{
			MaxConcurrency: v.GetInt("ribbon.max_concurrency"),
		},
		Cache: CacheConfig{
			Enabled:               v.GetBool("cache.enabled"),
			TTL:                   v.GetDuration("cache.ttl"),
			L1TTL:                 v.GetDuration("cache.l1_ttl"),
			RedisEnabled:          v.GetBool("cache.redis_enabled"),
			AllowInMemoryFallback: v.GetBool("cache.allow_in_memory_fallback"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Prefixes: PrefixConfig{
			Context:   v.GetString("prefixes.context"),
			Overrides: v.GetStringMapString("prefixes.overrides"),
		},
		Warmup: WarmupConfig{
			Enabled:  v.GetBool("warmup.enabled"),
			Schedule: v.GetString("warmup.schedule"),
			Subsets:  v.GetStringSlice("warmup.subsets"),
			OnStart:  v.GetBool("warmup.on_start"),
		},
		Static: StaticConfig{
			Dir:   v.GetString("static.dir"),
			Route: v.GetString("static.route"),
		},
		Docs: DocsConfig{
			Enabled:    v.GetBool("docs.enabled"),
			Explicit:   v.InConfig("docs.enabled") || os.Getenv(EnvPrefix+"_DOCS_ENABLED") != "",
			AllowedIPs: v.GetStringSlice("docs.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
		Profiling: ProfilingConfig{
			Enabled:         v.GetBool("profiling.enabled"),
			ServerAddress:   v.GetString("profiling.server_address"),
			ApplicationName: v.GetString("profiling.application_name"),
			ProfileTypes:    v.GetStringSlice("profiling.profile_types"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv exports the variables of path into the process environment.
// Variables already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// setBoolDefaults registers the switches that default to on; zero-value
// checks in applyDefaults cannot tell false from unset.
func setBoolDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.allow_in_memory_fallback", true)
	v.SetDefault("warmup.enabled", true)
	v.SetDefault("warmup.on_start", true)
	v.SetDefault("docs.enabled", true)
	v.SetDefault("metrics.enabled", true)
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "go-api"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "0.1.0"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Ribbon requests fan out to several upstream calls
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRPS == 0 {
		cfg.HTTP.RateLimitRPS = 20
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 40
	}
	// The API is public and read-only
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Golr.URL == "" {
		cfg.Golr.URL = "http://golr-aux.geneontology.io/solr/"
	}
	if cfg.Golr.Timeout == 0 {
		cfg.Golr.Timeout = 30 * time.Second
	}
	if cfg.Golr.MaxRows == 0 {
		cfg.Golr.MaxRows = 100000
	}
	if cfg.Sparql.URL == "" {
		cfg.Sparql.URL = "http://rdf.geneontology.org/blazegraph/sparql"
	}
	if cfg.Sparql.Timeout == 0 {
		cfg.Sparql.Timeout = 30 * time.Second
	}
	if cfg.MyGene.URL == "" {
		cfg.MyGene.URL = "https://mygene.info/v3/"
	}
	if cfg.MyGene.Timeout == 0 {
		cfg.MyGene.Timeout = 10 * time.Second
	}
	if cfg.Ribbon.MaxConcurrency == 0 {
		cfg.Ribbon.MaxConcurrency = 4
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Cache.L1TTL == 0 {
		cfg.Cache.L1TTL = 5 * time.Minute
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Prefixes.Context == "" {
		cfg.Prefixes.Context = "go"
	}
	if cfg.Warmup.Schedule == "" {
		cfg.Warmup.Schedule = "0 */6 * * *"
	}
	if len(cfg.Warmup.Subsets) == 0 {
		cfg.Warmup.Subsets = []string{"goslim_agr"}
	}
	if cfg.Static.Dir == "" {
		cfg.Static.Dir = "./static"
	}
	if cfg.Static.Route == "" {
		cfg.Static.Route = "/static"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Profiling.ServerAddress == "" {
		cfg.Profiling.ServerAddress = "http://localhost:4040"
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.App.Name
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	port, err := strconv.Atoi(c.App.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("app.port must be a port number between 1 and 65535, got %q", c.App.Port)
	}

	for name, u := range map[string]string{
		"golr.url":   c.Golr.URL,
		"sparql.url": c.Sparql.URL,
		"mygene.url": c.MyGene.URL,
	} {
		if err := validateUpstreamURL(u); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Ribbon.MaxConcurrency <= 0 {
		return fmt.Errorf("ribbon.max_concurrency must be positive")
	}
	if c.Golr.MaxRows <= 0 {
		return fmt.Errorf("golr.max_rows must be positive")
	}
	if c.Cache.TTL < 0 || c.Cache.L1TTL < 0 {
		return fmt.Errorf("cache.ttl and cache.l1_ttl cannot be negative")
	}
	if c.HTTP.RateLimitRPS < 0 || c.HTTP.RateLimitBurst < 0 {
		return fmt.Errorf("http.rate_limit_rps and http.rate_limit_burst cannot be negative")
	}

	if c.Warmup.Enabled {
		if _, err := cron.ParseStandard(c.Warmup.Schedule); err != nil {
			return fmt.Errorf("warmup.schedule %q is not a valid cron expression: %w", c.Warmup.Schedule, err)
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	// Production-specific validations
	if c.App.IsProduction() {
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" && containsFold(c.HTTP.CORSAllowHeaders, "Authorization") {
				return fmt.Errorf("cors_allow_origins cannot be '*' when credentials headers are allowed in production")
			}
		}
		if c.Docs.Enabled && !c.Docs.Explicit {
			return fmt.Errorf("docs.enabled must be set explicitly in production")
		}
	}

	return nil
}

func validateUpstreamURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
