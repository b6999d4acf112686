package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inEmptyDir runs the test from a directory without config.toml or .env.
func inEmptyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inEmptyDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "go-api", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "0.1.0", cfg.App.Version)

	assert.Equal(t, "http://golr-aux.geneontology.io/solr/", cfg.Golr.URL)
	assert.Equal(t, 30*time.Second, cfg.Golr.Timeout)
	assert.Equal(t, 100000, cfg.Golr.MaxRows)
	assert.Equal(t, "http://rdf.geneontology.org/blazegraph/sparql", cfg.Sparql.URL)
	assert.Equal(t, "https://mygene.info/v3/", cfg.MyGene.URL)
	assert.Equal(t, 10*time.Second, cfg.MyGene.Timeout)

	assert.Equal(t, 4, cfg.Ribbon.MaxConcurrency)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.L1TTL)
	assert.False(t, cfg.Cache.RedisEnabled)
	assert.True(t, cfg.Cache.AllowInMemoryFallback)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)

	assert.Equal(t, "go", cfg.Prefixes.Context)
	assert.Empty(t, cfg.Prefixes.Overrides)

	assert.True(t, cfg.Warmup.Enabled)
	assert.True(t, cfg.Warmup.OnStart)
	assert.Equal(t, "0 */6 * * *", cfg.Warmup.Schedule)
	assert.Equal(t, []string{"goslim_agr"}, cfg.Warmup.Subsets)

	assert.Equal(t, "./static", cfg.Static.Dir)
	assert.Equal(t, "/static", cfg.Static.Route)
	assert.True(t, cfg.Docs.Enabled)
	assert.False(t, cfg.Docs.Explicit)

	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowOrigins)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.False(t, cfg.HTTP.RateLimitEnabled)
	assert.Equal(t, float64(20), cfg.HTTP.RateLimitRPS)
	assert.Equal(t, 40, cfg.HTTP.RateLimitBurst)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "go-api", cfg.Telemetry.ServiceName)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("GOAPI_APP_PORT", "9000")
	t.Setenv("GOAPI_GOLR_URL", "https://golr.example.org/solr/")
	t.Setenv("GOAPI_RIBBON_MAX_CONCURRENCY", "8")
	t.Setenv("GOAPI_CACHE_ENABLED", "false")
	t.Setenv("GOAPI_CACHE_TTL", "10m")
	t.Setenv("GOAPI_WARMUP_ON_START", "false")
	t.Setenv("GOAPI_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "https://golr.example.org/solr/", cfg.Golr.URL)
	assert.Equal(t, 8, cfg.Ribbon.MaxConcurrency)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Warmup.OnStart)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := inEmptyDir(t)
	toml := `
[app]
name = "go-api-staging"

[prefixes]
context = "go"

[prefixes.overrides]
MGI = "http://www.informatics.jax.org/accession/MGI:"

[warmup]
subsets = ["goslim_agr", "goslim_generic"]

[profiling]
profile_types = ["cpu", "mutex_count"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "go-api-staging", cfg.App.Name)
	assert.Equal(t, "go-api-staging", cfg.Telemetry.ServiceName)
	assert.Equal(t, []string{"goslim_agr", "goslim_generic"}, cfg.Warmup.Subsets)
	assert.Equal(t, []string{"cpu", "mutex_count"}, cfg.Profiling.ProfileTypes)
	// viper lower-cases map keys
	assert.Equal(t, "http://www.informatics.jax.org/accession/MGI:", cfg.Prefixes.Overrides["mgi"])
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inEmptyDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GOAPI_APP_NAME=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GOAPI_APP_NAME") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.App.Name)
}

func TestLoad_EnvironmentWinsOverDotEnv(t *testing.T) {
	dir := inEmptyDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GOAPI_APP_NAME=from-dotenv\n"), 0o600))
	t.Setenv("GOAPI_APP_NAME", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.App.Name)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "port must be numeric",
			env:     map[string]string{"GOAPI_APP_PORT": "http"},
			wantErr: "app.port",
		},
		{
			name:    "negative port",
			env:     map[string]string{"GOAPI_APP_PORT": "-1"},
			wantErr: "app.port",
		},
		{
			name:    "sampling ratio above one",
			env:     map[string]string{"GOAPI_TELEMETRY_SAMPLING_RATIO": "1.5"},
			wantErr: "telemetry.sampling_ratio",
		},
		{
			name:    "invalid cron schedule",
			env:     map[string]string{"GOAPI_WARMUP_SCHEDULE": "every six hours"},
			wantErr: "warmup.schedule",
		},
		{
			name:    "negative ribbon concurrency",
			env:     map[string]string{"GOAPI_RIBBON_MAX_CONCURRENCY": "-2"},
			wantErr: "ribbon.max_concurrency",
		},
		{
			name:    "upstream URL must be http",
			env:     map[string]string{"GOAPI_SPARQL_URL": "ftp://rdf.geneontology.org/sparql"},
			wantErr: "sparql.url",
		},
		{
			name:    "upstream URL needs a host",
			env:     map[string]string{"GOAPI_MYGENE_URL": "https://"},
			wantErr: "mygene.url",
		},
		{
			name:    "production requires explicit docs switch",
			env:     map[string]string{"GOAPI_APP_ENV": "production"},
			wantErr: "docs.enabled must be set explicitly",
		},
		{
			name: "production rejects wildcard CORS with credentials",
			env: map[string]string{
				"GOAPI_APP_ENV":                 "production",
				"GOAPI_DOCS_ENABLED":            "false",
				"GOAPI_HTTP_CORS_ALLOW_HEADERS": "Content-Type Authorization",
			},
			wantErr: "cors_allow_origins",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inEmptyDir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidScheduleIgnoredWhenWarmupDisabled(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("GOAPI_WARMUP_ENABLED", "false")
	t.Setenv("GOAPI_WARMUP_SCHEDULE", "not cron")

	_, err := Load()
	require.NoError(t, err)
}

func TestLoad_ProductionWithExplicitDocs(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("GOAPI_APP_ENV", "production")
	t.Setenv("GOAPI_DOCS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProduction())
	assert.True(t, cfg.Docs.Enabled)
	assert.True(t, cfg.Docs.Explicit)
}
