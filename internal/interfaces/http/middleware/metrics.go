package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geneontology/go-api/internal/infrastructure/telemetry"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	// Metrics receives the observations. Nil disables the middleware.
	Metrics *telemetry.Metrics
	// SkipPaths are not recorded, e.g. the scrape endpoint itself.
	SkipPaths []string
}

// HTTPMetrics records request count, latency and in-flight requests. Requests
// are labelled with the matched route pattern so that path parameters such as
// term ids do not create new series.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if cfg.Metrics == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		done := cfg.Metrics.HTTPRequestStarted()
		defer done()

		start := time.Now()
		c.Next()
		cfg.Metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
