package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthInfo is the static part of the health report.
type HealthInfo struct {
	Version string
	// Upstreams maps an upstream name to its configured URL.
	Upstreams map[string]string
	// Cache names the result cache backend.
	Cache string
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy"`
	Time      string            `json:"time"`
	Version   string            `json:"version"`
	Upstreams map[string]string `json:"upstreams"`
	Cache     string            `json:"cache"`
}

// HealthHandler serves the liveness probe. Upstreams are reported, not probed.
type HealthHandler struct {
	info HealthInfo
}

// NewHealthHandler creates a HealthHandler
func NewHealthHandler(info HealthInfo) *HealthHandler {
	if info.Upstreams == nil {
		info.Upstreams = map[string]string{}
	}
	return &HealthHandler{info: info}
}

// Health reports that the process is up.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Time:      time.Now().Format(time.RFC3339),
		Version:   h.info.Version,
		Upstreams: h.info.Upstreams,
		Cache:     h.info.Cache,
	})
}
