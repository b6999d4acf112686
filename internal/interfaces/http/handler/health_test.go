package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler(HealthInfo{
		Version:   "0.1.0",
		Upstreams: map[string]string{"golr": "http://golr-aux.geneontology.io/solr/"},
		Cache:     "tiered",
	})
	c, w := newTestContext()

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "0.1.0", resp.Version)
	assert.Equal(t, "tiered", resp.Cache)
	assert.Equal(t, "http://golr-aux.geneontology.io/solr/", resp.Upstreams["golr"])
	assert.NotEmpty(t, resp.Time)
}
