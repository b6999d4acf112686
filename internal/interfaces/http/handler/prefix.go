package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// PrefixConverter expands and contracts CURIEs.
type PrefixConverter interface {
	Prefixes() []string
	Expand(curie string) string
	Contract(uri string) []string
}

// PrefixHandler handles the identifier prefix endpoints
type PrefixHandler struct {
	BaseHandler
	converter PrefixConverter
}

// NewPrefixHandler creates a new PrefixHandler
func NewPrefixHandler(converter PrefixConverter) *PrefixHandler {
	return &PrefixHandler{converter: converter}
}

// ListPrefixes returns every known prefix.
func (h *PrefixHandler) ListPrefixes(c *gin.Context) {
	h.JSON(c, h.converter.Prefixes())
}

// Expand returns the URI of a CURIE, or the input when its prefix is unknown.
func (h *PrefixHandler) Expand(c *gin.Context) {
	h.JSON(c, h.converter.Expand(c.Param("id")))
}

// Contract returns the CURIEs of a URI given as trailing path or as the uri
// query parameter.
func (h *PrefixHandler) Contract(c *gin.Context) {
	uri := strings.TrimPrefix(c.Param("uri"), "/")
	if uri == "" {
		uri = c.Query("uri")
	}
	if uri == "" {
		h.BadRequest(c, "uri is required")
		return
	}
	h.JSON(c, h.converter.Contract(uri))
}
