package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/geneontology/go-api/internal/domain/ontology"
	"github.com/geneontology/go-api/internal/interfaces/http/middleware"
)

// RibbonService builds annotation ribbons.
type RibbonService interface {
	Ribbon(ctx context.Context, req ontology.RibbonRequest) (*ontology.Ribbon, error)
}

// RibbonHandler handles the ribbon endpoint
type RibbonHandler struct {
	BaseHandler
	service RibbonService
}

// NewRibbonHandler creates a new RibbonHandler
func NewRibbonHandler(service RibbonService) *RibbonHandler {
	return &RibbonHandler{service: service}
}

// RibbonQuery binds the query string of a ribbon request. Parameter names
// follow the GO ribbon widget.
type RibbonQuery struct {
	Subset      string    `form:"subset" binding:"required" example:"goslim_agr"`
	Subjects    []string  `form:"subject" binding:"required,min=1" example:"RGD:620474"`
	ECodes      []string  `form:"ecodes" example:"EXP"`
	ExcludeIBA  QueryBool `form:"exclude_IBA"`
	ExcludePB   QueryBool `form:"exclude_PB"`
	CrossAspect QueryBool `form:"cross_aspect"`
}

// QueryBool is a query flag accepting the spellings widgets send:
// true/false, 1/0, yes/no, y/n, on/off and t/f in any case. An empty value
// is false.
type QueryBool bool

// UnmarshalParam implements binding.BindUnmarshaler.
func (b *QueryBool) UnmarshalParam(param string) error {
	switch strings.ToLower(strings.TrimSpace(param)) {
	case "1", "true", "t", "yes", "y", "on":
		*b = true
	case "", "0", "false", "f", "no", "n", "off":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", param)
	}
	return nil
}

var _ binding.BindUnmarshaler = (*QueryBool)(nil)

// Request converts the query to a service request.
func (q RibbonQuery) Request() ontology.RibbonRequest {
	return ontology.RibbonRequest{
		Subset:      q.Subset,
		Subjects:    q.Subjects,
		ECodes:      q.ECodes,
		ExcludeIBA:  bool(q.ExcludeIBA),
		ExcludePB:   bool(q.ExcludePB),
		CrossAspect: bool(q.CrossAspect),
	}
}

// GetRibbon summarizes the annotations of the requested genes against a subset.
func (h *RibbonHandler) GetRibbon(c *gin.Context) {
	var q RibbonQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ribbon, err := h.service.Ribbon(c.Request.Context(), q.Request())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.JSON(c, ribbon)
}
