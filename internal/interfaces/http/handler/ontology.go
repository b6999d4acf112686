package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/geneontology/go-api/internal/domain/ontology"
	"github.com/geneontology/go-api/internal/interfaces/http/middleware"
)

// OntologyService is the part of the ontology application service used by
// OntologyHandler.
type OntologyService interface {
	Term(ctx context.Context, termID string) (*ontology.Term, error)
	TermSubsets(ctx context.Context, termID string) ([]ontology.TermSubset, error)
	Subset(ctx context.Context, subsetID string) ([]ontology.SubsetCategory, error)
}

// OntologyHandler handles GO term and subset endpoints
type OntologyHandler struct {
	BaseHandler
	service OntologyService
}

// NewOntologyHandler creates a new OntologyHandler
func NewOntologyHandler(service OntologyService) *OntologyHandler {
	return &OntologyHandler{service: service}
}

// TermURI binds the term id path parameter.
type TermURI struct {
	ID string `uri:"id" binding:"required,curie" example:"GO:0006259"`
}

// SubsetURI binds the subset id path parameter.
type SubsetURI struct {
	ID string `uri:"id" binding:"required" example:"goslim_agr"`
}

// GetTerm returns one ontology class.
func (h *OntologyHandler) GetTerm(c *gin.Context) {
	var uri TermURI
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	term, err := h.service.Term(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.JSON(c, term)
}

// GetTermSubsets returns the subsets (slims) a term belongs to.
func (h *OntologyHandler) GetTermSubsets(c *gin.Context) {
	var uri TermURI
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	subsets, err := h.service.TermSubsets(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.JSON(c, subsets)
}

// GetSubset returns the categories and terms of a subset.
func (h *OntologyHandler) GetSubset(c *gin.Context) {
	var uri SubsetURI
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	categories, err := h.service.Subset(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.JSON(c, categories)
}
