package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/geneontology/go-api/internal/domain/ontology"
	"github.com/geneontology/go-api/internal/domain/shared"
	"github.com/geneontology/go-api/internal/interfaces/http/dto"
	"github.com/geneontology/go-api/internal/interfaces/http/middleware"
)

// MockOntologyService implements OntologyService and RibbonService for testing
type MockOntologyService struct {
	mock.Mock
}

func (m *MockOntologyService) Term(ctx context.Context, termID string) (*ontology.Term, error) {
	args := m.Called(ctx, termID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ontology.Term), args.Error(1)
}

func (m *MockOntologyService) TermSubsets(ctx context.Context, termID string) ([]ontology.TermSubset, error) {
	args := m.Called(ctx, termID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ontology.TermSubset), args.Error(1)
}

func (m *MockOntologyService) Subset(ctx context.Context, subsetID string) ([]ontology.SubsetCategory, error) {
	args := m.Called(ctx, subsetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ontology.SubsetCategory), args.Error(1)
}

func (m *MockOntologyService) Ribbon(ctx context.Context, req ontology.RibbonRequest) (*ontology.Ribbon, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ontology.Ribbon), args.Error(1)
}

func setupOntologyRouter(svc *MockOntologyService) *gin.Engine {
	middleware.SetupValidator()
	h := NewOntologyHandler(svc)
	r := gin.New()
	r.GET("/api/ontology/term/:id", h.GetTerm)
	r.GET("/api/ontology/term/:id/subsets", h.GetTermSubsets)
	r.GET("/api/ontology/subset/:id", h.GetSubset)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestOntologyHandler_GetTerm(t *testing.T) {
	svc := new(MockOntologyService)
	svc.On("Term", mock.Anything, "GO:0006259").Return(&ontology.Term{
		AnnotationClass:      "GO:0006259",
		AnnotationClassLabel: "DNA metabolic process",
		Source:               "biological_process",
	}, nil)

	w := get(setupOntologyRouter(svc), "/api/ontology/term/GO:0006259")

	assert.Equal(t, http.StatusOK, w.Code)
	var term ontology.Term
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &term))
	assert.Equal(t, "DNA metabolic process", term.AnnotationClassLabel)
	svc.AssertExpectations(t)
}

func TestOntologyHandler_GetTerm_NotFound(t *testing.T) {
	svc := new(MockOntologyService)
	svc.On("Term", mock.Anything, "GO:9999999").Return(nil, shared.ErrNotFound.WithMessage("term GO:9999999 not found"))

	w := get(setupOntologyRouter(svc), "/api/ontology/term/GO:9999999")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)
}

func TestOntologyHandler_GetTerm_NotACURIE(t *testing.T) {
	svc := new(MockOntologyService)

	w := get(setupOntologyRouter(svc), "/api/ontology/term/0006259")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	info := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeValidation, info.Code)
	require.Len(t, info.Details, 1)
	assert.Equal(t, "id", info.Details[0].Field)
	assert.Equal(t, "curie", info.Details[0].Code)
	svc.AssertNotCalled(t, "Term", mock.Anything, mock.Anything)
}

func TestOntologyHandler_GetTermSubsets(t *testing.T) {
	svc := new(MockOntologyService)
	svc.On("TermSubsets", mock.Anything, "GO:0006259").Return([]ontology.TermSubset{
		{Label: "AGR slim", Subset: "goslim_agr"},
		{Label: "Generic GO slim", Subset: "goslim_generic"},
	}, nil)

	w := get(setupOntologyRouter(svc), "/api/ontology/term/GO:0006259/subsets")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"label":"AGR slim","subset":"goslim_agr"},
		{"label":"Generic GO slim","subset":"goslim_generic"}
	]`, w.Body.String())
}

func TestOntologyHandler_GetTermSubsets_UpstreamDown(t *testing.T) {
	svc := new(MockOntologyService)
	svc.On("TermSubsets", mock.Anything, "GO:0006259").Return(nil, shared.ErrUpstreamUnavailable.WithMessage("sparql is unavailable"))

	w := get(setupOntologyRouter(svc), "/api/ontology/term/GO:0006259/subsets")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "sparql is unavailable", decodeError(t, w).Message)
}

func TestOntologyHandler_GetSubset(t *testing.T) {
	svc := new(MockOntologyService)
	svc.On("Subset", mock.Anything, "goslim_agr").Return([]ontology.SubsetCategory{{
		AnnotationClass:      "GO:0003674",
		AnnotationClassLabel: "molecular_function",
		Terms: []ontology.SubsetTerm{
			{AnnotationClass: "GO:0003824", AnnotationClassLabel: "catalytic activity"},
		},
	}}, nil)

	w := get(setupOntologyRouter(svc), "/api/ontology/subset/goslim_agr")

	assert.Equal(t, http.StatusOK, w.Code)
	var categories []ontology.SubsetCategory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &categories))
	require.Len(t, categories, 1)
	assert.Equal(t, "GO:0003674", categories[0].AnnotationClass)
	assert.Len(t, categories[0].Terms, 1)
}

func TestOntologyHandler_GetSubset_Unknown(t *testing.T) {
	svc := new(MockOntologyService)
	svc.On("Subset", mock.Anything, "no_such_slim").Return([]ontology.SubsetCategory{}, nil)

	w := get(setupOntologyRouter(svc), "/api/ontology/subset/no_such_slim")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
