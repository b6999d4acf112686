package router

import (
	"context"
	"net/http"
	"reflect"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geneontology/go-api/internal/interfaces/http/handler"
)

func apiRoutes() []Route {
	r := NewRouter(nil)
	Handlers{
		Prefix:   handler.NewPrefixHandler(nil),
		Ontology: handler.NewOntologyHandler(nil),
		Ribbon:   handler.NewRibbonHandler(nil),
		System:   handler.NewSystemHandler("go-api", "0.1.0"),
	}.Register(r)
	return r.Routes()
}

func buildTestDocument(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := BuildOpenAPI(OpenAPIInfo{Title: "GO API", Version: "0.1.0"}, apiRoutes())
	require.NoError(t, err)
	return doc
}

func TestBuildOpenAPI_Valid(t *testing.T) {
	doc := buildTestDocument(t)

	require.NoError(t, doc.Validate(context.Background()))
	assert.Equal(t, "GO API", doc.Info.Title)
}

func TestBuildOpenAPI_DocumentsEveryRoute(t *testing.T) {
	doc := buildTestDocument(t)

	for _, route := range apiRoutes() {
		item := doc.Paths.Find(openAPIPath(route.Path))
		require.NotNil(t, item, route.Path)
		assert.NotNil(t, item.GetOperation(route.Method), route.Path)
	}
	assert.Equal(t, 10, doc.Paths.Len())
}

func TestBuildOpenAPI_RibbonOperation(t *testing.T) {
	doc := buildTestDocument(t)

	op := doc.Paths.Find("/api/ontology/ribbon").Get
	require.NotNil(t, op)
	assert.Equal(t, []string{"ontology"}, op.Tags)
	assert.Equal(t, "get_api_ontology_ribbon", op.OperationID)

	subject := op.Parameters.GetByInAndName(openapi3.ParameterInQuery, "subject")
	require.NotNil(t, subject)
	assert.True(t, subject.Required)
	assert.True(t, subject.Schema.Value.Type.Is(openapi3.TypeArray))

	excludeIBA := op.Parameters.GetByInAndName(openapi3.ParameterInQuery, "exclude_IBA")
	require.NotNil(t, excludeIBA)
	assert.False(t, excludeIBA.Required)
	assert.True(t, excludeIBA.Schema.Value.Type.Is(openapi3.TypeBoolean))

	ok := op.Responses.Status(http.StatusOK)
	require.NotNil(t, ok)
	assert.Equal(t, "#/components/schemas/Ribbon", ok.Value.Content.Get("application/json").Schema.Ref)

	bad := op.Responses.Status(http.StatusBadGateway)
	require.NotNil(t, bad)
	assert.Equal(t, "#/components/schemas/ErrorResponse", bad.Value.Content.Get("application/json").Schema.Ref)
}

func TestBuildOpenAPI_Components(t *testing.T) {
	doc := buildTestDocument(t)
	schemas := doc.Components.Schemas

	for _, name := range []string{"ErrorResponse", "Term", "TermSubset", "SubsetCategory", "Ribbon",
		"APIResponse_SystemInfoResponse", "APIResponse_PingResponse"} {
		assert.Contains(t, schemas, name)
	}

	subjects := schemas["Ribbon"].Value.Properties["subjects"].Value
	groups := subjects.Items.Value.Properties["groups"].Value
	cell := groups.AdditionalProperties.Schema.Value.AdditionalProperties.Schema.Value
	assert.Contains(t, cell.Properties, "nb_classes")
	assert.Contains(t, cell.Properties, "nb_annotations")
	assert.Contains(t, cell.Properties, "terms")
}

func TestBuildOpenAPI_SkipsUndocumentedRoutes(t *testing.T) {
	doc, err := BuildOpenAPI(OpenAPIInfo{Title: "t", Version: "1"}, []Route{
		{Method: http.MethodGet, Path: "/api/hidden", Tag: "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, doc.Paths.Len())
}

func TestOpenAPIPath(t *testing.T) {
	tests := map[string]string{
		"/api/ontology/term/:id":                 "/api/ontology/term/{id}",
		"/api/ontology/term/:id/subsets":         "/api/ontology/term/{id}/subsets",
		"/api/identifier/prefixes/contract/*uri": "/api/identifier/prefixes/contract/{uri}",
		"/api/ontology/ribbon/":                  "/api/ontology/ribbon",
		"/":                                      "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, openAPIPath(in), in)
	}
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "PingResponse", componentName(reflect.TypeOf(handler.PingResponse{})))
	assert.Equal(t, "APIResponse_PingResponse", componentName(reflect.TypeOf(handler.APIResponse[handler.PingResponse]{})))
}
