package router

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/geneontology/go-api/internal/domain/ontology"
	"github.com/geneontology/go-api/internal/interfaces/http/handler"
)

const (
	openAPIVersion    = "3.0.3"
	errorSchemaName   = "ErrorResponse"
	componentsRefRoot = "#/components/schemas/"
)

var groupCountType = reflect.TypeOf(ontology.GroupCount{})

// OpenAPIInfo is the metadata of the generated document.
type OpenAPIInfo struct {
	Title       string
	Version     string
	Description string
}

// BuildOpenAPI builds an OpenAPI document from the documented routes.
// Undocumented routes are left out.
func BuildOpenAPI(info OpenAPIInfo, routes []Route) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: openAPIVersion,
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	gen := newSchemaGenerator(doc.Components.Schemas)
	errorRef, err := gen.component(errorSchemaName, handler.ErrorResponse{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, route := range routes {
		if route.Doc == nil {
			continue
		}
		p := openAPIPath(route.Path)
		key := route.Method + " " + p
		// /ribbon and /ribbon/ are the same operation
		if seen[key] {
			continue
		}
		seen[key] = true

		op, err := gen.operation(route, errorRef)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", route.Method, route.Path, err)
		}
		doc.AddOperation(p, route.Method, op)
	}
	return doc, nil
}

type schemaGenerator struct {
	schemas openapi3.Schemas
	names   map[reflect.Type]string
}

func newSchemaGenerator(schemas openapi3.Schemas) *schemaGenerator {
	return &schemaGenerator{schemas: schemas, names: make(map[reflect.Type]string)}
}

// component registers the schema of value under name and returns a reference to it.
func (g *schemaGenerator) component(name string, value any) (*openapi3.SchemaRef, error) {
	ref, err := openapi3gen.NewSchemaRefForValue(value, nil, openapi3gen.SchemaCustomizer(customizeSchema))
	if err != nil {
		return nil, err
	}
	g.schemas[name] = ref
	return &openapi3.SchemaRef{Ref: componentsRefRoot + name, Value: ref.Value}, nil
}

// response returns the schema of a response sample. Named struct types, and
// slices of them, become components named after the type.
func (g *schemaGenerator) response(value any) (*openapi3.SchemaRef, error) {
	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch {
	case t.Kind() == reflect.Struct && t.Name() != "":
		return g.named(t, value)
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Struct && t.Elem().Name() != "":
		items, err := g.named(t.Elem(), reflect.Zero(t.Elem()).Interface())
		if err != nil {
			return nil, err
		}
		list := openapi3.NewArraySchema()
		list.Items = items
		return list.NewRef(), nil
	}
	return openapi3gen.NewSchemaRefForValue(value, nil, openapi3gen.SchemaCustomizer(customizeSchema))
}

func (g *schemaGenerator) named(t reflect.Type, value any) (*openapi3.SchemaRef, error) {
	if name, ok := g.names[t]; ok {
		return &openapi3.SchemaRef{Ref: componentsRefRoot + name, Value: g.schemas[name].Value}, nil
	}
	name := componentName(t)
	ref, err := g.component(name, value)
	if err != nil {
		return nil, err
	}
	g.names[t] = name
	return ref, nil
}

func (g *schemaGenerator) operation(route Route, errorRef *openapi3.SchemaRef) (*openapi3.Operation, error) {
	op := openapi3.NewOperation()
	op.Tags = []string{route.Tag}
	op.Summary = route.Doc.Summary
	op.Description = route.Doc.Description
	op.OperationID = operationID(route)

	for _, p := range route.Doc.Params {
		op.AddParameter(parameter(p))
	}

	ok := openapi3.NewResponse().WithDescription("Successful Response")
	if route.Doc.Response != nil {
		ref, err := g.response(route.Doc.Response)
		if err != nil {
			return nil, err
		}
		ok.WithJSONSchemaRef(ref)
	}
	op.AddResponse(http.StatusOK, ok)

	for _, status := range route.Doc.Errors {
		op.AddResponse(status, openapi3.NewResponse().
			WithDescription(http.StatusText(status)).
			WithJSONSchemaRef(errorRef))
	}
	return op, nil
}

func parameter(p ParamDoc) *openapi3.Parameter {
	var param *openapi3.Parameter
	if p.In == InPath {
		param = openapi3.NewPathParameter(p.Name)
	} else {
		param = openapi3.NewQueryParameter(p.Name).WithRequired(p.Required)
	}

	var schema *openapi3.Schema
	switch p.Type {
	case "boolean":
		schema = openapi3.NewBoolSchema()
	case "integer":
		schema = openapi3.NewIntegerSchema()
	default:
		schema = openapi3.NewStringSchema()
	}
	if p.Array {
		schema = openapi3.NewArraySchema().WithItems(schema)
	}
	param.Example = p.Example
	return param.WithDescription(p.Description).WithSchema(schema)
}

// customizeSchema describes ribbon cells, which marshal through MarshalJSON.
func customizeSchema(_ string, t reflect.Type, _ reflect.StructTag, schema *openapi3.Schema) error {
	if t != groupCountType {
		return nil
	}
	schema.Type = &openapi3.Types{openapi3.TypeObject}
	schema.Properties = openapi3.Schemas{
		"nb_classes":     openapi3.NewIntegerSchema().NewRef(),
		"nb_annotations": openapi3.NewIntegerSchema().NewRef(),
		"terms":          openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()).NewRef(),
	}
	schema.Required = []string{"nb_classes", "nb_annotations"}
	return nil
}

// componentName names a schema after its Go type. Type arguments of generic
// types lose their package path: APIResponse[pkg.PingResponse] becomes
// APIResponse_PingResponse.
func componentName(t reflect.Type) string {
	name, args, generic := strings.Cut(t.Name(), "[")
	if !generic {
		return name
	}
	for _, arg := range strings.Split(strings.TrimSuffix(args, "]"), ",") {
		if i := strings.LastIndex(arg, "."); i >= 0 {
			arg = arg[i+1:]
		}
		name += "_" + arg
	}
	return name
}

// openAPIPath converts a gin pattern to an OpenAPI path template.
func openAPIPath(ginPath string) string {
	if len(ginPath) > 1 {
		ginPath = strings.TrimSuffix(ginPath, "/")
	}
	segments := strings.Split(ginPath, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "*") {
			segments[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

func operationID(route Route) string {
	var parts []string
	for _, s := range strings.Split(route.Path, "/") {
		s = strings.Trim(s, ":*{}")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToLower(route.Method) + "_" + strings.Join(parts, "_")
}
