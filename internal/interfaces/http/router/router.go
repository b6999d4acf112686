package router

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultBasePath prefixes every domain group.
const DefaultBasePath = "/api"

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
	// Routes lists the registered routes with their full paths under basePath.
	Routes(basePath string) []Route
}

// Route describes one registered endpoint.
type Route struct {
	Method string
	// Path is the gin route pattern, for example /api/ontology/term/:id
	Path string
	// Tag is the name of the domain group that owns the route
	Tag string
	Doc *RouteDoc
}

// RouteDoc documents a route in the OpenAPI document.
type RouteDoc struct {
	Summary     string
	Description string
	Params      []ParamDoc
	// Response is a sample value whose type describes the 200 body
	Response any
	// Errors lists the error statuses the route can answer with
	Errors []int
}

// ParamDoc documents a path or query parameter.
type ParamDoc struct {
	Name        string
	In          string
	Description string
	Required    bool
	// Type is an OpenAPI scalar type, string when empty
	Type    string
	Array   bool
	Example any
}

// Parameter locations
const (
	InPath  = "path"
	InQuery = "query"
)

// PathParam documents a required path parameter.
func PathParam(name, description string, example any) ParamDoc {
	return ParamDoc{Name: name, In: InPath, Description: description, Required: true, Example: example}
}

// QueryParam documents a query parameter.
func QueryParam(name, description string) ParamDoc {
	return ParamDoc{Name: name, In: InQuery, Description: description}
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	basePath   string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithBasePath sets the path prefix of the domain groups.
func WithBasePath(basePath string) RouterOption {
	return func(r *Router) {
		r.basePath = basePath
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		basePath:   DefaultBasePath,
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.basePath)

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Routes lists every route of the registered groups in registration order.
func (r *Router) Routes() []Route {
	var routes []Route
	for _, registrar := range r.registrars {
		routes = append(routes, registrar.Routes(r.basePath)...)
	}
	return routes
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
	doc      *RouteDoc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{
		name:       name,
		prefix:     prefix,
		routes:     make([]routeDefinition, 0),
		subgroups:  make([]*DomainGroup, 0),
		middleware: make([]gin.HandlerFunc, 0),
	}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{
		method:   http.MethodGet,
		path:     path,
		handlers: handlers,
	})
	return dg
}

// Document attaches documentation to the most recently registered route.
func (dg *DomainGroup) Document(doc RouteDoc) *DomainGroup {
	if len(dg.routes) > 0 {
		dg.routes[len(dg.routes)-1].doc = &doc
	}
	return dg
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)

	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}

	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Routes implements RouteRegistrar interface
func (dg *DomainGroup) Routes(basePath string) []Route {
	base := joinPaths(basePath, dg.prefix)
	routes := make([]Route, 0, len(dg.routes))
	for _, route := range dg.routes {
		routes = append(routes, Route{
			Method: route.method,
			Path:   joinPaths(base, route.path),
			Tag:    dg.name,
			Doc:    route.doc,
		})
	}
	for _, subgroup := range dg.subgroups {
		routes = append(routes, subgroup.Routes(base)...)
	}
	return routes
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// joinPaths joins like gin does, keeping a trailing slash of the relative path.
func joinPaths(absolute, relative string) string {
	if relative == "" {
		return absolute
	}
	joined := path.Join(absolute, relative)
	if strings.HasSuffix(relative, "/") && !strings.HasSuffix(joined, "/") {
		return joined + "/"
	}
	return joined
}
