package router

import (
	"net/http"

	"github.com/geneontology/go-api/internal/domain/ontology"
	"github.com/geneontology/go-api/internal/interfaces/http/handler"
)

// Handlers bundles the handlers served under the API base path.
type Handlers struct {
	Prefix   *handler.PrefixHandler
	Ontology *handler.OntologyHandler
	Ribbon   *handler.RibbonHandler
	System   *handler.SystemHandler
}

// IdentifierRoutes serves the CURIE prefix endpoints.
func IdentifierRoutes(h *handler.PrefixHandler) *DomainGroup {
	g := NewDomainGroup("identifier", "/identifier/prefixes")

	g.GET("", h.ListPrefixes).Document(RouteDoc{
		Summary:  "List prefixes",
		Response: []string{},
	})
	g.GET("/expand/:id", h.Expand).Document(RouteDoc{
		Summary:     "Expand a CURIE",
		Description: "Returns the URI of a CURIE, or the input unchanged when its prefix is unknown.",
		Params:      []ParamDoc{PathParam("id", "CURIE to expand", "GO:0008150")},
		Response:    "",
	})
	// The query form is registered ahead of the catch-all
	g.GET("/contract", h.Contract).Document(RouteDoc{
		Summary: "Contract a URI",
		Params: []ParamDoc{{
			Name: "uri", In: InQuery, Required: true,
			Description: "URI to contract", Example: "http://purl.obolibrary.org/obo/GO_0008150",
		}},
		Response: []string{},
		Errors:   []int{http.StatusBadRequest},
	})
	g.GET("/contract/*uri", h.Contract).Document(RouteDoc{
		Summary:     "Contract a URI given in the path",
		Description: "Returns every CURIE form of the URI, most specific prefix first.",
		Params:      []ParamDoc{PathParam("uri", "URI to contract", "http://purl.obolibrary.org/obo/GO_0008150")},
		Response:    []string{},
	})
	return g
}

// OntologyRoutes serves terms, subsets and ribbons.
func OntologyRoutes(h *handler.OntologyHandler, ribbon *handler.RibbonHandler) *DomainGroup {
	g := NewDomainGroup("ontology", "/ontology")
	termErrors := []int{http.StatusBadRequest, http.StatusNotFound, http.StatusBadGateway, http.StatusGatewayTimeout}
	upstreamErrors := []int{http.StatusBadRequest, http.StatusBadGateway, http.StatusGatewayTimeout}

	g.GET("/term/:id", h.GetTerm).Document(RouteDoc{
		Summary:  "Get an ontology term",
		Params:   []ParamDoc{PathParam("id", "GO term id", "GO:0006259")},
		Response: &ontology.Term{},
		Errors:   termErrors,
	})
	g.GET("/term/:id/subsets", h.GetTermSubsets).Document(RouteDoc{
		Summary:  "List the subsets of a term",
		Params:   []ParamDoc{PathParam("id", "GO term id", "GO:0006259")},
		Response: []ontology.TermSubset{},
		Errors:   upstreamErrors,
	})
	g.GET("/subset/:id", h.GetSubset).Document(RouteDoc{
		Summary:     "Get the categories of a subset",
		Description: "Categories are grouped by aspect. An unknown subset has no categories.",
		Params:      []ParamDoc{PathParam("id", "Subset id", "goslim_agr")},
		Response:    []ontology.SubsetCategory{},
		Errors:      upstreamErrors,
	})

	ribbonDoc := RouteDoc{
		Summary:     "Summarize gene annotations against a subset",
		Description: "Counts the annotations of each subject per subset category and evidence code.",
		Params: []ParamDoc{
			{Name: "subset", In: InQuery, Required: true, Description: "Subset id", Example: "goslim_agr"},
			{Name: "subject", In: InQuery, Required: true, Array: true, Description: "Gene ids, repeated"},
			{Name: "ecodes", In: InQuery, Array: true, Description: "Evidence codes to keep, repeated"},
			{Name: "exclude_IBA", In: InQuery, Type: "boolean", Description: "Drop IBA annotations"},
			{Name: "exclude_PB", In: InQuery, Type: "boolean", Description: "Drop protein binding annotations"},
			{Name: "cross_aspect", In: InQuery, Type: "boolean", Description: "Count annotations of other aspects"},
		},
		Response: &ontology.Ribbon{},
		Errors:   upstreamErrors,
	}
	g.GET("/ribbon/", ribbon.GetRibbon).Document(ribbonDoc)
	g.GET("/ribbon", ribbon.GetRibbon).Document(ribbonDoc)
	return g
}

// SystemRoutes serves the service information endpoints.
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")

	g.GET("/info", h.GetSystemInfo).Document(RouteDoc{
		Summary:  "Service information",
		Response: handler.APIResponse[handler.SystemInfoResponse]{},
	})
	g.GET("/ping", h.Ping).Document(RouteDoc{
		Summary:  "Ping",
		Response: handler.APIResponse[handler.PingResponse]{},
	})
	return g
}

// Register adds every API group of h to r.
func (h Handlers) Register(r *Router) {
	r.Register(IdentifierRoutes(h.Prefix)).
		Register(OntologyRoutes(h.Ontology, h.Ribbon)).
		Register(SystemRoutes(h.System))
}
