package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/gjson"

	"github.com/geneontology/go-api/internal/domain/ontology"
)

// GOlr document categories.
const (
	DocumentOntologyClass = "ontology_class"
	DocumentAnnotation    = "annotation"
	DocumentBioentity     = "bioentity"
)

// Query is a GOlr select request. Filters are raw Solr filter queries added
// after the document category filter.
type Query struct {
	Document string
	Q        string
	QF       string
	Filters  []string
	Fields   []string
	Rows     int
}

// Values encodes the query as Solr select parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	text := q.Q
	if text == "" {
		text = "*:*"
	}
	v.Set("q", text)
	v.Set("qf", q.QF)
	v.Add("fq", fmt.Sprintf("document_category:%q", q.Document))
	for _, f := range q.Filters {
		v.Add("fq", f)
	}
	v.Set("fl", strings.Join(q.Fields, ","))
	if q.Rows > 0 {
		v.Set("rows", strconv.Itoa(q.Rows))
	}
	v.Set("wt", "json")
	return v
}

// CacheKey fingerprints the query. url.Values.Encode sorts keys, so equal
// queries always hash the same.
func (q Query) CacheKey() string {
	return "golr:" + q.Document + ":" + strconv.FormatUint(xxhash.Sum64String(q.Values().Encode()), 16)
}

// Documents is the raw JSON array found at response.docs.
type Documents []byte

// Len returns the number of documents.
func (d Documents) Len() int {
	if len(d) == 0 {
		return 0
	}
	return int(gjson.GetBytes(d, "#").Int())
}

// Each calls fn for every document until fn returns false.
func (d Documents) Each(fn func(doc gjson.Result) bool) {
	if len(d) == 0 {
		return
	}
	gjson.ParseBytes(d).ForEach(func(_, doc gjson.Result) bool {
		return fn(doc)
	})
}

// Searcher runs GOlr queries.
type Searcher interface {
	Search(ctx context.Context, q Query) (Documents, error)
}

// GolrClient queries the GOlr Solr index.
type GolrClient struct {
	*httpDoer
	selectURL string
	maxRows   int
}

// NewGolrClient creates a GOlr client. maxRows caps the rows of any query.
func NewGolrClient(opts Options, maxRows int) (*GolrClient, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("golr: invalid base URL %q", opts.BaseURL)
	}
	return &GolrClient{
		httpDoer:  newHTTPDoer("golr", opts),
		selectURL: strings.TrimSuffix(opts.BaseURL, "/") + "/select",
		maxRows:   maxRows,
	}, nil
}

// Search runs q and returns response.docs.
func (c *GolrClient) Search(ctx context.Context, q Query) (Documents, error) {
	if q.Document == "" {
		return nil, fmt.Errorf("golr: document category is required")
	}
	if c.maxRows > 0 && (q.Rows <= 0 || q.Rows > c.maxRows) {
		q.Rows = c.maxRows
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.selectURL+"?"+q.Values().Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("golr: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, c.invalidResponse("body is not JSON")
	}
	docs := gjson.GetBytes(body, "response.docs")
	if !docs.IsArray() {
		return nil, c.invalidResponse("missing response.docs")
	}
	return Documents(docs.Raw), nil
}

// DecodeSubsetTerms reads ontology_class documents as subset terms with their source.
func DecodeSubsetTerms(docs Documents) []ontology.SourcedTerm {
	terms := make([]ontology.SourcedTerm, 0, docs.Len())
	docs.Each(func(doc gjson.Result) bool {
		terms = append(terms, ontology.SourcedTerm{
			SubsetTerm: ontology.SubsetTerm{
				AnnotationClass:      doc.Get("annotation_class").String(),
				AnnotationClassLabel: doc.Get("annotation_class_label").String(),
				Description:          doc.Get("description").String(),
			},
			Source: doc.Get("source").String(),
		})
		return true
	})
	return terms
}

// DecodeTerms reads ontology_class documents.
func DecodeTerms(docs Documents) []ontology.Term {
	terms := make([]ontology.Term, 0, docs.Len())
	docs.Each(func(doc gjson.Result) bool {
		terms = append(terms, ontology.Term{
			AnnotationClass:      doc.Get("annotation_class").String(),
			AnnotationClassLabel: doc.Get("annotation_class_label").String(),
			Description:          doc.Get("description").String(),
			Synonyms:             stringList(doc.Get("synonym")),
			IsObsolete:           doc.Get("is_obsolete").Bool(),
			Source:               doc.Get("source").String(),
		})
		return true
	})
	return terms
}

// DecodeAnnotations reads annotation documents.
func DecodeAnnotations(docs Documents) []ontology.Annotation {
	annotations := make([]ontology.Annotation, 0, docs.Len())
	docs.Each(func(doc gjson.Result) bool {
		annotations = append(annotations, ontology.Annotation{
			AnnotationClass:  doc.Get("annotation_class").String(),
			EvidenceType:     doc.Get("evidence_type").String(),
			RegulatesClosure: stringList(doc.Get("regulates_closure")),
			Aspect:           doc.Get("aspect").String(),
		})
		return true
	})
	return annotations
}

// DecodeBioentities reads bioentity documents.
func DecodeBioentities(docs Documents) []ontology.Bioentity {
	entities := make([]ontology.Bioentity, 0, docs.Len())
	docs.Each(func(doc gjson.Result) bool {
		entities = append(entities, ontology.Bioentity{
			ID:         doc.Get("bioentity").String(),
			Label:      doc.Get("bioentity_label").String(),
			TaxonID:    doc.Get("taxon").String(),
			TaxonLabel: doc.Get("taxon_label").String(),
		})
		return true
	})
	return entities
}

// stringList accepts both multi-valued and single-valued Solr fields.
func stringList(r gjson.Result) []string {
	if !r.Exists() {
		return []string{}
	}
	if !r.IsArray() {
		return []string{r.String()}
	}
	arr := r.Array()
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		out = append(out, v.String())
	}
	return out
}
