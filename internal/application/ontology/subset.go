package ontology

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/geneontology/go-api/internal/domain/ontology"
	"github.com/geneontology/go-api/internal/domain/prefix"
	"github.com/geneontology/go-api/internal/domain/shared"
	"github.com/geneontology/go-api/internal/infrastructure/logger"
	"github.com/geneontology/go-api/internal/infrastructure/telemetry"
	"github.com/geneontology/go-api/internal/infrastructure/upstream"
)

const inSubsetPredicate = "http://www.geneontology.org/formats/oboInOwl#inSubset"

var subsetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

var (
	subsetTermFields = []string{"annotation_class", "annotation_class_label", "description", "source"}
	categoryFields   = []string{"annotation_class", "annotation_class_label", "description"}
	termFields       = []string{"annotation_class", "annotation_class_label", "description", "synonym", "is_obsolete", "source"}
)

// Subset returns the categories of a subset with their member terms. An
// unknown subset has no categories.
func (s *ServiceImpl) Subset(ctx context.Context, subsetID string) ([]ontology.SubsetCategory, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ontology", "subset")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrSubsetID, subsetID)

	if !subsetIDPattern.MatchString(subsetID) {
		err := shared.ErrInvalidInput.WithMessage(fmt.Sprintf("invalid subset id %q", subsetID))
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		categories []ontology.SubsetCategory
		err        error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("subset", map[string]string{
		telemetry.ProfilingLabelSubset: subsetID,
	}), func(ctx context.Context) {
		categories, err = s.subset(ctx, subsetID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrResultSize, len(categories))
	telemetry.SetOK(span)
	return categories, nil
}

func (s *ServiceImpl) subset(ctx context.Context, subsetID string) ([]ontology.SubsetCategory, error) {
	docs, err := s.golr.Search(ctx, subsetTermsQuery(subsetID))
	if err != nil {
		return nil, err
	}
	categories := ontology.GroupBySource(upstream.DecodeSubsetTerms(docs))
	if len(categories) == 0 {
		return []ontology.SubsetCategory{}, nil
	}

	labels := make([]string, len(categories))
	for i, c := range categories {
		labels[i] = c.AnnotationClassLabel
	}
	docs, err = s.golr.Search(ctx, upstream.Query{
		Document: upstream.DocumentOntologyClass,
		Filters:  []string{"annotation_class_label:(" + strings.Join(labels, " or ") + ")"},
		Fields:   categoryFields,
		Rows:     subsetRows,
	})
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string]ontology.Term)
	for _, t := range upstream.DecodeTerms(docs) {
		if _, ok := byLabel[t.AnnotationClassLabel]; !ok {
			byLabel[t.AnnotationClassLabel] = t
		}
	}
	for i := range categories {
		t, ok := byLabel[categories[i].AnnotationClassLabel]
		if !ok {
			logger.L(ctx).Warn("Subset category has no matching ontology class",
				zap.String("subset", subsetID),
				zap.String("label", categories[i].AnnotationClassLabel))
			continue
		}
		categories[i].AnnotationClass = t.AnnotationClass
		categories[i].Description = t.Description
	}

	if subsetID == ontology.AGRSlimID {
		categories = ontology.OrderBySlim(categories, ontology.AGRSlimOrder())
	}
	return categories, nil
}

// subsetTermsQuery selects the members of a subset. The AGR slim is queried
// by its term ids because its subset tags in the ontology are incomplete.
func subsetTermsQuery(subsetID string) upstream.Query {
	filter := "subset:" + subsetID
	if subsetID == ontology.AGRSlimID {
		filter = "annotation_class:(" + quoteAll(ontology.AGRSlimTermIDs(), " ") + ")"
	}
	return upstream.Query{
		Document: upstream.DocumentOntologyClass,
		Filters:  []string{filter},
		Fields:   subsetTermFields,
		Rows:     subsetRows,
	}
}

// TermSubsets lists the subsets a term belongs to.
func (s *ServiceImpl) TermSubsets(ctx context.Context, termID string) ([]ontology.TermSubset, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ontology", "term_subsets")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTermID, termID)

	uri, err := s.termURI(termID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	query := fmt.Sprintf(`PREFIX obo: <http://purl.obolibrary.org/obo/>
SELECT ?label ?subset
WHERE {
	BIND(<%s> as ?uri) .
	?uri <%s> ?subset .
	?subset rdfs:comment ?label
}`, uri, inSubsetPredicate)

	rows, err := s.sparql.Select(ctx, query)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	subsets := make([]ontology.TermSubset, 0, len(rows))
	for _, row := range rows {
		name := row["subset"]
		if i := strings.LastIndex(name, "#"); i >= 0 {
			name = name[i+1:]
		}
		subsets = append(subsets, ontology.TermSubset{Label: row["label"], Subset: name})
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrResultSize, len(subsets))
	telemetry.SetOK(span)
	return subsets, nil
}

func (s *ServiceImpl) termURI(termID string) (string, error) {
	if !prefix.IsCURIE(termID) {
		return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("%q is not a CURIE such as GO:0006259", termID))
	}
	uri := s.prefixes.Expand(termID)
	if uri == termID {
		return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown prefix in %q", termID))
	}
	return uri, nil
}

// Term returns a single ontology class.
func (s *ServiceImpl) Term(ctx context.Context, termID string) (*ontology.Term, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ontology", "term")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTermID, termID)

	if !prefix.IsCURIE(termID) {
		err := shared.ErrInvalidInput.WithMessage(fmt.Sprintf("%q is not a CURIE such as GO:0006259", termID))
		telemetry.RecordError(span, err)
		return nil, err
	}

	docs, err := s.golr.Search(ctx, upstream.Query{
		Document: upstream.DocumentOntologyClass,
		Filters:  []string{fmt.Sprintf("annotation_class:%q", termID)},
		Fields:   termFields,
		Rows:     1,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	terms := upstream.DecodeTerms(docs)
	if len(terms) == 0 {
		return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("term %s not found", termID))
	}
	telemetry.SetOK(span)
	return &terms[0], nil
}
