package ontology

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geneontology/go-api/internal/domain/ontology"
	"github.com/geneontology/go-api/internal/domain/shared"
	"github.com/geneontology/go-api/internal/infrastructure/logger"
	"github.com/geneontology/go-api/internal/infrastructure/telemetry"
	"github.com/geneontology/go-api/internal/infrastructure/upstream"
)

var (
	annotationFields = []string{"annotation_class", "evidence_type", "regulates_closure", "aspect"}
	bioentityFields  = []string{"bioentity", "bioentity_label", "taxon", "taxon_label"}
)

// Ribbon summarizes the annotations of every requested subject against the
// categories of a subset.
func (s *ServiceImpl) Ribbon(ctx context.Context, req ontology.RibbonRequest) (*ontology.Ribbon, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ontology", "ribbon")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSubsetID, req.Subset,
		telemetry.SpanAttrSubjects, len(req.Subjects),
	)

	if strings.TrimSpace(req.Subset) == "" {
		err := shared.ErrInvalidInput.WithMessage("subset is required")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(ontology.DedupeSubjects(req.Subjects)) == 0 {
		err := shared.ErrInvalidInput.WithMessage("at least one subject is required")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		ribbon *ontology.Ribbon
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("ribbon", map[string]string{
		telemetry.ProfilingLabelSubset: req.Subset,
	}), func(ctx context.Context) {
		ribbon, err = s.ribbon(ctx, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrResultSize, len(ribbon.Subjects))
	telemetry.SetOK(span)
	return ribbon, nil
}

func (s *ServiceImpl) ribbon(ctx context.Context, req ontology.RibbonRequest) (*ontology.Ribbon, error) {
	subset, err := s.Subset(ctx, req.Subset)
	if err != nil {
		return nil, err
	}
	categories := make([]ontology.RibbonCategory, len(subset))
	for i, c := range subset {
		categories[i] = ontology.NewRibbonCategory(c)
	}

	subjects := make([]string, len(req.Subjects))
	for i, id := range req.Subjects {
		subjects[i] = ontology.NormalizeSubjectID(strings.TrimSpace(id))
	}
	requested := ontology.DedupeSubjects(subjects)
	queryIDs, originals, err := s.mapSubjects(ctx, requested)
	if err != nil {
		return nil, err
	}
	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "subjects_mapped",
		"requested", len(requested),
		"queried", len(queryIDs),
		"mapped", len(originals),
	)
	if len(queryIDs) == 0 {
		return &ontology.Ribbon{Categories: categories, Subjects: []*ontology.RibbonSubject{}}, nil
	}

	summaries := make([]*ontology.RibbonSubject, len(queryIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, id := range queryIDs {
		g.Go(func() error {
			docs, err := s.golr.Search(gctx, s.annotationQuery(id, req))
			if err != nil {
				return fmt.Errorf("annotations of %s: %w", id, err)
			}
			summaries[i] = ontology.Summarize(id, categories, upstream.DecodeAnnotations(docs), req.CrossAspect)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	details, err := s.bioentities(ctx, queryIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*ontology.RibbonSubject, 0, len(summaries))
	for _, subject := range summaries {
		if subject.NbAnnotations == 0 {
			continue
		}
		if b, ok := details[subject.ID]; ok {
			subject.Label = b.Label
			subject.TaxonID = b.TaxonID
			subject.TaxonLabel = b.TaxonLabel
		}
		if original, ok := originals[subject.ID]; ok {
			subject.ID = original
		}
		out = append(out, subject)
	}

	return &ontology.Ribbon{Categories: categories, Subjects: out}, nil
}

// mapSubjects replaces gene ids that GOlr only knows through their proteins
// with their UniProtKB accessions. Every accession is queried as its own
// subject; the first one is reported under the caller's gene id, which is
// returned keyed by accession. Genes without an accession are dropped. Genes
// whose lookup fails are queried unchanged.
func (s *ServiceImpl) mapSubjects(ctx context.Context, ids []string) ([]string, map[string]string, error) {
	expanded := make([][]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, id := range ids {
		if !ontology.NeedsProteinMapping(id) {
			expanded[i] = []string{id}
			continue
		}
		g.Go(func() error {
			accessions, err := s.genes.GeneToUniprot(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.L(ctx).Warn("Gene mapping failed, querying gene id",
					zap.String("subject", id), zap.Error(err))
				expanded[i] = []string{id}
				return nil
			}
			if len(accessions) == 0 {
				logger.L(ctx).Debug("Gene has no UniProtKB accession, dropping subject",
					zap.String("subject", id))
			}
			expanded[i] = accessions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var queryIDs []string
	originals := make(map[string]string)
	for i, group := range expanded {
		if len(group) == 0 {
			continue
		}
		if group[0] != ids[i] {
			if _, ok := originals[group[0]]; !ok {
				originals[group[0]] = ids[i]
			}
		}
		queryIDs = append(queryIDs, group...)
	}
	return ontology.DedupeSubjects(queryIDs), originals, nil
}

func (s *ServiceImpl) annotationQuery(subjectID string, req ontology.RibbonRequest) upstream.Query {
	filters := []string{fmt.Sprintf("bioentity:%q", ontology.GolrBioentityID(subjectID))}
	if len(req.ECodes) > 0 {
		filters = append(filters, "evidence_type:("+quoteAll(req.ECodes, " ")+")")
	} else if req.ExcludeIBA {
		filters = append(filters, "!evidence_type:IBA")
	}
	if req.ExcludePB {
		filters = append(filters, fmt.Sprintf("!annotation_class:%q", ontology.ProteinBindingTerm))
	}
	return upstream.Query{
		Document: upstream.DocumentAnnotation,
		Filters:  filters,
		Fields:   annotationFields,
		Rows:     s.maxRows,
	}
}

// bioentities fetches the display details of every subject in one query,
// keyed by subject id.
func (s *ServiceImpl) bioentities(ctx context.Context, ids []string) (map[string]ontology.Bioentity, error) {
	golrIDs := make([]string, len(ids))
	for i, id := range ids {
		golrIDs[i] = ontology.GolrBioentityID(id)
	}
	docs, err := s.golr.Search(ctx, upstream.Query{
		Document: upstream.DocumentBioentity,
		Filters:  []string{"bioentity:(" + quoteAll(golrIDs, " or ") + ")"},
		Fields:   bioentityFields,
		Rows:     s.maxRows,
	})
	if err != nil {
		return nil, fmt.Errorf("subject details: %w", err)
	}

	out := make(map[string]ontology.Bioentity, len(ids))
	for _, b := range upstream.DecodeBioentities(docs) {
		id := ontology.SubjectIDFromGolr(b.ID)
		b.ID = id
		out[id] = b
	}
	return out, nil
}

func quoteAll(values []string, sep string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, sep)
}
