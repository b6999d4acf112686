// Package ontology serves GO terms, subsets and annotation ribbons built from
// GOlr, the GO SPARQL endpoint and MyGene.info.
package ontology

import (
	"context"

	"go.uber.org/zap"

	"github.com/geneontology/go-api/internal/infrastructure/upstream"
)

const (
	defaultMaxRows        = 100000
	defaultMaxConcurrency = 4
	subsetRows            = 1000
)

// SparqlSelector runs SPARQL SELECT queries.
type SparqlSelector interface {
	Select(ctx context.Context, query string) ([]upstream.Binding, error)
}

// GeneMapper resolves gene ids to UniProtKB accessions.
type GeneMapper interface {
	GeneToUniprot(ctx context.Context, geneID string) ([]string, error)
}

// CURIEExpander turns a CURIE into its URI.
type CURIEExpander interface {
	Expand(curie string) string
}

// ServiceConfig bounds the queries issued by the service.
type ServiceConfig struct {
	// MaxRows is the row limit of annotation and bioentity queries.
	MaxRows int
	// MaxConcurrency caps the per-subject upstream calls in flight for one ribbon.
	MaxConcurrency int
}

// ServiceImpl answers ontology and ribbon requests.
type ServiceImpl struct {
	golr           upstream.Searcher
	sparql         SparqlSelector
	genes          GeneMapper
	prefixes       CURIEExpander
	maxRows        int
	maxConcurrency int
	logger         *zap.Logger
}

// NewService creates a ServiceImpl. Zero config values fall back to defaults.
func NewService(
	golr upstream.Searcher,
	sparql SparqlSelector,
	genes GeneMapper,
	prefixes CURIEExpander,
	cfg ServiceConfig,
	logger *zap.Logger,
) *ServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = defaultMaxRows
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	return &ServiceImpl{
		golr:           golr,
		sparql:         sparql,
		genes:          genes,
		prefixes:       prefixes,
		maxRows:        cfg.MaxRows,
		maxConcurrency: cfg.MaxConcurrency,
		logger:         logger,
	}
}
