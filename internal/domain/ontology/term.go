package ontology

// Term is a single GO ontology class as indexed by GOlr.
type Term struct {
	AnnotationClass      string   `json:"annotation_class"`
	AnnotationClassLabel string   `json:"annotation_class_label"`
	Description          string   `json:"description"`
	Synonyms             []string `json:"synonyms"`
	IsObsolete           bool     `json:"is_obsolete"`
	Source               string   `json:"source"`
}

// TermSubset names a subset (slim) a term belongs to.
type TermSubset struct {
	Label  string `json:"label"`
	Subset string `json:"subset"`
}

// Annotation is the part of a GOlr annotation document the ribbon needs.
type Annotation struct {
	AnnotationClass  string   `json:"annotation_class"`
	EvidenceType     string   `json:"evidence_type"`
	RegulatesClosure []string `json:"regulates_closure"`
	Aspect           string   `json:"aspect"`
}

// Bioentity carries the display details of an annotated gene product.
type Bioentity struct {
	ID         string `json:"bioentity"`
	Label      string `json:"bioentity_label"`
	TaxonID    string `json:"taxon"`
	TaxonLabel string `json:"taxon_label"`
}
