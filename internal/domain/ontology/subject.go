package ontology

import "strings"

const undefinedSubject = "undefined"

var geneIDPrefixes = []string{"HGNC:", "NCBIGene:", "ENSEMBL:"}

// NormalizeSubjectID rewrites known prefix aliases.
func NormalizeSubjectID(id string) string {
	return strings.Replace(id, "WormBase:", "WB:", 1)
}

// NeedsProteinMapping reports whether a subject is a gene id that GOlr only
// indexes through its UniProtKB protein.
func NeedsProteinMapping(id string) bool {
	for _, p := range geneIDPrefixes {
		if strings.Contains(id, p) {
			return true
		}
	}
	return false
}

// IsUndefinedSubject matches the placeholder some widgets send for unknown genes.
func IsUndefinedSubject(id string) bool {
	return id == undefinedSubject
}

// GolrBioentityID converts a subject id to the form GOlr indexes. MGI ids
// carry the prefix twice there.
func GolrBioentityID(id string) string {
	if strings.HasPrefix(id, "MGI:") {
		return "MGI:" + id
	}
	return id
}

// SubjectIDFromGolr reverses GolrBioentityID.
func SubjectIDFromGolr(id string) string {
	return strings.Replace(id, "MGI:MGI:", "MGI:", 1)
}

// DedupeSubjects drops empty and placeholder ids and collapses duplicates,
// keeping first occurrences in order.
func DedupeSubjects(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || IsUndefinedSubject(id) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
