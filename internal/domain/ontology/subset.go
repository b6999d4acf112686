package ontology

// SubsetTerm is one member term of a subset.
type SubsetTerm struct {
	AnnotationClass      string `json:"annotation_class"`
	AnnotationClassLabel string `json:"annotation_class_label"`
	Description          string `json:"description"`
}

// SubsetCategory groups subset terms under the aspect root they belong to.
type SubsetCategory struct {
	AnnotationClass      string       `json:"annotation_class"`
	AnnotationClassLabel string       `json:"annotation_class_label"`
	Description          string       `json:"description"`
	Terms                []SubsetTerm `json:"terms"`
}

// SourcedTerm is a subset term along with the aspect name GOlr reports as its source.
type SourcedTerm struct {
	SubsetTerm
	Source string
}

// GroupBySource buckets terms by source in first-seen order. The category
// label is the source name; the class id is resolved later by label.
func GroupBySource(terms []SourcedTerm) []SubsetCategory {
	index := make(map[string]int)
	var categories []SubsetCategory
	for _, t := range terms {
		i, ok := index[t.Source]
		if !ok {
			i = len(categories)
			index[t.Source] = i
			categories = append(categories, SubsetCategory{
				AnnotationClassLabel: t.Source,
				Terms:                []SubsetTerm{},
			})
		}
		categories[i].Terms = append(categories[i].Terms, t.SubsetTerm)
	}
	return categories
}

// OrderBySlim rearranges categories and their terms into the given slim order.
// Categories and terms absent from the order are dropped.
func OrderBySlim(categories []SubsetCategory, order []SlimSection) []SubsetCategory {
	byID := make(map[string]SubsetCategory, len(categories))
	for _, c := range categories {
		byID[c.AnnotationClass] = c
	}

	out := make([]SubsetCategory, 0, len(order))
	for _, section := range order {
		cat, ok := byID[section.Category]
		if !ok {
			continue
		}
		terms := make(map[string]SubsetTerm, len(cat.Terms))
		for _, t := range cat.Terms {
			terms[t.AnnotationClass] = t
		}
		ordered := make([]SubsetTerm, 0, len(section.Terms))
		for _, id := range section.Terms {
			if t, ok := terms[id]; ok {
				ordered = append(ordered, t)
			}
		}
		cat.Terms = ordered
		out = append(out, cat)
	}
	return out
}
