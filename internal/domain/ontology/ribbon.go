package ontology

import (
	"encoding/json"
	"sort"
	"strings"
)

// GroupType tells ribbon widgets how to render a group cell.
type GroupType string

const (
	GroupTypeAll   GroupType = "All"
	GroupTypeTerm  GroupType = "Term"
	GroupTypeOther GroupType = "Other"
)

// EvidenceAll is the bucket summing every evidence type of a group.
const EvidenceAll = "ALL"

// OtherSuffix marks the group key that collects annotations outside every term of a category.
const OtherSuffix = "-other"

// RibbonGroup is one column of the ribbon.
type RibbonGroup struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Type        GroupType `json:"type"`
}

// RibbonCategory is a block of columns sharing an aspect.
type RibbonCategory struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	Groups      []RibbonGroup `json:"groups"`
}

// NewRibbonCategory turns a subset category into ribbon columns framed by an
// "all" group and an "other" group, both keyed by the category id.
func NewRibbonCategory(cat SubsetCategory) RibbonCategory {
	name := strings.ReplaceAll(strings.ToLower(cat.AnnotationClassLabel), "_", " ")

	groups := make([]RibbonGroup, 0, len(cat.Terms)+2)
	groups = append(groups, RibbonGroup{
		ID:          cat.AnnotationClass,
		Label:       "all " + name,
		Description: "Show all " + name + " annotations",
		Type:        GroupTypeAll,
	})
	for _, t := range cat.Terms {
		groups = append(groups, RibbonGroup{
			ID:          t.AnnotationClass,
			Label:       t.AnnotationClassLabel,
			Description: t.Description,
			Type:        GroupTypeTerm,
		})
	}
	groups = append(groups, RibbonGroup{
		ID:          cat.AnnotationClass,
		Label:       "other " + name,
		Description: "Represent all annotations not mapped to a specific term",
		Type:        GroupTypeOther,
	})

	return RibbonCategory{
		ID:          cat.AnnotationClass,
		Label:       cat.AnnotationClassLabel,
		Description: cat.Description,
		Groups:      groups,
	}
}

// TermGroupIDs returns the ids of the category's Term groups.
func (c RibbonCategory) TermGroupIDs() []string {
	ids := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		if g.Type == GroupTypeTerm {
			ids = append(ids, g.ID)
		}
	}
	return ids
}

// GroupCount counts annotations and distinct classes in one ribbon cell.
type GroupCount struct {
	NbClasses     int
	NbAnnotations int

	classes   map[string]struct{}
	listTerms bool
}

func newGroupCount(listTerms bool) *GroupCount {
	return &GroupCount{classes: make(map[string]struct{}), listTerms: listTerms}
}

func (g *GroupCount) add(class string) {
	g.classes[class] = struct{}{}
	g.NbAnnotations++
	g.NbClasses = len(g.classes)
}

// Terms returns the sorted distinct classes counted in the cell.
func (g *GroupCount) Terms() []string {
	terms := make([]string, 0, len(g.classes))
	for t := range g.classes {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// MarshalJSON lists the counted terms only for "other" cells.
func (g *GroupCount) MarshalJSON() ([]byte, error) {
	if g.listTerms {
		return json.Marshal(struct {
			Terms         []string `json:"terms"`
			NbClasses     int      `json:"nb_classes"`
			NbAnnotations int      `json:"nb_annotations"`
		}{g.Terms(), g.NbClasses, g.NbAnnotations})
	}
	return json.Marshal(struct {
		NbClasses     int `json:"nb_classes"`
		NbAnnotations int `json:"nb_annotations"`
	}{g.NbClasses, g.NbAnnotations})
}

// UnmarshalJSON restores a cell; the terms list, when present, marks it as an "other" cell.
func (g *GroupCount) UnmarshalJSON(data []byte) error {
	var raw struct {
		Terms         *[]string `json:"terms"`
		NbClasses     int       `json:"nb_classes"`
		NbAnnotations int       `json:"nb_annotations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.NbClasses = raw.NbClasses
	g.NbAnnotations = raw.NbAnnotations
	g.classes = make(map[string]struct{})
	g.listTerms = raw.Terms != nil
	if raw.Terms != nil {
		for _, t := range *raw.Terms {
			g.classes[t] = struct{}{}
		}
	}
	return nil
}

// EvidenceCounts maps an evidence code (or EvidenceAll) to its cell.
type EvidenceCounts map[string]*GroupCount

func (e EvidenceCounts) add(evidence, class string, listTerms bool) {
	for _, key := range []string{EvidenceAll, evidence} {
		c, ok := e[key]
		if !ok {
			c = newGroupCount(listTerms)
			e[key] = c
		}
		c.add(class)
	}
}

// RibbonSubject is the annotation summary of one gene product.
type RibbonSubject struct {
	ID            string                    `json:"id"`
	Groups        map[string]EvidenceCounts `json:"groups"`
	NbClasses     int                       `json:"nb_classes"`
	NbAnnotations int                       `json:"nb_annotations"`
	Label         string                    `json:"label,omitempty"`
	TaxonID       string                    `json:"taxon_id,omitempty"`
	TaxonLabel    string                    `json:"taxon_label,omitempty"`
}

// Ribbon is the full response of a ribbon request.
type Ribbon struct {
	Categories []RibbonCategory `json:"categories"`
	Subjects   []*RibbonSubject `json:"subjects"`
}

// RibbonRequest selects the subset, subjects and annotation filters of a ribbon.
type RibbonRequest struct {
	Subset      string
	Subjects    []string
	ECodes      []string
	ExcludeIBA  bool
	ExcludePB   bool
	CrossAspect bool
}

type closureSet map[string]struct{}

func (c closureSet) containsAny(ids []string) bool {
	for _, id := range ids {
		if _, ok := c[id]; ok {
			return true
		}
	}
	return false
}

// Summarize counts a subject's annotations against the ribbon categories.
//
// An annotation reaches a group when the group id is in its regulates closure.
// It is in scope of a category when its aspect root is the category id, or
// always when crossAspect is set. Annotations in scope that reach none of a
// category's Term groups are counted under "<category>-other".
func Summarize(subjectID string, categories []RibbonCategory, annotations []Annotation, crossAspect bool) *RibbonSubject {
	subject := &RibbonSubject{
		ID:     subjectID,
		Groups: make(map[string]EvidenceCounts),
	}

	closures := make([]closureSet, len(annotations))
	roots := make([]string, len(annotations))
	for i, a := range annotations {
		set := make(closureSet, len(a.RegulatesClosure))
		for _, id := range a.RegulatesClosure {
			set[id] = struct{}{}
		}
		closures[i] = set
		roots[i], _ = AspectRoot(a.Aspect)
	}

	inScope := func(cat RibbonCategory, i int) bool {
		return crossAspect || cat.ID == roots[i]
	}

	// Non-Other group ids per category: the All group plus every Term group.
	countedIDs := make([][]string, len(categories))
	for ci, cat := range categories {
		for _, g := range cat.Groups {
			if g.Type != GroupTypeOther {
				countedIDs[ci] = append(countedIDs[ci], g.ID)
			}
		}
	}

	classes := make(map[string]struct{})
	for i, a := range annotations {
		for ci, cat := range categories {
			if inScope(cat, i) && closures[i].containsAny(countedIDs[ci]) {
				classes[a.AnnotationClass] = struct{}{}
				subject.NbAnnotations++
				break
			}
		}
	}
	subject.NbClasses = len(classes)

	for ci, cat := range categories {
		for _, groupID := range countedIDs[ci] {
			for i, a := range annotations {
				if !inScope(cat, i) {
					continue
				}
				if _, ok := closures[i][groupID]; !ok {
					continue
				}
				counts, ok := subject.Groups[groupID]
				if !ok {
					counts = EvidenceCounts{}
					subject.Groups[groupID] = counts
				}
				counts.add(a.EvidenceType, a.AnnotationClass, false)
			}
		}

		termIDs := cat.TermGroupIDs()
		other := EvidenceCounts{EvidenceAll: newGroupCount(true)}
		for i, a := range annotations {
			if !inScope(cat, i) || closures[i].containsAny(termIDs) {
				continue
			}
			other.add(a.EvidenceType, a.AnnotationClass, true)
		}
		subject.Groups[cat.ID+OtherSuffix] = other
	}

	return subject
}
