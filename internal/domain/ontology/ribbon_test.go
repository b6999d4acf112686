package ontology

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionCategory() RibbonCategory {
	return NewRibbonCategory(SubsetCategory{
		AnnotationClass:      MolecularFunctionRoot,
		AnnotationClassLabel: "molecular_function",
		Description:          "A molecular process that can be carried out by a gene product.",
		Terms: []SubsetTerm{
			{AnnotationClass: "GO:0003824", AnnotationClassLabel: "catalytic activity"},
			{AnnotationClass: "GO:0005215", AnnotationClassLabel: "transporter activity"},
		},
	})
}

func sampleAnnotations() []Annotation {
	kinase := []string{"GO:0004672", "GO:0003824", MolecularFunctionRoot}
	return []Annotation{
		{AnnotationClass: "GO:0004672", EvidenceType: "IDA", RegulatesClosure: kinase, Aspect: AspectFunction},
		{AnnotationClass: "GO:0004672", EvidenceType: "IBA", RegulatesClosure: kinase, Aspect: AspectFunction},
		{AnnotationClass: "GO:0005488", EvidenceType: "IPI", RegulatesClosure: []string{"GO:0005488", MolecularFunctionRoot}, Aspect: AspectFunction},
		{AnnotationClass: "GO:0006915", EvidenceType: "IMP", RegulatesClosure: []string{"GO:0006915", BiologicalProcessRoot}, Aspect: AspectProcess},
	}
}

func TestNewRibbonCategory(t *testing.T) {
	cat := functionCategory()

	assert.Equal(t, MolecularFunctionRoot, cat.ID)
	assert.Equal(t, "molecular_function", cat.Label)
	require.Len(t, cat.Groups, 4)

	all := cat.Groups[0]
	assert.Equal(t, MolecularFunctionRoot, all.ID)
	assert.Equal(t, "all molecular function", all.Label)
	assert.Equal(t, "Show all molecular function annotations", all.Description)
	assert.Equal(t, GroupTypeAll, all.Type)

	assert.Equal(t, "GO:0003824", cat.Groups[1].ID)
	assert.Equal(t, GroupTypeTerm, cat.Groups[1].Type)

	other := cat.Groups[3]
	assert.Equal(t, MolecularFunctionRoot, other.ID)
	assert.Equal(t, "other molecular function", other.Label)
	assert.Equal(t, "Represent all annotations not mapped to a specific term", other.Description)
	assert.Equal(t, GroupTypeOther, other.Type)

	assert.Equal(t, []string{"GO:0003824", "GO:0005215"}, cat.TermGroupIDs())
}

func TestSummarize(t *testing.T) {
	categories := []RibbonCategory{functionCategory()}

	t.Run("counts annotations within the aspect", func(t *testing.T) {
		s := Summarize("MGI:98214", categories, sampleAnnotations(), false)

		assert.Equal(t, "MGI:98214", s.ID)
		assert.Equal(t, 3, s.NbAnnotations)
		assert.Equal(t, 2, s.NbClasses)

		all := s.Groups[MolecularFunctionRoot]
		require.NotNil(t, all)
		assert.Equal(t, 3, all[EvidenceAll].NbAnnotations)
		assert.Equal(t, 2, all[EvidenceAll].NbClasses)
		assert.Equal(t, 1, all["IDA"].NbAnnotations)
		assert.Equal(t, 1, all["IBA"].NbAnnotations)
		assert.Equal(t, 1, all["IPI"].NbAnnotations)

		catalytic := s.Groups["GO:0003824"]
		require.NotNil(t, catalytic)
		assert.Equal(t, 2, catalytic[EvidenceAll].NbAnnotations)
		assert.Equal(t, 1, catalytic[EvidenceAll].NbClasses)
		assert.NotContains(t, catalytic, "IPI")

		assert.NotContains(t, s.Groups, "GO:0005215")

		other := s.Groups[MolecularFunctionRoot+OtherSuffix]
		require.NotNil(t, other)
		assert.Equal(t, 1, other[EvidenceAll].NbAnnotations)
		assert.Equal(t, []string{"GO:0005488"}, other[EvidenceAll].Terms())
		assert.Equal(t, 1, other["IPI"].NbAnnotations)
	})

	t.Run("cross aspect brings other aspects into scope", func(t *testing.T) {
		s := Summarize("MGI:98214", categories, sampleAnnotations(), true)

		assert.Equal(t, 3, s.NbAnnotations)

		other := s.Groups[MolecularFunctionRoot+OtherSuffix]
		assert.Equal(t, 2, other[EvidenceAll].NbAnnotations)
		assert.Equal(t, []string{"GO:0005488", "GO:0006915"}, other[EvidenceAll].Terms())
		assert.Equal(t, 1, other["IMP"].NbAnnotations)
	})

	t.Run("unknown aspect is out of scope", func(t *testing.T) {
		annots := []Annotation{{AnnotationClass: "GO:0004672", EvidenceType: "IDA", RegulatesClosure: []string{"GO:0003824"}, Aspect: "X"}}
		s := Summarize("ZFIN:ZDB-GENE-980526-388", categories, annots, false)
		assert.Equal(t, 0, s.NbAnnotations)
		assert.Equal(t, 0, s.Groups[MolecularFunctionRoot+OtherSuffix][EvidenceAll].NbAnnotations)
	})

	t.Run("no annotations still yields an empty other group", func(t *testing.T) {
		s := Summarize("RGD:620474", categories, nil, false)
		assert.Equal(t, 0, s.NbAnnotations)
		assert.Len(t, s.Groups, 1)
	})
}

func TestGroupCount_JSON(t *testing.T) {
	s := Summarize("MGI:98214", []RibbonCategory{functionCategory()}, sampleAnnotations(), false)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	groups := decoded["groups"].(map[string]any)
	catalytic := groups["GO:0003824"].(map[string]any)[EvidenceAll].(map[string]any)
	assert.NotContains(t, catalytic, "terms")
	assert.EqualValues(t, 2, catalytic["nb_annotations"])

	other := groups[MolecularFunctionRoot+OtherSuffix].(map[string]any)[EvidenceAll].(map[string]any)
	assert.Equal(t, []any{"GO:0005488"}, other["terms"])
	assert.EqualValues(t, 1, other["nb_classes"])

	assert.NotContains(t, decoded, "label")

	t.Run("empty other cell lists no terms as an empty array", func(t *testing.T) {
		empty := Summarize("RGD:620474", []RibbonCategory{functionCategory()}, nil, false)
		data, err := json.Marshal(empty.Groups)
		require.NoError(t, err)
		assert.JSONEq(t, `{"GO:0003674-other":{"ALL":{"terms":[],"nb_classes":0,"nb_annotations":0}}}`, string(data))
	})

	t.Run("decoding keeps the other marker", func(t *testing.T) {
		var restored RibbonSubject
		require.NoError(t, json.Unmarshal(data, &restored))
		again, err := json.Marshal(&restored)
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(again))
	})
}
