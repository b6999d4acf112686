package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectIDs(t *testing.T) {
	assert.Equal(t, "WB:WBGene00000898", NormalizeSubjectID("WormBase:WBGene00000898"))
	assert.Equal(t, "RGD:620474", NormalizeSubjectID("RGD:620474"))

	assert.True(t, NeedsProteinMapping("HGNC:11998"))
	assert.True(t, NeedsProteinMapping("NCBIGene:7157"))
	assert.True(t, NeedsProteinMapping("ENSEMBL:ENSG00000141510"))
	assert.False(t, NeedsProteinMapping("UniProtKB:P04637"))

	assert.Equal(t, "MGI:MGI:98214", GolrBioentityID("MGI:98214"))
	assert.Equal(t, "ZFIN:ZDB-GENE-980526-388", GolrBioentityID("ZFIN:ZDB-GENE-980526-388"))
	assert.Equal(t, "MGI:98214", SubjectIDFromGolr("MGI:MGI:98214"))
}

func TestDedupeSubjects(t *testing.T) {
	got := DedupeSubjects([]string{"undefined", "MGI:98214", "", "RGD:620474", "MGI:98214", "undefined"})
	assert.Equal(t, []string{"MGI:98214", "RGD:620474"}, got)
}
