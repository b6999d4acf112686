package ontology

// AGRSlimID is the Alliance of Genome Resources slim. Its membership on
// go-ontology lags behind what the Alliance displays, so the API carries the
// display order itself and queries the listed terms directly.
const AGRSlimID = "goslim_agr"

// SlimSection is one category of a curated slim with its ordered terms.
type SlimSection struct {
	Category string
	Terms    []string
}

var agrSlimOrder = []SlimSection{
	{
		Category: MolecularFunctionRoot,
		Terms: []string{
			"GO:0003824", "GO:0030234", "GO:0038023", "GO:0005102",
			"GO:0005215", "GO:0005198", "GO:0008092", "GO:0003677",
			"GO:0003723", "GO:0003700", "GO:0008134", "GO:0036094",
			"GO:0046872", "GO:0030246", "GO:0097367", "GO:0008289",
		},
	},
	{
		Category: BiologicalProcessRoot,
		Terms: []string{
			"GO:0007049", "GO:0016043", "GO:0051234", "GO:0008283",
			"GO:0030154", "GO:0008219", "GO:0032502", "GO:0000003",
			"GO:0002376", "GO:0050877", "GO:0050896", "GO:0023052",
			"GO:0010467", "GO:0019538", "GO:0006259", "GO:0044281",
			"GO:0050789", "GO:0042592", "GO:0007610",
		},
	},
	{
		Category: CellularComponentRoot,
		Terms: []string{
			"GO:0005576", "GO:0005886", "GO:0045202", "GO:0030054",
			"GO:0042995", "GO:0031410", "GO:0005768", "GO:0005773",
			"GO:0005794", "GO:0005783", "GO:0005829", "GO:0005739",
			"GO:0005634", "GO:0005694", "GO:0005856", "GO:0032991",
		},
	},
}

// AGRSlimOrder returns the display order of the AGR slim.
func AGRSlimOrder() []SlimSection {
	out := make([]SlimSection, len(agrSlimOrder))
	for i, s := range agrSlimOrder {
		out[i] = SlimSection{Category: s.Category, Terms: append([]string(nil), s.Terms...)}
	}
	return out
}

// AGRSlimTermIDs returns every category and term id of the AGR slim, without
// duplicates, in display order.
func AGRSlimTermIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, s := range agrSlimOrder {
		add(s.Category)
		for _, t := range s.Terms {
			add(t)
		}
	}
	return ids
}
