// Package ontology holds the Gene Ontology domain model: aspects, subsets (slims)
// and the annotation ribbon summary.
package ontology

// Root term identifiers of the three GO aspects.
const (
	BiologicalProcessRoot = "GO:0008150"
	MolecularFunctionRoot = "GO:0003674"
	CellularComponentRoot = "GO:0005575"
)

// Aspect codes as stored on GOlr annotation documents.
const (
	AspectProcess   = "P"
	AspectFunction  = "F"
	AspectComponent = "C"
)

// ProteinBindingTerm is excluded from ribbons on request because almost every
// protein carries a direct annotation to it.
const ProteinBindingTerm = "GO:0005515"

var aspectRoots = map[string]string{
	AspectProcess:   BiologicalProcessRoot,
	AspectFunction:  MolecularFunctionRoot,
	AspectComponent: CellularComponentRoot,
}

// AspectRoot returns the root term of an aspect code.
func AspectRoot(aspect string) (string, bool) {
	root, ok := aspectRoots[aspect]
	return root, ok
}
