package domain

// Term is one entry of a controlled reference vocabulary. Terms form the
// candidate pool when mapping free-text entity mentions onto the ontology.
type Term struct {
	// Name is the canonical term, unique within the ontology.
	Name string

	// Label is the term's category (gene, disease, compound, ...).
	Label string

	// Embedding is an optional precomputed vector loaded from the ontology
	// file. When present it is used as-is instead of calling the embedder.
	Embedding []float32
}

// Chunk converts the term into the corpus representation used by the
// retrieval machinery.
func (t Term) Chunk() TextChunk {
	return TextChunk{
		Name:  t.Name,
		Text:  t.Name,
		Label: t.Label,
	}
}
