package domain

// EmbeddingMetadata is a copy of the owning chunk's identifying fields plus
// the model that produced the vector. Stored alongside every cached vector
// so results can be resolved back to their source without the corpus file.
type EmbeddingMetadata struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	PMID     string `json:"pmid,omitempty"`
	Filename string `json:"filename,omitempty"`
	Model    string `json:"model"`
}

// EmbeddingRecord pairs a vector with its metadata. Records are created
// lazily on first encounter of a chunk under a given model and never
// mutated afterwards.
type EmbeddingRecord struct {
	Vector   []float32         `json:"vector"`
	Metadata EmbeddingMetadata `json:"metadata"`
}

// EmbeddingSet is the in-memory form of the persisted cache: model name →
// chunk name → record. Vectors generated by different models live in
// separate namespaces and are never mixed in one comparison.
type EmbeddingSet map[string]map[string]EmbeddingRecord

// Get returns the record for (model, name) if present.
func (s EmbeddingSet) Get(model, name string) (EmbeddingRecord, bool) {
	ns, ok := s[model]
	if !ok {
		return EmbeddingRecord{}, false
	}
	rec, ok := ns[name]
	return rec, ok
}

// Put stores a record under (model, name), creating the model namespace on
// first use.
func (s EmbeddingSet) Put(model, name string, rec EmbeddingRecord) {
	ns, ok := s[model]
	if !ok {
		ns = make(map[string]EmbeddingRecord)
		s[model] = ns
	}
	ns[name] = rec
}

// Count returns the number of records cached under the given model.
func (s EmbeddingSet) Count(model string) int {
	return len(s[model])
}

// Models lists the model namespaces present in the set.
func (s EmbeddingSet) Models() []string {
	models := make([]string, 0, len(s))
	for m := range s {
		models = append(models, m)
	}
	return models
}
