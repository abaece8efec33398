package domain

// ScoredCandidate is a single retrieval hit: one candidate chunk scored
// against one query. Produced per query execution and discarded after the
// results are written, never persisted.
type ScoredCandidate struct {
	// Query is the original query string (or entity mention).
	Query string `json:"query"`

	// Name identifies the matched chunk or ontology term.
	Name string `json:"name"`

	// Category is the matched item's label.
	Category string `json:"category"`

	// TargetText is the matched item's text.
	TargetText string `json:"target_text"`

	// Score is the cosine similarity, or the reranker's relevance score
	// when re-ranking replaced the similarity scores.
	Score float64 `json:"score"`

	// PMID and Filename locate the originating document, when known.
	PMID     string `json:"pmid,omitempty"`
	Filename string `json:"filename,omitempty"`
}
