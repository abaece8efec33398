package driven

import "context"

// RerankResult is one reranked candidate. Index refers back to the
// position in the candidate slice passed to Rerank.
type RerankResult struct {
	// Index is the candidate's position in the submitted shortlist.
	Index int

	// Relevance is the reranker's relevance score for (query, candidate).
	Relevance float64
}

// Reranker reorders a candidate shortlist given the raw query and candidate
// texts, using a model more accurate (and more expensive) than embedding
// similarity. It is only ever applied to a shortlist, never the full corpus.
//
// Candidates the reranker does not return a result for are dropped by the
// caller. Constructing a reranker without credentials is a configuration
// error surfaced at wiring time, before any pipeline work happens.
type Reranker interface {
	// Rerank scores the candidate texts against the query and returns
	// results sorted by relevance descending.
	Rerank(ctx context.Context, query string, candidates []string) ([]RerankResult, error)

	// ModelName returns the rerank model identifier, for logging.
	ModelName() string
}
