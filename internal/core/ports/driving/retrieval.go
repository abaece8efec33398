package driving

import (
	"context"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

// RetrievalOptions configures one retrieval run.
type RetrievalOptions struct {
	// Model is the embedding model name; it selects the cache namespace.
	Model string

	// TopN is the maximum number of chunks to return.
	TopN int

	// MinScore excludes candidates with score <= MinScore (strict).
	MinScore float64

	// Rerank sends a widened shortlist through the reranker and replaces
	// similarity scores with relevance scores.
	Rerank bool

	// FlushEvery controls how often the embedding cache is persisted
	// during corpus population. 0 uses the service default.
	FlushEvery int
}

// Retriever finds the most relevant corpus chunks for a query.
type Retriever interface {
	// Retrieve embeds the corpus (through the cache), scores every chunk
	// against the query, and returns the top-N candidates sorted by score
	// descending, annotated with source pmid and filename.
	Retrieve(ctx context.Context, query string, corpus []domain.TextChunk, opts RetrievalOptions) ([]domain.ScoredCandidate, error)
}

// Normalizer maps free-text entity mentions onto ontology terms.
type Normalizer interface {
	// Normalize returns, for each mention, the top-K ontology terms with
	// similarity above the acceptance threshold. An empty slice for a
	// mention means it is unmapped.
	Normalize(ctx context.Context, mentions []string, ontology []domain.Term, opts RetrievalOptions) ([][]domain.ScoredCandidate, error)
}
