package services

import (
	"context"
	"fmt"
	"math"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driving"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// DefaultWideningFactor is how much wider the rerank shortlist is than the
// requested top-N. Reranking 5x candidates lets the reranker promote chunks
// the embedding similarity underrated without sending the whole corpus.
const DefaultWideningFactor = 5

// RetrievalService orchestrates the semantic top-K pipeline: cache
// population, query embedding, batch similarity scoring, optional
// re-ranking, and top-N selection.
type RetrievalService struct {
	cache    *EmbeddingCache
	embedder driven.Embedder
	reranker driven.Reranker
	scorer   Scorer
}

// NewRetrievalService creates the pipeline. The reranker is optional (may
// be nil); requesting re-ranking without one is a configuration error at
// Retrieve time. A nil scorer defaults to the vectorised strategy.
func NewRetrievalService(
	cache *EmbeddingCache,
	embedder driven.Embedder,
	reranker driven.Reranker,
	scorer Scorer,
) *RetrievalService {
	if scorer == nil {
		scorer = VectorizedScorer{}
	}
	return &RetrievalService{
		cache:    cache,
		embedder: embedder,
		reranker: reranker,
		scorer:   scorer,
	}
}

// Retrieve implements driving.Retriever.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, corpus []domain.TextChunk, opts driving.RetrievalOptions,
) ([]domain.ScoredCandidate, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q, corpus: %d chunks, topN: %d, minScore: %.3f, rerank: %t",
		query, len(corpus), opts.TopN, opts.MinScore, opts.Rerank)

	// Fail configuration problems before any work or output happens.
	if opts.Rerank && s.reranker == nil {
		return nil, fmt.Errorf("%w: re-ranking requested", domain.ErrMissingAPIKey)
	}
	if opts.Model != "" && opts.Model != s.embedder.ModelName() {
		return nil, fmt.Errorf("%w: requested model %q but embedder serves %q",
			domain.ErrConfiguration, opts.Model, s.embedder.ModelName())
	}

	if len(corpus) == 0 {
		logger.Info("Empty corpus, no results")
		return []domain.ScoredCandidate{}, nil
	}

	// 1. Ensure every corpus chunk has a cached embedding.
	if _, err := s.cache.BulkPopulate(ctx, corpus, PopulateOptions{FlushEvery: opts.FlushEvery}); err != nil {
		return nil, fmt.Errorf("populate corpus embeddings: %w", err)
	}

	// 2. Embed the query.
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// 3. Batch-score every cached candidate against the query, in corpus
	// order so equal scores keep a deterministic tie-break.
	candidates, vectors, err := s.cachedVectors(ctx, corpus)
	if err != nil {
		return nil, err
	}
	scores := s.scorer.Score(queryVec, vectors)
	for i := range candidates {
		candidates[i].Query = query
		candidates[i].Score = scores[i]
	}
	logger.Debug("Scored %d candidates with %s strategy", len(candidates), s.scorer.Name())

	// 4. Select.
	if !opts.Rerank {
		return SelectTopK(candidates, opts.TopN, opts.MinScore), nil
	}
	return s.rerank(ctx, query, candidates, opts)
}

// cachedVectors resolves the corpus to aligned candidate/vector slices,
// skipping chunks absent from the cache (possible after a
// continue-on-error population).
func (s *RetrievalService) cachedVectors(
	ctx context.Context, corpus []domain.TextChunk,
) ([]domain.ScoredCandidate, [][]float32, error) {
	candidates := make([]domain.ScoredCandidate, 0, len(corpus))
	vectors := make([][]float32, 0, len(corpus))

	for _, chunk := range corpus {
		vec, ok, err := s.cache.Vector(ctx, chunk.Name)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			logger.Warn("Chunk %q has no cached embedding, excluded from scoring", chunk.Name)
			continue
		}
		candidates = append(candidates, domain.ScoredCandidate{
			Name:       chunk.Name,
			Category:   chunk.Label,
			TargetText: chunk.Text,
			PMID:       chunk.PMID,
			Filename:   chunk.Filename,
		})
		vectors = append(vectors, vec)
	}
	return candidates, vectors, nil
}

// rerank widens the selection, sends the shortlist texts through the
// reranker, and re-selects by relevance score. Candidates the reranker
// does not score are dropped.
func (s *RetrievalService) rerank(
	ctx context.Context, query string, candidates []domain.ScoredCandidate, opts driving.RetrievalOptions,
) ([]domain.ScoredCandidate, error) {
	shortlist := SelectTopK(candidates, opts.TopN*DefaultWideningFactor, opts.MinScore)
	if len(shortlist) == 0 {
		return shortlist, nil
	}
	logger.Debug("Reranking %d candidates with %s", len(shortlist), s.reranker.ModelName())

	texts := make([]string, len(shortlist))
	for i := range shortlist {
		texts[i] = shortlist[i].TargetText
	}

	results, err := s.reranker.Rerank(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	reranked := make([]domain.ScoredCandidate, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(shortlist) {
			continue
		}
		c := shortlist[r.Index]
		c.Score = r.Relevance
		reranked = append(reranked, c)
	}
	logger.Debug("Reranker returned %d of %d candidates", len(reranked), len(shortlist))

	// The similarity threshold was already applied to the shortlist; the
	// relevance scores live on a different scale, so select unthresholded.
	return SelectTopK(reranked, opts.TopN, math.Inf(-1)), nil
}
