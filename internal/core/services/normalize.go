package services

import (
	"context"
	"fmt"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driving"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

// Ensure NormalizeService implements the interface.
var _ driving.Normalizer = (*NormalizeService)(nil)

// NormalizeService maps free-text entity mentions onto a controlled
// reference ontology using the same embed, score, top-k flow as chunk
// retrieval, with the ontology terms as the candidate pool. MinScore acts
// as the acceptance threshold: a mention with no term above it is
// unmapped.
type NormalizeService struct {
	cache    *EmbeddingCache
	embedder driven.Embedder
	scorer   Scorer
}

// NewNormalizeService creates an ontology normaliser. A nil scorer
// defaults to the vectorised strategy.
func NewNormalizeService(cache *EmbeddingCache, embedder driven.Embedder, scorer Scorer) *NormalizeService {
	if scorer == nil {
		scorer = VectorizedScorer{}
	}
	return &NormalizeService{
		cache:    cache,
		embedder: embedder,
		scorer:   scorer,
	}
}

// Normalize implements driving.Normalizer.
func (s *NormalizeService) Normalize(
	ctx context.Context, mentions []string, ontology []domain.Term, opts driving.RetrievalOptions,
) ([][]domain.ScoredCandidate, error) {
	logger.Section("Entity Normalisation")
	logger.Debug("%d mentions against %d ontology terms", len(mentions), len(ontology))

	if err := s.populateOntology(ctx, ontology, opts.FlushEvery); err != nil {
		return nil, err
	}

	// Resolve term vectors once; every mention scores against the same
	// candidate pool.
	candidates := make([]domain.ScoredCandidate, 0, len(ontology))
	vectors := make([][]float32, 0, len(ontology))
	for _, term := range ontology {
		vec, ok, err := s.cache.Vector(ctx, term.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		candidates = append(candidates, domain.ScoredCandidate{
			Name:       term.Name,
			Category:   term.Label,
			TargetText: term.Name,
		})
		vectors = append(vectors, vec)
	}

	results := make([][]domain.ScoredCandidate, len(mentions))
	for i, mention := range mentions {
		queryVec, err := s.embedder.Embed(ctx, mention)
		if err != nil {
			return nil, fmt.Errorf("embed mention %q: %w", mention, err)
		}

		scores := s.scorer.Score(queryVec, vectors)
		scored := make([]domain.ScoredCandidate, len(candidates))
		copy(scored, candidates)
		for j := range scored {
			scored[j].Query = mention
			scored[j].Score = scores[j]
		}

		results[i] = SelectTopK(scored, opts.TopN, opts.MinScore)
		if len(results[i]) == 0 {
			logger.Debug("Mention %q: unmapped (no term above %.3f)", mention, opts.MinScore)
		}
	}

	return results, nil
}

// populateOntology caches term embeddings, preferring precomputed vectors
// shipped in the ontology file over embedder calls.
func (s *NormalizeService) populateOntology(ctx context.Context, ontology []domain.Term, flushEvery int) error {
	missing := make([]domain.TextChunk, 0, len(ontology))
	for _, term := range ontology {
		if len(term.Embedding) > 0 {
			if err := s.cache.Put(ctx, term.Chunk(), term.Embedding); err != nil {
				return err
			}
			continue
		}
		missing = append(missing, term.Chunk())
	}

	if _, err := s.cache.BulkPopulate(ctx, missing, PopulateOptions{FlushEvery: flushEvery}); err != nil {
		return fmt.Errorf("populate ontology embeddings: %w", err)
	}
	return nil
}
