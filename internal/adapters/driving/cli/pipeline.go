package cli

import (
	"errors"
	"fmt"

	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/core/services"
)

// errMissingInput is returned when a command got neither of its
// alternative input flags.
var errMissingInput = errors.New("specify --text-chunks or --ontology")

// buildCache constructs the embedder and embedding cache the retrieval
// commands share. The model flag falls back to the configured embed model.
func buildCache(model, cachePath string) (driven.Embedder, *services.EmbeddingCache, error) {
	if factories.Embedder == nil || factories.CacheStore == nil {
		return nil, nil, errors.New("embedding services not configured")
	}

	model = configString(model, driven.ConfigOllamaEmbedModel, "")
	embedder, err := factories.Embedder(model)
	if err != nil {
		return nil, nil, err
	}

	store, err := factories.CacheStore(configString(cachePath, driven.ConfigCachePath, ""))
	if err != nil {
		return nil, nil, err
	}

	return embedder, services.NewEmbeddingCache(store, embedder), nil
}

// scorerFor maps a strategy flag to a similarity scorer.
func scorerFor(strategy string) (services.Scorer, error) {
	switch strategy {
	case "", "vectorized":
		return services.VectorizedScorer{}, nil
	case "pairwise":
		return services.PairwiseScorer{}, nil
	default:
		return nil, fmt.Errorf("unknown scoring strategy %q (use pairwise or vectorized)", strategy)
	}
}
