package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-prophetdb/text2knowledge/internal/adapters/driven/cachestore/memory"
	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driving"
)

// toyCorpus is a 2-dimensional corpus with hand-checkable cosines against
// the query "alpha" ([1, 0]): a scores 1.0, b scores 0.0, c scores ~0.994.
func toyCorpus() ([]domain.TextChunk, *mockEmbedder) {
	chunks := []domain.TextChunk{
		{Name: "a", Text: "text a", Label: "pubtext", PMID: "1", Filename: "1.json"},
		{Name: "b", Text: "text b", Label: "pubtext", PMID: "2", Filename: "2.json"},
		{Name: "c", Text: "text c", Label: "pubtext", PMID: "3", Filename: "3.json"},
	}
	embedder := newMockEmbedder("test-model", map[string][]float32{
		"text a": {1, 0},
		"text b": {0, 1},
		"text c": {0.9, 0.1},
		"alpha":  {1, 0},
		"beta":   {0, 1},
	})
	return chunks, embedder
}

func newTestRetriever(embedder driven.Embedder, reranker driven.Reranker, scorer Scorer) (*RetrievalService, *memory.Store) {
	store := memory.NewStore()
	cache := NewEmbeddingCache(store, embedder)
	return NewRetrievalService(cache, embedder, reranker, scorer), store
}

func TestRetrieve_TopNOrdering(t *testing.T) {
	for _, scorer := range []Scorer{PairwiseScorer{}, VectorizedScorer{}} {
		t.Run(scorer.Name(), func(t *testing.T) {
			corpus, embedder := toyCorpus()
			svc, _ := newTestRetriever(embedder, nil, scorer)

			got, err := svc.Retrieve(context.Background(), "alpha", corpus, driving.RetrievalOptions{
				TopN: 2, MinScore: 0.0,
			})
			require.NoError(t, err)
			require.Len(t, got, 2)

			assert.Equal(t, "a", got[0].Name)
			assert.InDelta(t, 1.0, got[0].Score, 1e-6)
			assert.Equal(t, "c", got[1].Name)
			assert.InDelta(t, 0.9938837, got[1].Score, 1e-6)

			// Hits carry the query and source fields through.
			assert.Equal(t, "alpha", got[0].Query)
			assert.Equal(t, "text a", got[0].TargetText)
			assert.Equal(t, "1", got[0].PMID)
			assert.Equal(t, "1.json", got[0].Filename)
		})
	}
}

func TestRetrieve_MinScoreFilters(t *testing.T) {
	corpus, embedder := toyCorpus()
	svc, _ := newTestRetriever(embedder, nil, nil)

	// Against "beta" ([0, 1]) only b clears 0.5.
	got, err := svc.Retrieve(context.Background(), "beta", corpus, driving.RetrievalOptions{
		TopN: 5, MinScore: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Name)
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	_, embedder := toyCorpus()
	svc, store := newTestRetriever(embedder, nil, nil)

	got, err := svc.Retrieve(context.Background(), "alpha", nil, driving.RetrievalOptions{TopN: 5})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	// No embedding work happened.
	assert.Zero(t, embedder.calls)
	assert.Zero(t, store.Saves)
}

func TestRetrieve_RerankWithoutRerankerFailsBeforeAnyWork(t *testing.T) {
	corpus, embedder := toyCorpus()
	svc, store := newTestRetriever(embedder, nil, nil)

	_, err := svc.Retrieve(context.Background(), "alpha", corpus, driving.RetrievalOptions{
		TopN: 2, Rerank: true,
	})
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Zero(t, embedder.calls)
	assert.Zero(t, store.Saves)
}

func TestRetrieve_ModelMismatch(t *testing.T) {
	corpus, embedder := toyCorpus()
	svc, _ := newTestRetriever(embedder, nil, nil)

	_, err := svc.Retrieve(context.Background(), "alpha", corpus, driving.RetrievalOptions{
		TopN: 2, Model: "another-model",
	})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRetrieve_PopulatesCacheAndReuses(t *testing.T) {
	corpus, embedder := toyCorpus()
	svc, _ := newTestRetriever(embedder, nil, nil)
	ctx := context.Background()

	_, err := svc.Retrieve(ctx, "alpha", corpus, driving.RetrievalOptions{TopN: 2})
	require.NoError(t, err)
	// 3 corpus chunks + 1 query.
	assert.Equal(t, 4, embedder.calls)

	_, err = svc.Retrieve(ctx, "alpha", corpus, driving.RetrievalOptions{TopN: 2})
	require.NoError(t, err)
	// Only the query is re-embedded on the second run.
	assert.Equal(t, 5, embedder.calls)
}

func TestRetrieve_RerankReordersShortlist(t *testing.T) {
	corpus, embedder := toyCorpus()
	reranker := &mockReranker{}
	svc, _ := newTestRetriever(embedder, reranker, nil)

	// The similarity shortlist against "alpha" (minScore 0) is [a, c]; the
	// reranker promotes c over a.
	reranker.results = []driven.RerankResult{
		{Index: 1, Relevance: 0.99},
		{Index: 0, Relevance: 0.42},
	}

	got, err := svc.Retrieve(context.Background(), "alpha", corpus, driving.RetrievalOptions{
		TopN: 2, MinScore: 0.0, Rerank: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "c", got[0].Name)
	assert.InDelta(t, 0.99, got[0].Score, 1e-9)
	assert.Equal(t, "a", got[1].Name)
	assert.InDelta(t, 0.42, got[1].Score, 1e-9)

	// The reranker saw the shortlist texts and the raw query.
	assert.Equal(t, "alpha", reranker.gotQuery)
	assert.Equal(t, []string{"text a", "text c"}, reranker.gotTexts)
}

func TestRetrieve_RerankKeepsNegativeRelevance(t *testing.T) {
	corpus, embedder := toyCorpus()
	reranker := &mockReranker{results: []driven.RerankResult{
		{Index: 0, Relevance: -2.5},
	}}
	svc, _ := newTestRetriever(embedder, reranker, nil)

	// Relevance scores live on their own scale; a negative one must not be
	// filtered by the similarity threshold.
	got, err := svc.Retrieve(context.Background(), "alpha", corpus, driving.RetrievalOptions{
		TopN: 1, MinScore: 0.0, Rerank: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, -2.5, got[0].Score, 1e-9)
}

func TestRetrieve_RerankDropsOutOfRangeIndices(t *testing.T) {
	corpus, embedder := toyCorpus()
	reranker := &mockReranker{results: []driven.RerankResult{
		{Index: 99, Relevance: 0.9},
		{Index: -1, Relevance: 0.8},
		{Index: 0, Relevance: 0.7},
	}}
	svc, _ := newTestRetriever(embedder, reranker, nil)

	got, err := svc.Retrieve(context.Background(), "alpha", corpus, driving.RetrievalOptions{
		TopN: 5, MinScore: 0.0, Rerank: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}

func TestRetrieve_RerankEmptyShortlistSkipsReranker(t *testing.T) {
	corpus, embedder := toyCorpus()
	reranker := &mockReranker{err: errors.New("should not be called")}
	svc, _ := newTestRetriever(embedder, reranker, nil)

	// Nothing clears 0.999 against "beta" except b, so raise further.
	got, err := svc.Retrieve(context.Background(), "beta", corpus, driving.RetrievalOptions{
		TopN: 2, MinScore: 1.5, Rerank: true,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, reranker.rerankCall)
}

func TestRetrieve_RerankErrorPropagates(t *testing.T) {
	corpus, embedder := toyCorpus()
	reranker := &mockReranker{err: errors.New("upstream 429")}
	svc, _ := newTestRetriever(embedder, reranker, nil)

	_, err := svc.Retrieve(context.Background(), "alpha", corpus, driving.RetrievalOptions{
		TopN: 2, MinScore: 0.0, Rerank: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rerank")
}
