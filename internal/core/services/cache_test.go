package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-prophetdb/text2knowledge/internal/adapters/driven/cachestore/memory"
	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

func testChunks(names ...string) []domain.TextChunk {
	chunks := make([]domain.TextChunk, len(names))
	for i, n := range names {
		chunks[i] = domain.TextChunk{Name: n, Text: "text of " + n, Label: "pubtext", PMID: "123"}
	}
	return chunks
}

func vectorsFor(chunks []domain.TextChunk) map[string][]float32 {
	m := make(map[string][]float32, len(chunks))
	for i, c := range chunks {
		m[c.Text] = []float32{float32(i + 1), 0}
	}
	return m
}

func TestEmbeddingCache_GetOrCreate_ComputesOnce(t *testing.T) {
	chunks := testChunks("c1")
	embedder := newMockEmbedder("test-model", vectorsFor(chunks))
	cache := NewEmbeddingCache(memory.NewStore(), embedder)
	ctx := context.Background()

	first, err := cache.GetOrCreate(ctx, chunks[0])
	require.NoError(t, err)
	second, err := cache.GetOrCreate(ctx, chunks[0])
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, embedder.calls)
}

func TestEmbeddingCache_NamespaceIsModelName(t *testing.T) {
	store := memory.NewStore()
	chunks := testChunks("c1")
	ctx := context.Background()

	cacheA := NewEmbeddingCache(store, newMockEmbedder("model-a", vectorsFor(chunks)))
	_, err := cacheA.GetOrCreate(ctx, chunks[0])
	require.NoError(t, err)
	require.NoError(t, cacheA.Save(ctx))

	// The same chunk under another model is a miss, and both namespaces
	// survive in one store.
	embB := newMockEmbedder("model-b", vectorsFor(chunks))
	cacheB := NewEmbeddingCache(store, embB)
	_, err = cacheB.GetOrCreate(ctx, chunks[0])
	require.NoError(t, err)
	require.NoError(t, cacheB.Save(ctx))
	assert.Equal(t, 1, embB.calls)

	saved := store.Snapshot()
	assert.Equal(t, 1, saved.Count("model-a"))
	assert.Equal(t, 1, saved.Count("model-b"))
}

func TestEmbeddingCache_RecordsMetadata(t *testing.T) {
	store := memory.NewStore()
	chunk := domain.TextChunk{Name: "38941787-0", Text: "some text", Label: "pubtext", PMID: "38941787", Filename: "38941787.pdf"}
	embedder := newMockEmbedder("test-model", map[string][]float32{"some text": {1, 0}})
	cache := NewEmbeddingCache(store, embedder)
	ctx := context.Background()

	_, err := cache.GetOrCreate(ctx, chunk)
	require.NoError(t, err)
	require.NoError(t, cache.Save(ctx))

	rec, ok := store.Snapshot().Get("test-model", "38941787-0")
	require.True(t, ok)
	assert.Equal(t, "38941787", rec.Metadata.PMID)
	assert.Equal(t, "38941787.pdf", rec.Metadata.Filename)
	assert.Equal(t, "pubtext", rec.Metadata.Label)
	assert.Equal(t, "test-model", rec.Metadata.Model)
}

func TestEmbeddingCache_Put_PrecomputedVectorSkipsEmbedder(t *testing.T) {
	embedder := newMockEmbedder("test-model", nil)
	cache := NewEmbeddingCache(memory.NewStore(), embedder)
	ctx := context.Background()

	chunk := domain.TextChunk{Name: "TP53", Text: "TP53", Label: "Gene"}
	require.NoError(t, cache.Put(ctx, chunk, []float32{0.1, 0.2}))

	vec, ok, err := cache.Vector(ctx, "TP53")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Zero(t, embedder.calls)
}

func TestEmbeddingCache_Vector_MissReturnsFalse(t *testing.T) {
	cache := NewEmbeddingCache(memory.NewStore(), newMockEmbedder("test-model", nil))

	_, ok, err := cache.Vector(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmbeddingCache_BulkPopulate_SkipsCached(t *testing.T) {
	store := memory.NewStore()
	chunks := testChunks("c1", "c2", "c3")
	ctx := context.Background()

	embedder := newMockEmbedder("test-model", vectorsFor(chunks))
	cache := NewEmbeddingCache(store, embedder)
	report, err := cache.BulkPopulate(ctx, chunks, PopulateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Computed)
	assert.Zero(t, report.Skipped)

	// A fresh cache over the same store resumes without recomputation.
	embedder2 := newMockEmbedder("test-model", vectorsFor(chunks))
	cache2 := NewEmbeddingCache(store, embedder2)
	report, err = cache2.BulkPopulate(ctx, chunks, PopulateOptions{})
	require.NoError(t, err)
	assert.Zero(t, report.Computed)
	assert.Equal(t, 3, report.Skipped)
	assert.Zero(t, embedder2.calls)
}

func TestEmbeddingCache_BulkPopulate_FlushEvery(t *testing.T) {
	store := memory.NewStore()
	chunks := testChunks("c1", "c2", "c3", "c4", "c5")
	cache := NewEmbeddingCache(store, newMockEmbedder("test-model", vectorsFor(chunks)))

	_, err := cache.BulkPopulate(context.Background(), chunks, PopulateOptions{FlushEvery: 2})
	require.NoError(t, err)

	// Two mid-run flushes at 2 and 4, one final flush for the remainder.
	assert.Equal(t, 3, store.Saves)
	assert.Equal(t, 5, store.Snapshot().Count("test-model"))
}

func TestEmbeddingCache_BulkPopulate_FailFastKeepsFlushedPrefix(t *testing.T) {
	store := memory.NewStore()
	chunks := testChunks("c1", "c2", "c3", "c4")
	embedder := newMockEmbedder("test-model", vectorsFor(chunks))
	embedder.failOn = chunks[2].Text
	cache := NewEmbeddingCache(store, embedder)

	report, err := cache.BulkPopulate(context.Background(), chunks, PopulateOptions{FlushEvery: 10})
	require.Error(t, err)
	assert.Equal(t, 2, report.Computed)

	// The prefix computed before the failure was flushed, so the next run
	// resumes at the failing chunk.
	assert.Equal(t, 2, store.Snapshot().Count("test-model"))
}

func TestEmbeddingCache_BulkPopulate_ContinueOnError(t *testing.T) {
	store := memory.NewStore()
	chunks := testChunks("c1", "c2", "c3")
	embedder := newMockEmbedder("test-model", vectorsFor(chunks))
	embedder.failOn = chunks[1].Text
	cache := NewEmbeddingCache(store, embedder)

	report, err := cache.BulkPopulate(context.Background(), chunks, PopulateOptions{ContinueOnError: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Computed)
	assert.Equal(t, []string{"c2"}, report.Failed)
	assert.Equal(t, 2, store.Snapshot().Count("test-model"))
}

func TestEmbeddingCache_BulkPopulate_CancelledContextPersistsProgress(t *testing.T) {
	store := memory.NewStore()
	chunks := testChunks("c1", "c2")
	cache := NewEmbeddingCache(store, newMockEmbedder("test-model", vectorsFor(chunks)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.BulkPopulate(ctx, chunks, PopulateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbeddingCache_BulkPopulate_EmptyCorpusStillSaves(t *testing.T) {
	store := memory.NewStore()
	cache := NewEmbeddingCache(store, newMockEmbedder("test-model", nil))

	report, err := cache.BulkPopulate(context.Background(), nil, PopulateOptions{})
	require.NoError(t, err)
	assert.Zero(t, report.Computed)
	assert.Equal(t, 1, store.Saves)
}

func TestEmbeddingCache_Count(t *testing.T) {
	chunks := testChunks("c1", "c2")
	cache := NewEmbeddingCache(memory.NewStore(), newMockEmbedder("test-model", vectorsFor(chunks)))
	ctx := context.Background()

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = cache.BulkPopulate(ctx, chunks, PopulateOptions{})
	require.NoError(t, err)

	n, err = cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
