package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

func testSet() domain.EmbeddingSet {
	set := make(domain.EmbeddingSet)
	set.Put("nomic-embed-text", "1-0", domain.EmbeddingRecord{
		Vector: []float32{0.1, -0.2, 0.3},
		Metadata: domain.EmbeddingMetadata{
			Name: "1-0", Label: "pubtext", PMID: "1", Filename: "1.json", Model: "nomic-embed-text",
		},
	})
	set.Put("all-minilm", "1-0", domain.EmbeddingRecord{
		Vector:   []float32{0.5},
		Metadata: domain.EmbeddingMetadata{Name: "1-0", Label: "pubtext", Model: "all-minilm"},
	})
	return set
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store, err := NewStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	in := testSet()
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// Vectors survive bit-for-bit.
	rec, ok := out.Get("nomic-embed-text", "1-0")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, -0.2, 0.3}, rec.Vector)
}

func TestStore_MissingFileYieldsEmptySet(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)

	set, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, set)
	assert.Empty(t, set)
}

func TestStore_SaveReplacesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store, err := NewStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSet()))

	smaller := make(domain.EmbeddingSet)
	smaller.Put("nomic-embed-text", "only", domain.EmbeddingRecord{Vector: []float32{1}})
	require.NoError(t, store.Save(ctx, smaller))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, smaller, out)
}

func TestStore_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "cache.json"))
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), testSet()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cache.json", entries[0].Name())
}

func TestStore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{ corrupt"), 0600))

	store, err := NewStore(path)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse cache")
}

func TestStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "cache.json")
	store, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())

	require.NoError(t, store.Save(context.Background(), testSet()))
	_, err = os.Stat(path)
	require.NoError(t, err)
}
