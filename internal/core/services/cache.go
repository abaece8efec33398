package services

import (
	"context"
	"fmt"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

// DefaultFlushEvery is how many newly computed embeddings accumulate before
// the cache is persisted mid-run.
const DefaultFlushEvery = 100

// PopulateOptions configures BulkPopulate.
type PopulateOptions struct {
	// FlushEvery persists the cache after this many new embeddings.
	// 0 means DefaultFlushEvery.
	FlushEvery int

	// ContinueOnError skips chunks whose embedding call fails and records
	// them in the report instead of aborting the run. Default is
	// fail-fast.
	ContinueOnError bool
}

// PopulateReport summarises one BulkPopulate run.
type PopulateReport struct {
	// Computed is the number of embeddings generated on this run.
	Computed int

	// Skipped is the number of chunks that were already cached.
	Skipped int

	// Failed lists chunk names whose embedding call failed (only populated
	// with ContinueOnError).
	Failed []string
}

// EmbeddingCache wraps an Embedder with a persistent cache so no embedding
// is ever computed twice for the same (model, chunk) pair.
//
// The cache namespace is the embedder's model name, which makes mixing
// vectors from different models impossible by construction: switching
// models starts an independent namespace and leaves the others intact.
//
// Not safe for concurrent use. The design assumes one process, one writer;
// the store's atomic whole-file replacement keeps an interrupted run from
// corrupting the persisted blob.
type EmbeddingCache struct {
	store    driven.CacheStore
	embedder driven.Embedder

	set    domain.EmbeddingSet
	loaded bool
}

// NewEmbeddingCache creates a cache service over the given store and
// embedder.
func NewEmbeddingCache(store driven.CacheStore, embedder driven.Embedder) *EmbeddingCache {
	return &EmbeddingCache{
		store:    store,
		embedder: embedder,
	}
}

// Model returns the active cache namespace.
func (c *EmbeddingCache) Model() string {
	return c.embedder.ModelName()
}

// load reads the persisted cache on first use.
func (c *EmbeddingCache) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	set, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load embedding cache: %w", err)
	}
	if set == nil {
		set = make(domain.EmbeddingSet)
	}
	c.set = set
	c.loaded = true
	logger.Debug("Embedding cache loaded from %s: %d entries under model %q",
		c.store.Path(), set.Count(c.Model()), c.Model())
	return nil
}

// GetOrCreate returns the cached vector for the chunk under the active
// model, computing and caching it on first encounter. The caller is
// responsible for flushing (Save) when done; BulkPopulate does this
// automatically.
func (c *EmbeddingCache) GetOrCreate(ctx context.Context, chunk domain.TextChunk) ([]float32, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}

	model := c.Model()
	if rec, ok := c.set.Get(model, chunk.Name); ok {
		return rec.Vector, nil
	}

	vector, err := c.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return nil, fmt.Errorf("embed chunk %q: %w", chunk.Name, err)
	}

	c.set.Put(model, chunk.Name, domain.EmbeddingRecord{
		Vector: vector,
		Metadata: domain.EmbeddingMetadata{
			Name:     chunk.Name,
			Label:    chunk.Label,
			PMID:     chunk.PMID,
			Filename: chunk.Filename,
			Model:    model,
		},
	})
	return vector, nil
}

// Put stores a precomputed vector (e.g. an embedding column loaded from an
// ontology file) under the active model without calling the embedder.
func (c *EmbeddingCache) Put(ctx context.Context, chunk domain.TextChunk, vector []float32) error {
	if err := c.load(ctx); err != nil {
		return err
	}
	c.set.Put(c.Model(), chunk.Name, domain.EmbeddingRecord{
		Vector: vector,
		Metadata: domain.EmbeddingMetadata{
			Name:     chunk.Name,
			Label:    chunk.Label,
			PMID:     chunk.PMID,
			Filename: chunk.Filename,
			Model:    c.Model(),
		},
	})
	return nil
}

// Vector returns the cached vector for a chunk name under the active model.
func (c *EmbeddingCache) Vector(ctx context.Context, name string) ([]float32, bool, error) {
	if err := c.load(ctx); err != nil {
		return nil, false, err
	}
	rec, ok := c.set.Get(c.Model(), name)
	if !ok {
		return nil, false, nil
	}
	return rec.Vector, true, nil
}

// BulkPopulate iterates the corpus in input order and ensures every chunk
// has a cached embedding under the active model. Already cached chunks are
// skipped, so re-running after a partial failure resumes where the last
// flush left off without recomputing anything.
func (c *EmbeddingCache) BulkPopulate(ctx context.Context, corpus []domain.TextChunk, opts PopulateOptions) (PopulateReport, error) {
	var report PopulateReport

	if err := c.load(ctx); err != nil {
		return report, err
	}

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = DefaultFlushEvery
	}

	model := c.Model()
	pending := 0

	for _, chunk := range corpus {
		if err := ctx.Err(); err != nil {
			// Persist what we have before giving up; the next run resumes.
			if pending > 0 {
				if saveErr := c.Save(ctx); saveErr != nil {
					return report, saveErr
				}
			}
			return report, err
		}

		if _, ok := c.set.Get(model, chunk.Name); ok {
			report.Skipped++
			continue
		}

		if _, err := c.GetOrCreate(ctx, chunk); err != nil {
			if opts.ContinueOnError {
				logger.Warn("Embedding failed for chunk %q: %v (skipping)", chunk.Name, err)
				report.Failed = append(report.Failed, chunk.Name)
				continue
			}
			// Fail fast, but keep the flushed prefix valid.
			if pending > 0 {
				if saveErr := c.Save(ctx); saveErr != nil {
					return report, saveErr
				}
			}
			return report, err
		}

		report.Computed++
		pending++
		if pending >= flushEvery {
			if err := c.Save(ctx); err != nil {
				return report, err
			}
			pending = 0
		}
	}

	if pending > 0 || report.Computed == 0 {
		// Final flush; a no-op population still leaves the store valid.
		if err := c.Save(ctx); err != nil {
			return report, err
		}
	}

	logger.Info("Cache population: %d computed, %d reused, %d failed (model %q)",
		report.Computed, report.Skipped, len(report.Failed), model)
	return report, nil
}

// Save persists the full cache, all model namespaces included.
func (c *EmbeddingCache) Save(ctx context.Context) error {
	if !c.loaded {
		return nil
	}
	if err := c.store.Save(ctx, c.set); err != nil {
		return fmt.Errorf("save embedding cache: %w", err)
	}
	return nil
}

// Count returns the number of cached entries under the active model.
func (c *EmbeddingCache) Count(ctx context.Context) (int, error) {
	if err := c.load(ctx); err != nil {
		return 0, err
	}
	return c.set.Count(c.Model()), nil
}
