package driven

import (
	"context"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

// CacheStore persists the embedding cache.
//
// A store holds every model namespace in one logical blob: saving after a
// partial population run must not lose other models' entries, and a save
// must be atomic so an interrupted run never leaves a corrupt cache
// (implementations write whole-file replacements, not appends).
type CacheStore interface {
	// Load reads the full cache. A missing store yields an empty set, not
	// an error, so first runs start from nothing.
	Load(ctx context.Context) (domain.EmbeddingSet, error)

	// Save atomically replaces the persisted cache with the given set.
	Save(ctx context.Context, set domain.EmbeddingSet) error

	// Path returns the storage location, for logging.
	Path() string
}
