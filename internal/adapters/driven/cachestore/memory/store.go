// Package memory provides an in-memory cache store for tests.
package memory

import (
	"context"
	"sync"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CacheStore = (*Store)(nil)

// Store keeps the persisted cache in memory. Saves deep-copy the set so a
// later Load observes exactly what was flushed, nothing more, which lets
// tests assert on flush behaviour.
type Store struct {
	mu    sync.Mutex
	saved domain.EmbeddingSet

	// Saves counts Save calls, for flush-frequency assertions.
	Saves int
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{saved: make(domain.EmbeddingSet)}
}

// Load implements driven.CacheStore.
func (s *Store) Load(_ context.Context) (domain.EmbeddingSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySet(s.saved), nil
}

// Save implements driven.CacheStore.
func (s *Store) Save(_ context.Context, set domain.EmbeddingSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = copySet(set)
	s.Saves++
	return nil
}

// Path implements driven.CacheStore.
func (s *Store) Path() string { return "memory" }

// Snapshot returns the last saved set, for assertions.
func (s *Store) Snapshot() domain.EmbeddingSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySet(s.saved)
}

func copySet(in domain.EmbeddingSet) domain.EmbeddingSet {
	out := make(domain.EmbeddingSet, len(in))
	for model, ns := range in {
		for name, rec := range ns {
			out.Put(model, name, rec)
		}
	}
	return out
}
