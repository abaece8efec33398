// Package file provides a whole-file JSON implementation of the embedding
// cache store.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CacheStore = (*Store)(nil)

// DefaultFilename is the cache file created under the config directory
// when no explicit path is given.
const DefaultFilename = "embeddings.json"

// Store persists the embedding cache as one JSON blob holding every model
// namespace. Saves replace the whole file via a temp-then-rename, so a
// crash mid-write leaves the previous blob intact and an interrupted
// population run can resume from the last flush.
type Store struct {
	path string
}

// NewStore creates a file-backed cache store. If path is empty the cache
// lives at ~/.text2knowledge/embeddings.json.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, ".text2knowledge", DefaultFilename)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Load implements driven.CacheStore. A missing file yields an empty set.
func (s *Store) Load(_ context.Context) (domain.EmbeddingSet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(domain.EmbeddingSet), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", s.path, err)
	}

	var set domain.EmbeddingSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse cache %s: %w", s.path, err)
	}
	if set == nil {
		set = make(domain.EmbeddingSet)
	}
	return set, nil
}

// Save implements driven.CacheStore.
func (s *Store) Save(_ context.Context, set domain.EmbeddingSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write cache %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace cache %s: %w", s.path, err)
	}
	return nil
}

// Path implements driven.CacheStore.
func (s *Store) Path() string { return s.path }
