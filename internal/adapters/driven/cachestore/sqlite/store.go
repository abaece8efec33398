// Package sqlite provides a SQLite-backed implementation of the embedding
// cache store. Unlike the whole-file JSON store it scales to corpora whose
// cache no longer fits comfortably in one blob, and its transactional
// writes give the same can't-corrupt-on-interrupt guarantee.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CacheStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	model    TEXT NOT NULL,
	name     TEXT NOT NULL,
	vector   TEXT NOT NULL,
	metadata TEXT NOT NULL,
	PRIMARY KEY (model, name)
);
`

// Store persists the embedding cache in a SQLite database keyed by
// (model, name). Vectors and metadata are stored as JSON columns.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the cache database at path. If path
// is empty it defaults to ~/.text2knowledge/embeddings.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, ".text2knowledge", "embeddings.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create embeddings table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Load implements driven.CacheStore.
func (s *Store) Load(ctx context.Context) (domain.EmbeddingSet, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT model, name, vector, metadata FROM embeddings")
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	set := make(domain.EmbeddingSet)
	for rows.Next() {
		var model, name, vectorJSON, metadataJSON string
		if err := rows.Scan(&model, &name, &vectorJSON, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scan embedding row: %w", err)
		}

		var rec domain.EmbeddingRecord
		if err := json.Unmarshal([]byte(vectorJSON), &rec.Vector); err != nil {
			return nil, fmt.Errorf("parse vector for (%s, %s): %w", model, name, err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata for (%s, %s): %w", model, name, err)
		}
		set.Put(model, name, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return set, nil
}

// Save implements driven.CacheStore. The whole set is written in one
// transaction; rows absent from the set are removed so Save has the same
// replace semantics as the file store.
func (s *Store) Save(ctx context.Context, set domain.EmbeddingSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings"); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO embeddings (model, name, vector, metadata) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for model, ns := range set {
		for name, rec := range ns {
			vectorJSON, err := json.Marshal(rec.Vector)
			if err != nil {
				return fmt.Errorf("marshal vector for (%s, %s): %w", model, name, err)
			}
			metadataJSON, err := json.Marshal(rec.Metadata)
			if err != nil {
				return fmt.Errorf("marshal metadata for (%s, %s): %w", model, name, err)
			}
			if _, err := stmt.ExecContext(ctx, model, name, string(vectorJSON), string(metadataJSON)); err != nil {
				return fmt.Errorf("insert (%s, %s): %w", model, name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Path implements driven.CacheStore.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }
