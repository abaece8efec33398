package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a fatal configuration problem (missing
	// required file, missing API key, neither corpus source specified).
	// Reported immediately, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingAPIKey indicates re-ranking was requested but no API key is
	// present in the environment. Fatal, like all configuration errors.
	ErrMissingAPIKey = errors.New("rerank API key not configured")

	// ErrEmbedderUnavailable indicates the embedding backend is not
	// reachable. Embedding is a process precondition, so this is fatal.
	ErrEmbedderUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM backend is not configured or not
	// reachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrDimensionMismatch indicates vectors of different lengths (or from
	// different models) were combined in one similarity comparison.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrOutputExists indicates an output location already exists and will
	// not be overwritten.
	ErrOutputExists = errors.New("output already exists")
)
