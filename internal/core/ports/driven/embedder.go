package driven

import "context"

// Embedder generates vector embeddings from text.
//
// Implementations must be deterministic for a fixed model and input: the
// same text always yields the same vector. Invocation is expensive, which
// is why every generated vector goes through the embedding cache.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// Fixed per model; vectors of different models must never be compared.
	Dimensions() int

	// ModelName returns the name of the embedding model being used. It is
	// the cache namespace key.
	ModelName() string

	// Ping validates the backend is reachable with a lightweight request.
	// Called once at startup: an unreachable model is a process
	// precondition failure, not a per-call error.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
