// Package openai provides an embedding provider backed by the OpenAI API,
// for runs where no local Ollama model is available.
package openai

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// APIKeyEnv is the environment variable holding the OpenAI API key.
const APIKeyEnv = "OPENAI_API_KEY"

// Embedder generates embeddings via the OpenAI embeddings API.
type Embedder struct {
	client *openai.Client
	model  string
	dims   int
}

// NewEmbedder creates an OpenAI embedder. The API key comes from the
// OPENAI_API_KEY environment variable; a missing key is a configuration
// error, reported immediately.
func NewEmbedder(model string) (*Embedder, error) {
	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: %s not set", domain.ErrConfiguration, APIKeyEnv)
	}

	if model == "" {
		model = DefaultModel
	}

	dims := 1536 // text-embedding-3-small
	if model == string(openai.LargeEmbedding3) {
		dims = 3072
	}

	return &Embedder{
		client: openai.NewClient(key),
		model:  model,
		dims:   dims,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one API call,
// returned in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("openai embeddings: out-of-range index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int { return e.dims }

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string { return "openai-" + e.model }

// Ping validates the API key with a minimal embedding request.
func (e *Embedder) Ping(ctx context.Context) error {
	_, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{"ping"},
	})
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (e *Embedder) Close() error { return nil }
