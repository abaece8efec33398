package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/open-prophetdb/text2knowledge/internal/adapters/driven/cachestore/memory"
	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// runCLI executes the root command with the given arguments and returns the
// combined output. Flag values are reset first so tests do not leak state
// into each other.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// mockConfig is an in-memory config store.
type mockConfig struct {
	values map[string]any
}

func (m *mockConfig) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfig) GetString(key string) string {
	if v, ok := m.values[key].(string); ok {
		return v
	}
	return ""
}

func (m *mockConfig) GetInt(key string) int {
	if v, ok := m.values[key].(int); ok {
		return v
	}
	return 0
}

func (m *mockConfig) GetBool(key string) bool {
	if v, ok := m.values[key].(bool); ok {
		return v
	}
	return false
}

func (m *mockConfig) GetFloat(key string) float64 {
	if v, ok := m.values[key].(float64); ok {
		return v
	}
	return 0
}

func (m *mockConfig) Set(key string, value any) error {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[key] = value
	return nil
}

func (m *mockConfig) Save() error { return nil }
func (m *mockConfig) Load() error { return nil }
func (m *mockConfig) Path() string { return "mock" }

// mockEmbedder serves fixed vectors per input text.
type mockEmbedder struct {
	model   string
	vectors map[string][]float32
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	vec, ok := m.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return 2 }
func (m *mockEmbedder) ModelName() string          { return m.model }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// mockLLM replays queued responses.
type mockLLM struct {
	responses  []string
	calls      int
	gotPrompts []string
}

func (m *mockLLM) Generate(_ context.Context, _, prompt string, _ driven.GenerateOptions) (string, error) {
	m.gotPrompts = append(m.gotPrompts, prompt)
	if m.calls >= len(m.responses) {
		return "", fmt.Errorf("no response queued for call %d", m.calls)
	}
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// mockPrompts serves the same template for every prompt name.
type mockPrompts struct{}

func (mockPrompts) Load(name string) (string, error) {
	if name == driven.PromptEntityReview {
		return "review: %s", nil
	}
	return "system prompt for " + name, nil
}

func (mockPrompts) Reload() {}

// mockReranker returns canned results.
type mockReranker struct {
	results []driven.RerankResult
}

func (m *mockReranker) Rerank(context.Context, string, []string) ([]driven.RerankResult, error) {
	return m.results, nil
}

func (m *mockReranker) ModelName() string { return "mock-rerank" }

// mockPDFParser returns a canned article for any PDF.
type mockPDFParser struct {
	article domain.Article
	calls   int
}

func (m *mockPDFParser) ParseFulltext(_ context.Context, _ string) (*domain.Article, error) {
	m.calls++
	a := m.article
	return &a, nil
}

func (m *mockPDFParser) Ping(context.Context) error { return nil }

// testFactories wires every factory to in-memory mocks. Individual tests
// override fields before calling SetFactories.
func testFactories(embedder *mockEmbedder, llm *mockLLM) (Factories, *memory.Store) {
	store := memory.NewStore()
	return Factories{
		Config:  &mockConfig{},
		Prompts: mockPrompts{},
		Embedder: func(string) (driven.Embedder, error) {
			return embedder, nil
		},
		LLM: func(string) (driven.LLMService, error) {
			return llm, nil
		},
		Reranker: func() (driven.Reranker, error) {
			return nil, fmt.Errorf("%w: set COHERE_API_KEY", domain.ErrMissingAPIKey)
		},
		CacheStore: func(string) (driven.CacheStore, error) {
			return store, nil
		},
		PDFParser: func(string) (driven.PDFParser, error) {
			return &mockPDFParser{}, nil
		},
	}, store
}
