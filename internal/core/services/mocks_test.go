package services

import (
	"context"
	"fmt"

	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// mockEmbedder serves fixed vectors per input text and counts calls, so
// tests can assert on cache behaviour.
type mockEmbedder struct {
	model   string
	vectors map[string][]float32
	calls   int

	// failOn makes Embed fail for one specific text.
	failOn string
}

func newMockEmbedder(model string, vectors map[string][]float32) *mockEmbedder {
	return &mockEmbedder{model: model, vectors: vectors}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if text == m.failOn {
		return nil, fmt.Errorf("embed %q: boom", text)
	}
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

func (m *mockEmbedder) Dimensions() int { return 2 }

func (m *mockEmbedder) ModelName() string { return m.model }

func (m *mockEmbedder) Ping(context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockReranker returns canned results and records what it was asked.
type mockReranker struct {
	results    []driven.RerankResult
	err        error
	gotQuery   string
	gotTexts   []string
	rerankCall int
}

func (m *mockReranker) Rerank(_ context.Context, query string, candidates []string) ([]driven.RerankResult, error) {
	m.rerankCall++
	m.gotQuery = query
	m.gotTexts = candidates
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockReranker) ModelName() string { return "mock-rerank" }

// mockLLM replays queued responses and records the prompts it received.
type mockLLM struct {
	responses []string
	calls     int

	gotSystems []string
	gotPrompts []string
}

func (m *mockLLM) Generate(_ context.Context, system, prompt string, _ driven.GenerateOptions) (string, error) {
	m.gotSystems = append(m.gotSystems, system)
	m.gotPrompts = append(m.gotPrompts, prompt)
	if m.calls >= len(m.responses) {
		return "", fmt.Errorf("no response queued for call %d", m.calls)
	}
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// defaultTestPrompts covers the prompt names the extraction service loads.
func defaultTestPrompts() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptEntityExtraction:   "extract entities as JSON",
		driven.PromptRelationExtraction: "extract relations as JSON",
		driven.PromptClassification:     "classify as JSON",
		driven.PromptEntityReview:       "review previous entities:\n%s",
	}}
}
