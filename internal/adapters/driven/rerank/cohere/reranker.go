// Package cohere provides a reranker backed by the Cohere rerank API.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.cohere.com"
	DefaultModel   = "rerank-english-v3.0"
	DefaultTimeout = 60 * time.Second
)

// APIKeyEnv is the environment variable holding the Cohere API key.
const APIKeyEnv = "COHERE_API_KEY"

// Config holds configuration for the Cohere reranker.
type Config struct {
	// BaseURL is the API base URL (default: https://api.cohere.com).
	BaseURL string

	// Model is the rerank model (default: rerank-english-v3.0).
	Model string

	// APIKey overrides the COHERE_API_KEY environment variable.
	APIKey string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Reranker scores (query, document) pairs via the Cohere /v2/rerank
// endpoint. The cross-encoder is more accurate than embedding similarity
// but far more expensive, which is why it only ever sees a shortlist.
type Reranker struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// rerankRequest is the Cohere API request format.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

// rerankResponse is the Cohere API response format.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// NewReranker creates a Cohere reranker. A missing API key is a fatal
// configuration error: re-ranking was explicitly requested, so there is
// no degraded mode to fall back to.
func NewReranker(cfg Config) (*Reranker, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: set %s", domain.ErrMissingAPIKey, APIKeyEnv)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Reranker{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  key,
	}, nil
}

// Rerank implements driven.Reranker. Results come back sorted by
// relevance descending; indices refer to the candidates slice.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []string) ([]driven.RerankResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	reqBody := rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: candidates,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/v2/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("cohere error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("cohere error (status %d): %s", resp.StatusCode, string(body))
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]driven.RerankResult, len(rerankResp.Results))
	for i, res := range rerankResp.Results {
		results[i] = driven.RerankResult{
			Index:     res.Index,
			Relevance: res.RelevanceScore,
		}
	}
	return results, nil
}

// ModelName returns the rerank model identifier.
func (r *Reranker) ModelName() string {
	return "cohere-" + r.model
}
