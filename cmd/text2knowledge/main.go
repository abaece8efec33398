// Command text2knowledge is the biomedical text-to-knowledge pipeline CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/open-prophetdb/text2knowledge/internal/adapters/driven/cachestore/file"
	sqlitestore "github.com/open-prophetdb/text2knowledge/internal/adapters/driven/cachestore/sqlite"
	configfile "github.com/open-prophetdb/text2knowledge/internal/adapters/driven/config/file"
	ollamaembed "github.com/open-prophetdb/text2knowledge/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/open-prophetdb/text2knowledge/internal/adapters/driven/embedding/openai"
	"github.com/open-prophetdb/text2knowledge/internal/adapters/driven/grobid"
	ollamallm "github.com/open-prophetdb/text2knowledge/internal/adapters/driven/llm/ollama"
	"github.com/open-prophetdb/text2knowledge/internal/adapters/driven/rerank/cohere"
	"github.com/open-prophetdb/text2knowledge/internal/adapters/driving/cli"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// openaiPrefix selects the OpenAI embedding provider instead of a local
// Ollama model, e.g. "openai-text-embedding-3-small".
const openaiPrefix = "openai-"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	promptStore, err := configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	baseURL := configStore.GetString(driven.ConfigOllamaBaseURL)

	cli.SetVersion(version)
	cli.SetFactories(cli.Factories{
		Config:  configStore,
		Prompts: promptStore,

		Embedder: func(model string) (driven.Embedder, error) {
			if strings.HasPrefix(model, openaiPrefix) {
				return openaiembed.NewEmbedder(strings.TrimPrefix(model, openaiPrefix))
			}
			return ollamaembed.NewEmbedder(ollamaembed.Config{
				BaseURL: baseURL,
				Model:   model,
			}), nil
		},

		LLM: func(model string) (driven.LLMService, error) {
			return ollamallm.NewLLMService(ollamallm.Config{
				BaseURL: baseURL,
				Model:   model,
			}), nil
		},

		Reranker: func() (driven.Reranker, error) {
			return cohere.NewReranker(cohere.Config{
				Model: configStore.GetString(driven.ConfigRerankModel),
			})
		},

		CacheStore: func(path string) (driven.CacheStore, error) {
			if path == "" {
				path = configStore.GetString(driven.ConfigCachePath)
			}
			if strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite") {
				return sqlitestore.NewStore(path)
			}
			return file.NewStore(path)
		},

		PDFParser: func(grobidURL string) (driven.PDFParser, error) {
			return grobid.NewParser(grobid.Config{
				BaseURL:           grobidURL,
				RequestsPerSecond: 0.5, // grobid queues internally; pace submissions
			}), nil
		},
	})

	return cli.Execute()
}
