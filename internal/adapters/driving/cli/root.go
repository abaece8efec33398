// Package cli implements the command-line interface. Commands are thin
// wrappers over the driving ports; all wiring of concrete adapters happens
// in main and is injected through SetFactories.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

// version is set from main at startup.
var version = "dev"

var verbose bool

// Factories are the constructors the commands use to build their pipelines.
// Several commands take a model name or service URL as a flag, so adapters
// cannot be constructed up front; main injects constructors instead and the
// command builds what it needs at run time.
type Factories struct {
	// Config is the application config store (flags override its values).
	Config driven.ConfigStore

	// Prompts is the LLM prompt store.
	Prompts driven.PromptStore

	// Embedder builds an embedding provider for the given model name.
	Embedder func(model string) (driven.Embedder, error)

	// LLM builds a generation service for the given model name.
	LLM func(model string) (driven.LLMService, error)

	// Reranker builds the reranker. Must fail (ErrMissingAPIKey) when the
	// API key is absent so a rerank run aborts before any work happens.
	Reranker func() (driven.Reranker, error)

	// CacheStore opens the embedding cache store at path ("" = default).
	CacheStore func(path string) (driven.CacheStore, error)

	// PDFParser builds a grobid client for the given service URL.
	PDFParser func(grobidURL string) (driven.PDFParser, error)
}

var factories Factories

// SetFactories injects the adapter constructors. Called from main before
// Execute, and from tests with mocks.
func SetFactories(f Factories) {
	factories = f
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "text2knowledge",
	Short: "Turn biomedical publications into structured knowledge",
	Long: `text2knowledge converts biomedical publications into structured knowledge:
it extracts fulltext from PDFs via grobid, chunks it into a retrieval corpus,
finds the chunks most relevant to a question by embedding similarity, and
extracts entities and relations with a local LLM.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// A .env in the working directory supplies API keys (COHERE_API_KEY,
		// OPENAI_API_KEY). Missing file is fine.
		_ = godotenv.Load()
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose progress output on stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// configString returns the flag value if set, then the config value, then
// the fallback.
func configString(flagVal, key, fallback string) string {
	if flagVal != "" {
		return flagVal
	}
	if factories.Config != nil {
		if v := factories.Config.GetString(key); v != "" {
			return v
		}
	}
	return fallback
}

// configFloat returns the flag value if it differs from its default, then
// the config value, then the default.
func configFloat(flagVal, flagDefault float64, key string) float64 {
	if flagVal != flagDefault {
		return flagVal
	}
	if factories.Config != nil {
		if _, ok := factories.Config.Get(key); ok {
			return factories.Config.GetFloat(key)
		}
	}
	return flagDefault
}
