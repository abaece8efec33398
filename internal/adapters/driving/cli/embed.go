package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/services"
	"github.com/open-prophetdb/text2knowledge/internal/corpus"
)

var (
	embedChunksFile   string
	embedOntologyFile string
	embedModel        string
	embedCachePath    string
	embedFlushEvery   int
	embedContinue     bool
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Populate the embedding cache ahead of retrieval",
	Long: `Computes and caches embeddings for a corpus or ontology file so later
retrieve and normalize runs only pay for the query embedding.

The cache is keyed by (model, chunk name): already cached chunks are
skipped and the cache is flushed periodically, so an interrupted run
resumes where the last flush left off.`,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVarP(&embedChunksFile, "text-chunks", "t", "", "corpus JSON file to embed")
	embedCmd.Flags().StringVar(&embedOntologyFile, "ontology", "", "ontology TSV file to embed")
	embedCmd.Flags().StringVarP(&embedModel, "model-name", "m", "", "embedding model (default from config)")
	embedCmd.Flags().StringVar(&embedCachePath, "cache-path", "", "embedding cache location (default from config)")
	embedCmd.Flags().IntVar(&embedFlushEvery, "flush-every", services.DefaultFlushEvery, "persist the cache after this many new embeddings")
	embedCmd.Flags().BoolVar(&embedContinue, "continue-on-error", false, "skip chunks whose embedding call fails instead of aborting")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	if embedChunksFile == "" && embedOntologyFile == "" {
		return errMissingInput
	}

	var chunks []domain.TextChunk
	if embedChunksFile != "" {
		loaded, err := corpus.LoadChunks(embedChunksFile)
		if err != nil {
			return err
		}
		chunks = append(chunks, loaded...)
	}
	if embedOntologyFile != "" {
		terms, err := corpus.LoadOntology(embedOntologyFile)
		if err != nil {
			return err
		}
		for _, term := range terms {
			if len(term.Embedding) > 0 {
				continue
			}
			chunks = append(chunks, term.Chunk())
		}
	}

	_, cache, err := buildCache(embedModel, embedCachePath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report, err := cache.BulkPopulate(ctx, chunks, services.PopulateOptions{
		FlushEvery:      embedFlushEvery,
		ContinueOnError: embedContinue,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Embedded %d chunks (%d already cached, %d failed) with model %s\n",
		report.Computed, report.Skipped, len(report.Failed), cache.Model())
	for _, name := range report.Failed {
		cmd.Printf("  failed: %s\n", name)
	}
	return nil
}
