package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driving"
	"github.com/open-prophetdb/text2knowledge/internal/core/services"
	"github.com/open-prophetdb/text2knowledge/internal/corpus"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

var (
	retrieveQuestion   string
	retrieveChunksFile string
	retrieveOutput     string
	retrieveTopN       int
	retrieveMinScore   float64
	retrieveModel      string
	retrieveRerank     bool
	retrievePDFDir     string
	retrieveStrategy   string
	retrieveCachePath  string
	retrieveFlushEvery int
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Find the top-N text chunks most relevant to a question",
	Long: `Scores every corpus chunk against the question by embedding cosine
similarity and writes the top-N as tab-separated text sorted by score
descending. Corpus embeddings are cached, so only new chunks and the
question itself are embedded.

With --rerank the similarity shortlist is re-scored by a cross-encoder
rerank model; this requires COHERE_API_KEY. With --pdf-dir the source PDFs
of the selected chunks are copied next to the output file.`,
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVarP(&retrieveQuestion, "question", "q", "", "question to retrieve for (required)")
	retrieveCmd.Flags().StringVarP(&retrieveChunksFile, "text-chunks", "t", "", "corpus JSON file (required)")
	retrieveCmd.Flags().StringVarP(&retrieveOutput, "output-file", "o", "", "output TSV file (required)")
	retrieveCmd.Flags().IntVarP(&retrieveTopN, "topn", "n", 5, "number of chunks to return")
	retrieveCmd.Flags().Float64VarP(&retrieveMinScore, "min-score", "s", 0.0, "exclude candidates with score <= min-score")
	retrieveCmd.Flags().StringVarP(&retrieveModel, "model-name", "m", "", "embedding model (default from config)")
	retrieveCmd.Flags().BoolVarP(&retrieveRerank, "rerank", "c", false, "re-rank the shortlist with the rerank model")
	retrieveCmd.Flags().StringVarP(&retrievePDFDir, "pdf-dir", "p", "", "copy source PDFs of the results into <output dir>/topn_papers")
	retrieveCmd.Flags().StringVar(&retrieveStrategy, "strategy", "vectorized", "scoring strategy: pairwise or vectorized")
	retrieveCmd.Flags().StringVar(&retrieveCachePath, "cache-path", "", "embedding cache location (default from config)")
	retrieveCmd.Flags().IntVar(&retrieveFlushEvery, "flush-every", services.DefaultFlushEvery, "persist the cache after this many new embeddings")
	_ = retrieveCmd.MarkFlagRequired("question")
	_ = retrieveCmd.MarkFlagRequired("text-chunks")
	_ = retrieveCmd.MarkFlagRequired("output-file")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, _ []string) error {
	scorer, err := scorerFor(retrieveStrategy)
	if err != nil {
		return err
	}

	// Build the reranker first: a missing API key must abort before any
	// embedding work or output happens.
	var reranker driven.Reranker
	if retrieveRerank {
		if factories.Reranker == nil {
			return fmt.Errorf("%w: no reranker configured", domain.ErrMissingAPIKey)
		}
		reranker, err = factories.Reranker()
		if err != nil {
			return err
		}
	}

	chunks, err := corpus.LoadChunks(retrieveChunksFile)
	if err != nil {
		return err
	}

	embedder, cache, err := buildCache(retrieveModel, retrieveCachePath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	retriever := services.NewRetrievalService(cache, embedder, reranker, scorer)
	results, err := retriever.Retrieve(ctx, retrieveQuestion, chunks, driving.RetrievalOptions{
		TopN:       retrieveTopN,
		MinScore:   configFloat(retrieveMinScore, 0.0, driven.ConfigMinScore),
		Rerank:     retrieveRerank,
		FlushEvery: retrieveFlushEvery,
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		cmd.Println("No text chunks found.")
		return nil
	}

	if err := corpus.WriteScores(retrieveOutput, results); err != nil {
		return err
	}
	cmd.Printf("Top %d text chunks are saved in the %s file.\n", retrieveTopN, retrieveOutput)

	if retrievePDFDir == "" {
		return nil
	}
	return copySourcePDFs(cmd, results)
}

// copySourcePDFs copies the source PDFs of the selected chunks into
// <output dir>/topn_papers. The directory must not already exist; silently
// merging two retrieval runs would make the folder's provenance unclear.
func copySourcePDFs(cmd *cobra.Command, results []domain.ScoredCandidate) error {
	papersDir := filepath.Join(filepath.Dir(retrieveOutput), "topn_papers")
	if _, err := os.Stat(papersDir); err == nil {
		return fmt.Errorf("%w: %s already exists", domain.ErrOutputExists, papersDir)
	}
	if err := os.MkdirAll(papersDir, 0750); err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for _, r := range results {
		if r.Filename == "" {
			continue
		}
		// Chunk filenames point at article JSONs; the source PDF shares
		// the stem.
		pdfName := strings.TrimSuffix(filepath.Base(r.Filename), filepath.Ext(r.Filename)) + ".pdf"
		if _, done := seen[pdfName]; done {
			continue
		}
		seen[pdfName] = struct{}{}

		src := filepath.Join(retrievePDFDir, pdfName)
		if _, err := os.Stat(src); err != nil {
			cmd.Printf("%s does not exist.\n", src)
			continue
		}
		if err := copyFile(src, filepath.Join(papersDir, pdfName)); err != nil {
			return err
		}
		logger.Debug("Copied %s to %s", src, papersDir)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
