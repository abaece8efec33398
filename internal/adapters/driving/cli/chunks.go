package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/open-prophetdb/text2knowledge/internal/chunker"
	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/corpus"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

var (
	chunkType    string
	chunkSize    int
	sentenceSize int
)

var chunksCmd = &cobra.Command{
	Use:   "chunks [input-dir] [output-file]",
	Short: "Build a retrieval corpus from extracted articles",
	Long: `Reads the article JSONs produced by pdf2text (layout
<input-dir>/<pmid>/<pmid>.json) and writes one corpus JSON array of text
chunks for retrieval.

Chunk types:
  sections  - one chunk per article section (default)
  chunks    - fixed-size character slices of the full text
  sentences - groups of consecutive sentences`,
	Args: cobra.ExactArgs(2),
	RunE: runChunks,
}

func init() {
	chunksCmd.Flags().StringVar(&chunkType, "chunk-type", "sections", "chunk type: sections, chunks or sentences")
	chunksCmd.Flags().IntVar(&chunkSize, "chunk-size", chunker.DefaultChunkSize, "chunk size in characters (chunk-type=chunks)")
	chunksCmd.Flags().IntVar(&sentenceSize, "sentence-size", chunker.DefaultSentenceGroup, "sentences per chunk (chunk-type=sentences)")
	rootCmd.AddCommand(chunksCmd)
}

func runChunks(cmd *cobra.Command, args []string) error {
	inputDir, outputFile := args[0], args[1]

	switch chunker.Mode(chunkType) {
	case chunker.ModeSections, chunker.ModeChunks, chunker.ModeSentences:
	default:
		return fmt.Errorf("unknown chunk type %q", chunkType)
	}

	c := chunker.New(
		chunker.WithMode(chunker.Mode(chunkType)),
		chunker.WithChunkSize(chunkSize),
		chunker.WithSentenceGroup(sentenceSize),
	)

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("read input dir %s: %w", inputDir, err)
	}

	var chunks []domain.TextChunk
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pmid := entry.Name()
		file := filepath.Join(inputDir, pmid, pmid+".json")
		if _, err := os.Stat(file); err != nil {
			continue
		}

		var article domain.Article
		if err := corpus.ReadJSONFile(file, &article); err != nil {
			return err
		}
		if article.PMID == "" {
			article.PMID = pmid
		}

		articleChunks := c.Chunk(article, filepath.Base(file))
		logger.Debug("%s: %d chunks", pmid, len(articleChunks))
		chunks = append(chunks, articleChunks...)
	}

	if err := corpus.WriteChunks(outputFile, chunks); err != nil {
		return err
	}
	cmd.Printf("Wrote %d chunks to %s\n", len(chunks), outputFile)
	return nil
}
