package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driving"
	"github.com/open-prophetdb/text2knowledge/internal/core/services"
	"github.com/open-prophetdb/text2knowledge/internal/corpus"
)

var (
	normalizeInput     string
	normalizeOntology  string
	normalizeOutput    string
	normalizeTopK      int
	normalizeMinScore  float64
	normalizeModel     string
	normalizeStrategy  string
	normalizeCachePath string
)

// normalizedMention is one output record: a mention and its accepted
// ontology matches, best first. An empty matches list means unmapped.
type normalizedMention struct {
	Mention string                   `json:"mention"`
	Matches []domain.ScoredCandidate `json:"matches"`
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Map free-text entity mentions onto ontology terms",
	Long: `Reads entity mentions (one per line) and scores each against a reference
ontology by embedding similarity. For every mention the top-K terms above
the acceptance threshold are written as JSON; mentions with no term above
the threshold are reported as unmapped.

Ontology files may carry a precomputed embedding column ("|"-joined
floats); those vectors are used as-is instead of calling the embedder.`,
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeInput, "input-file", "i", "", "mentions file, one per line (required)")
	normalizeCmd.Flags().StringVar(&normalizeOntology, "ontology", "", "ontology TSV file (required)")
	normalizeCmd.Flags().StringVarP(&normalizeOutput, "output-file", "o", "", "output JSON file (required)")
	normalizeCmd.Flags().IntVarP(&normalizeTopK, "topk", "k", 1, "accepted terms per mention")
	normalizeCmd.Flags().Float64VarP(&normalizeMinScore, "min-score", "s", 0.8, "acceptance threshold (score must exceed it)")
	normalizeCmd.Flags().StringVarP(&normalizeModel, "model-name", "m", "", "embedding model (default from config)")
	normalizeCmd.Flags().StringVar(&normalizeStrategy, "strategy", "vectorized", "scoring strategy: pairwise or vectorized")
	normalizeCmd.Flags().StringVar(&normalizeCachePath, "cache-path", "", "embedding cache location (default from config)")
	_ = normalizeCmd.MarkFlagRequired("input-file")
	_ = normalizeCmd.MarkFlagRequired("ontology")
	_ = normalizeCmd.MarkFlagRequired("output-file")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, _ []string) error {
	scorer, err := scorerFor(normalizeStrategy)
	if err != nil {
		return err
	}

	mentions, err := readMentions(normalizeInput)
	if err != nil {
		return err
	}
	if len(mentions) == 0 {
		cmd.Println("No mentions found.")
		return nil
	}

	ontology, err := corpus.LoadOntology(normalizeOntology)
	if err != nil {
		return err
	}

	embedder, cache, err := buildCache(normalizeModel, normalizeCachePath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	normalizer := services.NewNormalizeService(cache, embedder, scorer)
	matches, err := normalizer.Normalize(ctx, mentions, ontology, driving.RetrievalOptions{
		TopN:     normalizeTopK,
		MinScore: normalizeMinScore,
	})
	if err != nil {
		return err
	}

	mapped := 0
	records := make([]normalizedMention, len(mentions))
	for i, mention := range mentions {
		records[i] = normalizedMention{Mention: mention, Matches: matches[i]}
		if len(matches[i]) > 0 {
			mapped++
		}
	}

	if err := corpus.WriteJSONFile(normalizeOutput, records); err != nil {
		return err
	}
	cmd.Printf("Normalized %d of %d mentions (min score %.2f), results in %s\n",
		mapped, len(mentions), normalizeMinScore, normalizeOutput)
	return nil
}

// readMentions reads one mention per line, skipping blanks.
func readMentions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mentions %s: %w", path, err)
	}
	defer f.Close()

	var mentions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := strings.TrimSpace(scanner.Text()); m != "" {
			mentions = append(mentions, m)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mentions %s: %w", path, err)
	}
	return mentions, nil
}
