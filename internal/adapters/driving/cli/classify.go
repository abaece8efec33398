package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/corpus"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

var (
	classifyInput  string
	classifyOutput string
	classifyModel  string
)

// classifyFlushEvery is how many new classifications accumulate before the
// output file is rewritten mid-batch.
const classifyFlushEvery = 10

// classifyRecord is one input entry: a publication title and abstract.
type classifyRecord struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify publication records into categories",
	Long: `Classifies each title+abstract record of the input JSON with the
generation model and writes the results as JSON.

The batch is resumable: records whose title already appears in the output
file are skipped, and the output is flushed every few items, so an
interrupted run picks up close to where it stopped. Unparseable model
responses are recorded as category "Unknown" and the batch continues.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyInput, "input-file", "i", "", "JSON file with a list of {title, abstract} records (required)")
	classifyCmd.Flags().StringVarP(&classifyOutput, "output-file", "o", "", "output JSON file (required)")
	classifyCmd.Flags().StringVarP(&classifyModel, "model-name", "m", "", "generation model (default from config)")
	_ = classifyCmd.MarkFlagRequired("input-file")
	_ = classifyCmd.MarkFlagRequired("output-file")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	var records []classifyRecord
	if err := corpus.ReadJSONFile(classifyInput, &records); err != nil {
		return err
	}

	// Resume from a previous run if the output exists.
	var outputs []domain.Classification
	if err := corpus.ReadJSONFile(classifyOutput, &outputs); err != nil && !os.IsNotExist(err) {
		return err
	}
	processed := make(map[string]struct{}, len(outputs))
	for _, o := range outputs {
		processed[o.Title] = struct{}{}
	}

	extractor, err := buildExtractor(classifyModel)
	if err != nil {
		return err
	}
	cmd.Printf("Classifying %d records using the model %s...\n", len(records), extractor.Model())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pending := 0
	for idx, rec := range records {
		if _, done := processed[rec.Title]; done {
			logger.Info("Record %d/%d already classified, skipping: %s", idx+1, len(records), rec.Title)
			continue
		}

		logger.Info("Classifying record %d/%d: %s", idx+1, len(records), rec.Title)
		result, err := extractor.Classify(ctx, rec.Title, rec.Abstract)
		if err != nil {
			// Persist progress before surfacing a transport failure; the
			// next run resumes at this record.
			if pending > 0 {
				if saveErr := corpus.WriteJSONFile(classifyOutput, outputs); saveErr != nil {
					return saveErr
				}
			}
			return err
		}

		outputs = append(outputs, result)
		processed[rec.Title] = struct{}{}

		pending++
		if pending >= classifyFlushEvery {
			if err := corpus.WriteJSONFile(classifyOutput, outputs); err != nil {
				return err
			}
			pending = 0
		}
	}

	if len(outputs) == 0 {
		cmd.Printf("No valid outputs found for the %s file.\n", classifyInput)
		return nil
	}
	if err := corpus.WriteJSONFile(classifyOutput, outputs); err != nil {
		return err
	}
	cmd.Printf("Wrote %d classifications to %s\n", len(outputs), classifyOutput)
	return nil
}
