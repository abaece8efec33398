package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/core/services"
	"github.com/open-prophetdb/text2knowledge/internal/corpus"
)

var (
	extractTextFile     string
	extractOutput       string
	extractModel        string
	extractMetadataFile string
	extractReview       bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured knowledge from text with an LLM",
}

var extractEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Extract biomedical entities from a text file",
	Long: `Sends the text to the generation model with the entity extraction prompt
and writes the entities as JSON. When the model response cannot be parsed
the raw response is kept in the output with an error flag, so a batch over
many files always continues.

If the output file already exists the extraction is skipped; with --review
the previous entities are instead sent back to the model for correction.`,
	RunE: runExtractEntities,
}

var extractRelationsCmd = &cobra.Command{
	Use:   "relations",
	Short: "Extract relationships between biomedical entities from a text file",
	Long: `Sends the text to the generation model with the relation extraction prompt
and writes source/target/relation triples as JSON. Unparseable responses
are recorded with an error flag instead of aborting.`,
	RunE: runExtractRelations,
}

func init() {
	for _, cmd := range []*cobra.Command{extractEntitiesCmd, extractRelationsCmd} {
		cmd.Flags().StringVarP(&extractTextFile, "text-file", "i", "", "input text file (required)")
		cmd.Flags().StringVarP(&extractOutput, "output-file", "o", "", "output JSON file (required)")
		cmd.Flags().StringVarP(&extractModel, "model-name", "m", "", "generation model (default from config)")
		cmd.Flags().StringVarP(&extractMetadataFile, "metadata", "d", "", "JSON file of key-value pairs merged into every result")
		_ = cmd.MarkFlagRequired("text-file")
		_ = cmd.MarkFlagRequired("output-file")
	}
	extractEntitiesCmd.Flags().BoolVarP(&extractReview, "review", "r", false, "re-check a previous extraction and correct it")

	extractCmd.AddCommand(extractEntitiesCmd)
	extractCmd.AddCommand(extractRelationsCmd)
	rootCmd.AddCommand(extractCmd)
}

// buildExtractor constructs the extraction service for the model flag.
func buildExtractor(model string) (*services.ExtractionService, error) {
	if factories.LLM == nil || factories.Prompts == nil {
		return nil, errors.New("extraction services not configured")
	}

	model = configString(model, driven.ConfigOllamaGenModel, "")
	llm, err := factories.LLM(model)
	if err != nil {
		return nil, err
	}
	return services.NewExtractionService(llm, factories.Prompts), nil
}

func runExtractEntities(cmd *cobra.Command, _ []string) error {
	text, metadata, err := readExtractionInput()
	if err != nil {
		return err
	}

	// A previous output means the work is done, unless a review pass over
	// it was asked for.
	var previous []domain.Entity
	if _, err := os.Stat(extractOutput); err == nil {
		if !extractReview {
			cmd.Printf("Entities found in the %s file, so we will skip the extraction.\n", extractOutput)
			return nil
		}
		var prev domain.ExtractionResult
		if err := corpus.ReadJSONFile(extractOutput, &prev); err != nil {
			return fmt.Errorf("load previous extraction: %w", err)
		}
		previous = prev.Entities
		if len(previous) > 0 {
			cmd.Printf("Entities found in the %s file, so we will review them.\n", extractOutput)
		}
	}

	extractor, err := buildExtractor(extractModel)
	if err != nil {
		return err
	}
	cmd.Printf("Extracting entities using the model %s...\n", extractor.Model())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := extractor.ExtractEntities(ctx, text, metadata, previous)
	if err != nil {
		return err
	}

	if err := corpus.WriteJSONFile(extractOutput, result); err != nil {
		return err
	}
	if result.Error {
		cmd.Printf("Model response for %s could not be parsed; raw response kept in %s.\n", extractTextFile, extractOutput)
	} else if len(result.Entities) == 0 {
		cmd.Printf("No entities found for the %s file.\n", extractTextFile)
	} else {
		cmd.Printf("Extracted %d entities to %s\n", len(result.Entities), extractOutput)
	}
	return nil
}

func runExtractRelations(cmd *cobra.Command, _ []string) error {
	text, metadata, err := readExtractionInput()
	if err != nil {
		return err
	}

	extractor, err := buildExtractor(extractModel)
	if err != nil {
		return err
	}
	cmd.Printf("Extracting relations using the model %s...\n", extractor.Model())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := extractor.ExtractRelations(ctx, text, metadata)
	if err != nil {
		return err
	}

	if err := corpus.WriteJSONFile(extractOutput, result); err != nil {
		return err
	}
	if result.Error {
		cmd.Printf("Model response for %s could not be parsed; raw response kept in %s.\n", extractTextFile, extractOutput)
	} else if len(result.Relations) == 0 {
		cmd.Printf("No relations found for the %s file.\n", extractTextFile)
	} else {
		cmd.Printf("Extracted %d relations to %s\n", len(result.Relations), extractOutput)
	}
	return nil
}

// readExtractionInput loads the text file and the optional metadata JSON.
func readExtractionInput() (string, map[string]any, error) {
	data, err := os.ReadFile(extractTextFile)
	if err != nil {
		return "", nil, fmt.Errorf("read text file %s: %w", extractTextFile, err)
	}

	var metadata map[string]any
	if extractMetadataFile != "" {
		raw, err := os.ReadFile(extractMetadataFile)
		if err != nil {
			if os.IsNotExist(err) {
				// The metadata file is an optional companion; a missing one
				// just means no shared metadata.
				return string(data), nil, nil
			}
			return "", nil, fmt.Errorf("read metadata %s: %w", extractMetadataFile, err)
		}
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return "", nil, fmt.Errorf("parse metadata %s: %w", extractMetadataFile, err)
		}
	}
	return string(data), metadata, nil
}
