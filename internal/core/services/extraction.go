package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driven"
	"github.com/open-prophetdb/text2knowledge/internal/core/ports/driving"
	"github.com/open-prophetdb/text2knowledge/internal/llmjson"
	"github.com/open-prophetdb/text2knowledge/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.Extractor = (*ExtractionService)(nil)

// ExtractionService extracts entities and relations from text and
// classifies abstracts via the LLM. Malformed model responses become
// structured error envelopes (flag + raw response), never raised errors,
// so a batch run always continues with the next item.
type ExtractionService struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	runID   string
}

// NewExtractionService creates an extraction service. Every service
// instance carries a run id that tags all results it produces, so output
// files can be traced back to one invocation.
func NewExtractionService(llm driven.LLMService, prompts driven.PromptStore) *ExtractionService {
	return &ExtractionService{
		llm:     llm,
		prompts: prompts,
		runID:   uuid.New().String(),
	}
}

// RunID returns the identifier tagged onto this service's results.
func (s *ExtractionService) RunID() string { return s.runID }

// Model returns the generation model name.
func (s *ExtractionService) Model() string { return s.llm.ModelName() }

// ExtractEntities implements driving.Extractor.
func (s *ExtractionService) ExtractEntities(
	ctx context.Context, text string, metadata map[string]any, previous []domain.Entity,
) (*domain.ExtractionResult, error) {
	system, err := s.prompts.Load(driven.PromptEntityExtraction)
	if err != nil {
		return nil, fmt.Errorf("load entity extraction prompt: %w", err)
	}

	prompt := fmt.Sprintf("USER: %s ASSISTANT: ", text)
	if len(previous) > 0 {
		review, err := s.prompts.Load(driven.PromptEntityReview)
		if err != nil {
			return nil, fmt.Errorf("load entity review prompt: %w", err)
		}
		prevJSON, err := json.Marshal(previous)
		if err != nil {
			return nil, fmt.Errorf("marshal previous entities: %w", err)
		}
		prompt = prompt + "\n\n" + fmt.Sprintf(review, string(prevJSON))
	}

	response, err := s.llm.Generate(ctx, system, prompt, driven.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	result := &domain.ExtractionResult{RunID: s.runID, Model: s.llm.ModelName()}

	var entities []domain.Entity
	stage, perr := llmjson.Unmarshal(response, &entities)
	if perr != nil {
		logger.Warn("Entity extraction response unparseable: %v", perr)
		result.Error = true
		result.Response = response
		return result, nil
	}
	if stage != llmjson.StageDirect {
		logger.Debug("Entity extraction JSON recovered at stage %q", stage)
	}

	for i := range entities {
		entities[i].Metadata = mergeMetadata(entities[i].Metadata, metadata)
	}
	result.Entities = entities
	return result, nil
}

// ExtractRelations implements driving.Extractor.
func (s *ExtractionService) ExtractRelations(
	ctx context.Context, text string, metadata map[string]any,
) (*domain.ExtractionResult, error) {
	system, err := s.prompts.Load(driven.PromptRelationExtraction)
	if err != nil {
		return nil, fmt.Errorf("load relation extraction prompt: %w", err)
	}

	prompt := fmt.Sprintf("context: ```%s``` \n\n output: ", text)
	response, err := s.llm.Generate(ctx, system, prompt, driven.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	result := &domain.ExtractionResult{RunID: s.runID, Model: s.llm.ModelName()}

	var relations []domain.Relation
	if _, perr := llmjson.Unmarshal(response, &relations); perr != nil {
		logger.Warn("Relation extraction response unparseable: %v", perr)
		result.Error = true
		result.Response = response
		return result, nil
	}

	for i := range relations {
		relations[i].Metadata = mergeMetadata(relations[i].Metadata, metadata)
	}
	result.Relations = relations
	return result, nil
}

// Classify implements driving.Extractor.
func (s *ExtractionService) Classify(ctx context.Context, title, abstract string) (domain.Classification, error) {
	system, err := s.prompts.Load(driven.PromptClassification)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("load classification prompt: %w", err)
	}

	if abstract == "" {
		abstract = "No abstract found."
	}
	text := title + "\n" + abstract

	response, err := s.llm.Generate(ctx, system, "```"+text+"```", driven.GenerateOptions{})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("generate: %w", err)
	}

	var parsed struct {
		Category string `json:"category"`
		Reason   string `json:"reason"`
	}
	if _, perr := llmjson.Unmarshal(response, &parsed); perr != nil || strings.TrimSpace(parsed.Category) == "" {
		logger.Warn("Classification response unparseable for %q", title)
		return domain.Classification{
			Category: "Unknown",
			Title:    title,
			Abstract: abstract,
			Error:    fmt.Sprintf("unparseable response: %s", response),
		}, nil
	}

	return domain.Classification{
		Category: parsed.Category,
		Title:    title,
		Abstract: abstract,
		Reason:   parsed.Reason,
	}, nil
}

// mergeMetadata overlays shared batch metadata onto an item's own map
// without clobbering item-level keys.
func mergeMetadata(own, shared map[string]any) map[string]any {
	if len(shared) == 0 {
		return own
	}
	if own == nil {
		own = make(map[string]any, len(shared))
	}
	for k, v := range shared {
		if _, exists := own[k]; !exists {
			own[k] = v
		}
	}
	return own
}
