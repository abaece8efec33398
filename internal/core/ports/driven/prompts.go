package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptEntityExtraction is the system prompt for biomedical entity
	// extraction. It has no format placeholders; the text to analyse is
	// sent as the user prompt.
	PromptEntityExtraction = "entity_extraction"

	// PromptRelationExtraction is the system prompt for relationship
	// extraction. The context chunk is sent as the user prompt.
	PromptRelationExtraction = "relation_extraction"

	// PromptClassification is the system prompt for title+abstract
	// classification. The record is sent as the user prompt.
	PromptClassification = "classification"

	// PromptEntityReview asks the model to re-check a previous extraction.
	// The template expects a %s placeholder for the previous entities JSON.
	PromptEntityReview = "entity_review"
)
