package driven

import "context"

// LLMService provides language model text generation for entity/relation
// extraction and classification.
//
// Implementations may include:
//   - Ollama (local models, the default)
//
// Responses are free-form text; callers parse them leniently and convert
// parse failures into structured error envelopes instead of raised errors,
// so batch runs continue with the next item.
type LLMService interface {
	// Generate produces a completion for prompt. A non-empty system string
	// is sent as the system prompt.
	Generate(ctx context.Context, system, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// request. Used at startup so a missing model fails before the batch
	// starts.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate, 0 for the
	// model default.
	MaxTokens int
}
