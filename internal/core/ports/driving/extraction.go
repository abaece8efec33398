package driving

import (
	"context"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

// Extractor turns free text into structured knowledge via the LLM.
type Extractor interface {
	// ExtractEntities extracts biomedical entities from text. The metadata
	// map is merged into every returned entity. A previous result may be
	// passed for review; the model is then asked to correct it.
	ExtractEntities(ctx context.Context, text string, metadata map[string]any, previous []domain.Entity) (*domain.ExtractionResult, error)

	// ExtractRelations extracts relationships between entities from text.
	ExtractRelations(ctx context.Context, text string, metadata map[string]any) (*domain.ExtractionResult, error)

	// Classify assigns a category to one title+abstract record. Parse
	// failures yield a Classification with category "Unknown" and the
	// error recorded, not an error return.
	Classify(ctx context.Context, title, abstract string) (domain.Classification, error)
}
