package driven

import (
	"context"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

// PDFParser extracts structured fulltext from a PDF. Backed by a grobid
// service; parsing is slow and rate limited, so callers skip PDFs whose
// output already exists rather than re-submitting them.
type PDFParser interface {
	// ParseFulltext uploads the PDF at path and returns the structured
	// article (title, abstract, body sections in document order).
	ParseFulltext(ctx context.Context, path string) (*domain.Article, error)

	// Ping validates the grobid service is reachable.
	Ping(ctx context.Context) error
}
