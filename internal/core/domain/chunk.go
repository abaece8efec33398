package domain

import (
	"fmt"
	"strings"
)

// TextChunk is an identifiable unit of source text. Chunks are produced by
// the chunking step (sections, fixed-size slices, or sentence groups of an
// extracted article) and consumed as the retrieval corpus. Immutable once
// produced.
type TextChunk struct {
	// Name uniquely identifies the chunk, usually "<pmid>-<index>".
	Name string `json:"name"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Label is the category tag (e.g. "pubtext" for publication text,
	// or an ontology category for reference terms).
	Label string `json:"label"`

	// PMID is the originating document id, empty for non-publication chunks.
	PMID string `json:"pmid,omitempty"`

	// Filename is the source file the chunk was extracted from.
	Filename string `json:"filename,omitempty"`
}

// Validate checks the required corpus fields.
func (c TextChunk) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: chunk name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("%w: chunk %q has no text", ErrInvalidInput, c.Name)
	}
	if strings.TrimSpace(c.Label) == "" {
		return fmt.Errorf("%w: chunk %q has no label", ErrInvalidInput, c.Name)
	}
	return nil
}
