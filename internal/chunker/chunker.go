// Package chunker turns extracted articles into retrieval corpus chunks.
//
// Three modes mirror the granularities the pipeline works at: one chunk
// per section, fixed-size character slices, or groups of consecutive
// sentences.
package chunker

import (
	"fmt"
	"strings"

	"github.com/open-prophetdb/text2knowledge/internal/core/domain"
)

// Mode selects the chunking granularity.
type Mode string

const (
	// ModeSections emits one chunk per article section.
	ModeSections Mode = "sections"

	// ModeChunks emits fixed-size character slices of the full text.
	ModeChunks Mode = "chunks"

	// ModeSentences emits groups of consecutive sentences.
	ModeSentences Mode = "sentences"
)

// DefaultChunkSize is the slice length for ModeChunks, in characters.
const DefaultChunkSize = 1000

// DefaultSentenceGroup is how many sentences form one chunk in
// ModeSentences.
const DefaultSentenceGroup = 5

// PubtextLabel is the category tag carried by every publication chunk.
const PubtextLabel = "pubtext"

// Chunker splits articles into labelled TextChunks.
type Chunker struct {
	mode          Mode
	chunkSize     int
	sentenceGroup int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMode sets the chunking mode.
func WithMode(m Mode) Option {
	return func(c *Chunker) {
		if m != "" {
			c.mode = m
		}
	}
}

// WithChunkSize sets the slice length for ModeChunks.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithSentenceGroup sets the group size for ModeSentences.
func WithSentenceGroup(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.sentenceGroup = n
		}
	}
}

// New creates a chunker with the given options. The default mode is
// ModeSections.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		mode:          ModeSections,
		chunkSize:     DefaultChunkSize,
		sentenceGroup: DefaultSentenceGroup,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits one article into corpus chunks. The filename records where
// the article came from so retrieval results can point back to the source
// document.
func (c *Chunker) Chunk(article domain.Article, filename string) []domain.TextChunk {
	switch c.mode {
	case ModeChunks:
		return c.fixedChunks(article, filename)
	case ModeSentences:
		return c.sentenceChunks(article, filename)
	default:
		return c.sectionChunks(article, filename)
	}
}

// sectionChunks emits one chunk per section, named "<pmid>-<heading>".
func (c *Chunker) sectionChunks(article domain.Article, filename string) []domain.TextChunk {
	chunks := make([]domain.TextChunk, 0, len(article.Sections))
	for _, section := range article.Sections {
		if strings.TrimSpace(section.Text) == "" {
			continue
		}
		chunks = append(chunks, domain.TextChunk{
			Name:     fmt.Sprintf("%s-%s", article.PMID, section.Heading),
			Text:     section.Text,
			Label:    PubtextLabel,
			PMID:     article.PMID,
			Filename: filename,
		})
	}
	return chunks
}

// fixedChunks slices the concatenated full text into chunkSize pieces,
// named "<pmid>-<index>".
func (c *Chunker) fixedChunks(article domain.Article, filename string) []domain.TextChunk {
	text := fullText(article)
	if text == "" {
		return nil
	}

	chunks := make([]domain.TextChunk, 0, len(text)/c.chunkSize+1)
	for i, start := 0, 0; start < len(text); i, start = i+1, start+c.chunkSize {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, domain.TextChunk{
			Name:     fmt.Sprintf("%s-%d", article.PMID, i),
			Text:     text[start:end],
			Label:    PubtextLabel,
			PMID:     article.PMID,
			Filename: filename,
		})
	}
	return chunks
}

// sentenceChunks groups consecutive sentences, named "<pmid>-<index>".
func (c *Chunker) sentenceChunks(article domain.Article, filename string) []domain.TextChunk {
	sentences := splitSentences(fullText(article))
	if len(sentences) == 0 {
		return nil
	}

	chunks := make([]domain.TextChunk, 0, len(sentences)/c.sentenceGroup+1)
	for i, start := 0, 0; start < len(sentences); i, start = i+1, start+c.sentenceGroup {
		end := start + c.sentenceGroup
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, domain.TextChunk{
			Name:     fmt.Sprintf("%s-%d", article.PMID, i),
			Text:     strings.Join(sentences[start:end], " "),
			Label:    PubtextLabel,
			PMID:     article.PMID,
			Filename: filename,
		})
	}
	return chunks
}

// fullText joins the article sections in document order.
func fullText(article domain.Article) string {
	parts := make([]string, 0, len(article.Sections))
	for _, s := range article.Sections {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// splitSentences splits text on common sentence terminators.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
