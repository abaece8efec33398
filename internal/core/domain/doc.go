// Package domain defines the core business entities for text2knowledge.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - TextChunk: A unit of source text forming the retrieval corpus
//   - EmbeddingRecord/EmbeddingSet: Cached vectors keyed by model and chunk
//   - ScoredCandidate: A retrieval hit for one query
//   - Term: An ontology entry used for entity normalisation
//   - Article: A publication extracted from a PDF
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
