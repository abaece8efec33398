// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Embedder: Generates vector embeddings (ollama or OpenAI backed)
//   - CacheStore: Embedding cache persistence (file or sqlite backed)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These are only required by the commands that use them:
//
//   - Reranker: Secondary relevance scoring of a shortlist. Requesting
//     re-ranking without a configured reranker is a configuration error.
//   - LLMService: Entity/relation extraction and classification.
//   - PDFParser: Fulltext extraction via the grobid service.
//   - PromptStore: User-editable prompt templates.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
