// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval core lives here: the similarity scorer strategies, the
// top-k selector, the embedding cache, and the pipeline that ties them to
// the reranker.
package services
