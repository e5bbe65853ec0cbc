// Package rag implements the retrieval-augmented-search subsystem
// (spec.md §4.G): chunking indexed messages, embedding them in batches, and
// running k-NN similarity search over the store's vector index.
package rag

import "context"

// EmbeddingDimension is the fixed vector length every embedding capability
// must produce; chunks whose vectors don't match this are rejected.
const EmbeddingDimension = 1536

// Embedder is the capability interface the indexer and search path consume.
// A real implementation calls an embedding API; tests supply a deterministic
// double.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// IndexRequest parameterizes one indexing pass.
type IndexRequest struct {
	SessionID string
	SinceMS   int64
	Reindex   bool
	BatchSize int
}

// IndexReport summarizes one indexing pass.
type IndexReport struct {
	Considered int
	Embedded   int
	Skipped    int
	Deleted    int64
}

// SearchRequest parameterizes one search call.
type SearchRequest struct {
	Query     string
	SessionID string
	Tool      string
	SinceMS   int64
	UntilMS   int64
	K         int
}
