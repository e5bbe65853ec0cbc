package rag

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bedecarroll/tx/internal/store"
	"github.com/bedecarroll/tx/internal/txerr"
)

const (
	maxBatchSize          = 64
	maxConcurrentEmbedOps = 4
)

// Index runs one indexing pass (spec.md §4.G indexing steps 1-5): optional
// deletion scoped by session/since_ms, pulling candidate messages, building
// chunks, skipping ones already stored with an unchanged content_hash, and
// embedding the rest in batches. Batches are embedded concurrently, bounded
// by maxConcurrentEmbedOps, since the embedding call is the pass's only
// network round-trip; store writes stay serialized behind a mutex.
func Index(ctx context.Context, st *store.Store, embedder Embedder, req IndexRequest) (IndexReport, error) {
	var report IndexReport

	if req.Reindex {
		deleted, err := st.DeleteRAGChunks(req.SessionID, req.SinceMS)
		if err != nil {
			return report, err
		}
		report.Deleted = deleted
	}

	messages, err := st.RAGSourceMessages(req.SessionID, req.SinceMS)
	if err != nil {
		return report, err
	}
	report.Considered = len(messages)

	var pending []pendingChunk
	for _, msg := range messages {
		chunk, ok := buildChunk(msg)
		if !ok {
			continue
		}

		if !req.Reindex {
			existing, found, err := st.RAGChunkContentHash(chunk.chunk.ChunkID)
			if err != nil {
				return report, err
			}
			if found && existing == chunk.chunk.ContentHash {
				report.Skipped++
				continue
			}
		}
		pending = append(pending, chunk)
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = maxBatchSize
	}
	if batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}

	batches := splitBatches(pending, batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEmbedOps)

	var mu sync.Mutex
	for _, batch := range batches {
		g.Go(func() error {
			return embedAndStoreBatch(gctx, st, embedder, batch, &mu, &report)
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	return report, nil
}

func splitBatches(pending []pendingChunk, batchSize int) [][]pendingChunk {
	var batches [][]pendingChunk
	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batches = append(batches, pending[start:end])
	}
	return batches
}

func embedAndStoreBatch(ctx context.Context, st *store.Store, embedder Embedder, batch []pendingChunk, mu *sync.Mutex, report *IndexReport) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.promptText
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return txerr.New(txerr.KindEmbedding, "rag.index: embed", "", err)
	}
	if len(vectors) != len(batch) {
		return txerr.New(txerr.KindEmbedding, "rag.index: embed", "",
			fmt.Errorf("embedder returned %d vectors for %d inputs", len(vectors), len(batch)))
	}

	chunks := make([]store.RAGChunk, len(batch))
	for i, c := range batch {
		if len(vectors[i]) != EmbeddingDimension {
			return txerr.New(txerr.KindEmbedding, "rag.index: embed", "",
				fmt.Errorf("embedding dimension %d, want %d", len(vectors[i]), EmbeddingDimension))
		}
		c.chunk.Embedding = vectors[i]
		chunks[i] = c.chunk
	}

	mu.Lock()
	defer mu.Unlock()
	if err := st.UpsertRAGChunks(chunks); err != nil {
		return err
	}
	report.Embedded += len(chunks)
	return nil
}
