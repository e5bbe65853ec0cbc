package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/bedecarroll/tx/internal/store"
	"github.com/bedecarroll/tx/internal/txerr"
)

// Search embeds a trimmed, validated query and returns similarity hits
// ordered by distance (spec.md §4.G search steps 1-3).
func Search(ctx context.Context, st *store.Store, embedder Embedder, req SearchRequest) ([]store.SimilarChunk, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, txerr.New(txerr.KindEmbedding, "rag.search", "", fmt.Errorf("query is empty"))
	}

	vectors, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, txerr.New(txerr.KindEmbedding, "rag.search: embed", "", err)
	}
	if len(vectors) != 1 {
		return nil, txerr.New(txerr.KindEmbedding, "rag.search: embed", "",
			fmt.Errorf("embedder returned %d vectors, want 1", len(vectors)))
	}
	if len(vectors[0]) != EmbeddingDimension {
		return nil, txerr.New(txerr.KindEmbedding, "rag.search: embed", "",
			fmt.Errorf("embedding dimension %d, want %d", len(vectors[0]), EmbeddingDimension))
	}

	filter := store.RAGFilter{
		SessionID: req.SessionID,
		Tool:      req.Tool,
		SinceMS:   req.SinceMS,
		UntilMS:   req.UntilMS,
	}
	return st.SearchSimilarChunks(vectors[0], filter, req.K)
}
