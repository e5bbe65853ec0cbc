package main

import (
	"context"
	"fmt"

	"github.com/bedecarroll/tx/internal/rag"
)

// RAGCmd implements `rag {index|search}` (spec.md §6, §4.G).
type RAGCmd struct {
	Index  RAGIndexCmd  `cmd:"" help:"Chunk and embed indexed messages into the semantic search index."`
	Search RAGSearchCmd `cmd:"" help:"Search the semantic index for similar chunks."`
}

type RAGIndexCmd struct {
	Session   string `help:"Restrict indexing to one session id."`
	SinceMS   int64  `name:"since-ms" help:"Only consider messages at or after this epoch millisecond timestamp."`
	Reindex   bool   `help:"Delete and re-embed matching chunks regardless of content hash."`
	BatchSize int    `name:"batch-size" help:"Override the embedding batch size."`
}

func (c *RAGIndexCmd) Run(app *App) error {
	embedder, err := rag.NewOpenAIEmbedder(app.Config.RAG)
	if err != nil {
		return err
	}

	report, err := rag.Index(context.Background(), app.Store, embedder, rag.IndexRequest{
		SessionID: c.Session,
		SinceMS:   c.SinceMS,
		Reindex:   c.Reindex,
		BatchSize: c.BatchSize,
	})
	if err != nil {
		return err
	}

	fmt.Printf("considered: %d\n", report.Considered)
	fmt.Printf("embedded:   %d\n", report.Embedded)
	fmt.Printf("skipped:    %d\n", report.Skipped)
	fmt.Printf("deleted:    %d\n", report.Deleted)
	return nil
}

type RAGSearchCmd struct {
	Query     string `arg:"" help:"Search query text."`
	Session   string `help:"Restrict results to one session id."`
	Tool      string `help:"Restrict results to one tool name."`
	SinceMS   int64  `name:"since-ms" help:"Only consider chunks at or after this epoch millisecond timestamp."`
	UntilMS   int64  `name:"until-ms" help:"Only consider chunks at or before this epoch millisecond timestamp."`
	K         int    `default:"10" help:"Number of nearest neighbors to return."`
}

func (c *RAGSearchCmd) Run(app *App) error {
	embedder, err := rag.NewOpenAIEmbedder(app.Config.RAG)
	if err != nil {
		return err
	}

	hits, err := rag.Search(context.Background(), app.Store, embedder, rag.SearchRequest{
		Query:     c.Query,
		SessionID: c.Session,
		Tool:      c.Tool,
		SinceMS:   c.SinceMS,
		UntilMS:   c.UntilMS,
		K:         c.K,
	})
	if err != nil {
		return err
	}

	for _, hit := range hits {
		fmt.Printf("%.4f\t%s\t%s\t%s\n", hit.Distance, hit.SessionID, hit.ToolName, snippet(hit.Text, 80))
	}
	return nil
}

func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
