package rag

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bedecarroll/tx/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tx.sqlite3")
	st, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedSession(t *testing.T, st *store.Store, id string, messages ...store.Message) {
	t.Helper()
	now := time.Now()
	ing := store.Ingest{
		Session: store.Session{
			ID:          id,
			Provider:    "codex",
			Path:        "/sessions/" + id + ".jsonl",
			FirstPrompt: "hello",
			Actionable:  true,
			LastActive:  now,
			Size:        10,
			MTime:       now,
		},
		Messages:     messages,
		ReplaceUsage: true,
	}
	if err := st.UpsertSession(ing); err != nil {
		t.Fatalf("UpsertSession() error: %v", err)
	}
}

func TestIndexEmbedsNewMessages(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()
	seedSession(t, st, "sess-1",
		store.Message{Index: 0, Role: "user", Content: "hello there", Timestamp: now, IsFirst: true},
		store.Message{Index: 1, Role: "assistant", Content: "general kenobi", Timestamp: now},
	)

	fake := newFakeEmbedder()
	report, err := Index(context.Background(), st, fake, IndexRequest{BatchSize: 64})
	if err != nil {
		t.Fatalf("Index() error: %v", err)
	}
	if report.Considered != 2 {
		t.Fatalf("Considered = %d, want 2", report.Considered)
	}
	if report.Embedded != 2 {
		t.Fatalf("Embedded = %d, want 2", report.Embedded)
	}
	if fake.calls != 1 {
		t.Fatalf("calls = %d, want 1 (single batch)", fake.calls)
	}
}

func TestIndexSkipsUnchangedContentHashWithoutReindex(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()
	seedSession(t, st, "sess-1",
		store.Message{Index: 0, Role: "user", Content: "hello there", Timestamp: now, IsFirst: true},
	)

	fake := newFakeEmbedder()
	if _, err := Index(context.Background(), st, fake, IndexRequest{BatchSize: 64}); err != nil {
		t.Fatalf("first Index() error: %v", err)
	}

	report, err := Index(context.Background(), st, fake, IndexRequest{BatchSize: 64})
	if err != nil {
		t.Fatalf("second Index() error: %v", err)
	}
	if report.Embedded != 0 {
		t.Fatalf("Embedded = %d, want 0 (unchanged content)", report.Embedded)
	}
	if report.Skipped != 1 {
		t.Fatalf("Skipped = %d, want 1", report.Skipped)
	}
}

func TestIndexReindexTrueDeletesAndReembedsRegardlessOfHash(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()
	seedSession(t, st, "sess-1",
		store.Message{Index: 0, Role: "user", Content: "hello there", Timestamp: now, IsFirst: true},
	)

	fake := newFakeEmbedder()
	if _, err := Index(context.Background(), st, fake, IndexRequest{BatchSize: 64}); err != nil {
		t.Fatalf("first Index() error: %v", err)
	}

	report, err := Index(context.Background(), st, fake, IndexRequest{BatchSize: 64, Reindex: true})
	if err != nil {
		t.Fatalf("reindex Index() error: %v", err)
	}
	if report.Embedded != 1 {
		t.Fatalf("Embedded = %d, want 1", report.Embedded)
	}
	if report.Deleted != 1 {
		t.Fatalf("Deleted = %d, want 1", report.Deleted)
	}
}

func TestIndexBatchesRespectConfiguredSize(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()
	msgs := make([]store.Message, 0, 5)
	for i := 0; i < 5; i++ {
		msgs = append(msgs, store.Message{Index: i, Role: "user", Content: "message text", Timestamp: now})
	}
	seedSession(t, st, "sess-1", msgs...)

	var batchSizes []int
	fake := newFakeEmbedder()
	fake.onEmbed = func(texts []string) { batchSizes = append(batchSizes, len(texts)) }

	report, err := Index(context.Background(), st, fake, IndexRequest{BatchSize: 2})
	if err != nil {
		t.Fatalf("Index() error: %v", err)
	}
	if report.Embedded != 5 {
		t.Fatalf("Embedded = %d, want 5", report.Embedded)
	}
	if len(batchSizes) != 3 {
		t.Fatalf("batch count = %d, want 3 (2,2,1); got %#v", len(batchSizes), batchSizes)
	}
}

func TestIndexRejectsWrongEmbeddingDimension(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()
	seedSession(t, st, "sess-1",
		store.Message{Index: 0, Role: "user", Content: "hello there", Timestamp: now, IsFirst: true},
	)

	fake := newFakeEmbedder()
	fake.dim = 8
	if _, err := Index(context.Background(), st, fake, IndexRequest{BatchSize: 64}); err == nil {
		t.Fatalf("Index() expected an error for a wrong-dimension embedding")
	}
}
