package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bedecarroll/tx/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tx.sqlite3")
	st, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("store.Open() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

const sampleTranscript = `{"type":"event_msg","timestamp":"2024-01-01T00:00:00Z","payload":{"type":"user_message","content":"Hello there"}}
{"type":"response_item","timestamp":"2024-01-01T00:00:01Z","payload":{"role":"assistant","content":[{"text":"Hi, how can I help?"}]}}
`

func writeSession(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func TestRunIngestsAndSkipsUnchanged(t *testing.T) {
	st := openTestStore(t)
	dir := t.TempDir()
	writeSession(t, dir, "a.jsonl", sampleTranscript)

	roots := []Root{{Provider: "codex", Path: dir}}

	rep, err := Run(st, roots, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if rep.Scanned != 1 || rep.Updated != 1 || rep.Skipped != 0 {
		t.Fatalf("first Run() = %+v, want scanned=1 updated=1 skipped=0", rep)
	}

	rep2, err := Run(st, roots, nil)
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if rep2.Scanned != 1 || rep2.Updated != 0 || rep2.Skipped != 1 {
		t.Fatalf("second Run() = %+v, want scanned=1 updated=0 skipped=1", rep2)
	}

	sessions, err := st.ListSessions("codex", false, 0, 0)
	if err != nil {
		t.Fatalf("ListSessions() error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	if sessions[0].FirstPrompt != "Hello there" {
		t.Fatalf("FirstPrompt = %q, want %q", sessions[0].FirstPrompt, "Hello there")
	}
	if !sessions[0].Actionable {
		t.Fatalf("Actionable = false, want true")
	}
}

func TestRunRemovesDeletedSessionFile(t *testing.T) {
	st := openTestStore(t)
	dir := t.TempDir()
	path := writeSession(t, dir, "b.jsonl", sampleTranscript)

	roots := []Root{{Provider: "codex", Path: dir}}
	if _, err := Run(st, roots, nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	rep, err := Run(st, roots, nil)
	if err != nil {
		t.Fatalf("Run() after removal error: %v", err)
	}
	if rep.Removed != 1 {
		t.Fatalf("Removed = %d, want 1", rep.Removed)
	}

	count, err := st.CountSessions()
	if err != nil {
		t.Fatalf("CountSessions() error: %v", err)
	}
	if count != 0 {
		t.Fatalf("CountSessions() = %d, want 0", count)
	}
}

func TestBuildIngestFallbackPreviewFromInstructions(t *testing.T) {
	dir := t.TempDir()
	path := writeSession(t, dir, "instructions-only.jsonl",
		`{"type":"event_msg","timestamp":"2024-01-01T00:00:00Z","payload":{"type":"user_message","content":"<user_instructions>\nbe terse\n</user_instructions>"}}`+"\n")

	ing, _, err := buildIngest(path)
	if err != nil {
		t.Fatalf("buildIngest() error: %v", err)
	}
	if ing.Session.FirstPrompt != "be terse" {
		t.Fatalf("FirstPrompt = %q, want %q", ing.Session.FirstPrompt, "be terse")
	}
	if ing.Session.Actionable {
		t.Fatalf("Actionable = true, want false (no user-role messages emitted)")
	}
	if len(ing.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1 synthesized system message", len(ing.Messages))
	}
	if ing.Messages[0].Role != "system" {
		t.Fatalf("Messages[0].Role = %q, want %q", ing.Messages[0].Role, "system")
	}
	if ing.Messages[0].Content != "be terse" {
		t.Fatalf("Messages[0].Content = %q, want %q", ing.Messages[0].Content, "be terse")
	}
	if !ing.Messages[0].IsFirst {
		t.Fatalf("Messages[0].IsFirst = false, want true")
	}
}

func TestBuildIngestInstructionsOnlyWithoutFallbackLine(t *testing.T) {
	dir := t.TempDir()
	path := writeSession(t, dir, "instructions-only-blank.jsonl",
		`{"type":"event_msg","timestamp":"2024-01-01T00:00:00Z","payload":{"type":"user_message","content":"<user_instructions>\n</user_instructions>"}}`+"\n")

	ing, _, err := buildIngest(path)
	if err != nil {
		t.Fatalf("buildIngest() error: %v", err)
	}
	if ing.Session.FirstPrompt != placeholderInstructionsOnly {
		t.Fatalf("FirstPrompt = %q, want %q", ing.Session.FirstPrompt, placeholderInstructionsOnly)
	}
	if len(ing.Messages) != 1 || ing.Messages[0].Role != "system" {
		t.Fatalf("Messages = %+v, want one synthesized system message", ing.Messages)
	}
}

func TestBuildIngestDedupUpgradesSource(t *testing.T) {
	dir := t.TempDir()
	content := `{"type":"event_msg","timestamp":"2024-01-01T00:00:00Z","payload":{"type":"user_message","content":"same text"}}
{"type":"response_item","timestamp":"2024-01-01T00:00:00Z","payload":{"role":"user","content":[{"text":"same text"}]}}
`
	path := writeSession(t, dir, "dup.jsonl", content)

	ing, _, err := buildIngest(path)
	if err != nil {
		t.Fatalf("buildIngest() error: %v", err)
	}
	if len(ing.Messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1 (duplicate turn folded)", len(ing.Messages))
	}
	if ing.Messages[0].Source != "response_item" {
		t.Fatalf("Source = %q, want response_item (later occurrence should upgrade it)", ing.Messages[0].Source)
	}
}
