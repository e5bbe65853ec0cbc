package rag

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/bedecarroll/tx/internal/store"
)

// normalizeWhitespace collapses runs of whitespace to a single space and
// trims the result, per spec.md §4.G step 3.
func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// embeddingPromptText builds the text actually sent to the embedder: a
// kind/tool/text header block, omitting the tool line when there's no tool
// name (spec.md §4.G step 3).
func embeddingPromptText(kind, toolName, normalizedText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "kind: %s\n", kind)
	if toolName != "" {
		fmt.Fprintf(&b, "tool: %s\n", toolName)
	}
	fmt.Fprintf(&b, "text: %s", normalizedText)
	return b.String()
}

// chunkID derives a deterministic, positive 63-bit chunk identifier from
// (session_id, source_event_id, ordinal) via xxhash truncated to fit in a
// signed int64 (spec.md §4.G step 3).
func chunkID(sessionID, sourceEventID string, ordinal int) int64 {
	key := fmt.Sprintf("%s\x00%s\x00%d", sessionID, sourceEventID, ordinal)
	sum := xxhash.Sum64String(key)
	return int64(sum & 0x7fffffffffffffff)
}

// contentHash is the hex digest identifying normalizedText's content, used
// to skip re-embedding unchanged chunks on a non-forced reindex.
func contentHash(normalizedText string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(normalizedText))
}

// pendingChunk is a chunk built from a source message but not yet embedded.
type pendingChunk struct {
	chunk      store.RAGChunk
	promptText string
}

// buildChunk turns one source message into a pendingChunk, or returns ok=false
// when the normalized text is empty (spec.md §4.G step 3: "drop empty").
func buildChunk(msg store.RAGSourceMessage) (pendingChunk, bool) {
	normalized := normalizeWhitespace(msg.Content)
	if normalized == "" {
		return pendingChunk{}, false
	}

	hash := contentHash(normalized)
	return pendingChunk{
		chunk: store.RAGChunk{
			ChunkID:       chunkID(msg.SessionID, msg.SourceEventID, 0),
			SessionID:     msg.SessionID,
			SourceEventID: msg.SourceEventID,
			TSMillis:      msg.TimestampMS,
			ToolName:      msg.ToolName,
			Kind:          msg.Kind,
			Model:         msg.Model,
			ContentHash:   hash,
			Text:          normalized,
		},
		promptText: embeddingPromptText(msg.Kind, msg.ToolName, normalized),
	}, true
}
