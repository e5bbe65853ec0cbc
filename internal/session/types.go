// Package session holds the normalized transcript entities shared by the
// indexer and the store: raw JSONL records, the extracted message model, and
// the session-identity rules from which provider transcripts are addressed.
package session

import (
	"encoding/json"
	"time"
)

// RawRecord is a single newline-delimited JSON line from a provider session
// file, before it has been interpreted against any of the shapes below.
type RawRecord struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Session   json.RawMessage `json:"session"`
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Message   json.RawMessage `json:"message"`
	Text      string          `json:"text"`
}

// Message is a single extracted chat turn, trimmed and ready for storage.
type Message struct {
	Role      string
	Content   string
	Source    string // the outer event type that produced it, e.g. "event_msg"
	Timestamp time.Time
	IsFirst   bool
}

// Extracted is the result of parsing one session file: the ordered messages
// plus the bookkeeping the indexer needs to compute first_prompt/actionable
// without a second pass.
type Extracted struct {
	Messages          []Message
	UUID              string
	FirstUserText     string
	FallbackPreview   string // first non-blank, non-tag line seen in any content
	InstructionBlocks []string
	Actionable        bool
}

const (
	tagUserInstructionsOpen  = "<user_instructions>"
	tagUserInstructionsClose = "</user_instructions>"
	tagEnvironmentContext    = "<environment_context>"
)
