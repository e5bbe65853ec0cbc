package store

import "time"

// SchemaVersion is the user_version the store migrates to and refuses to
// open anything newer than (spec.md §4.B).
const SchemaVersion = 5

// VectorDim is the fixed embedding dimension the semantic chunk table is
// typed to (spec.md §3 Semantic chunk).
const VectorDim = 1536

// Session mirrors the Session entity in spec.md §3.
type Session struct {
	ID          string
	UUID        string
	Provider    string
	Wrapper     string
	Model       string
	Label       string
	Path        string
	FirstPrompt string
	Actionable  bool
	CreatedAt   time.Time
	StartedAt   time.Time
	LastActive  time.Time
	Size        int64
	MTime       time.Time
}

// Message mirrors the Message entity in spec.md §3.
type Message struct {
	Index     int
	Role      string
	Content   string
	Source    string
	Timestamp time.Time
	IsFirst   bool
}

// TokenUsage mirrors the TokenUsage entity in spec.md §3.
type TokenUsage struct {
	Timestamp             time.Time
	InputTokens           int
	CachedInputTokens     int
	OutputTokens          int
	ReasoningOutputTokens int
	TotalTokens           int
	Model                 string
	RateLimitsJSON        string
}

// Ingest is the input to UpsertSession: a whole-row replace of a session plus
// its messages and token-usage rows, applied in a single transaction.
type Ingest struct {
	Session     Session
	Messages    []Message
	TokenUsages []TokenUsage
	// ReplaceUsage, when false, leaves existing token_usage rows untouched
	// (an ingest that only re-validated staleness without re-parsing usage).
	ReplaceUsage bool
}

// Summary is the lightweight projection used for staleness checks and list
// views: it omits messages.
type Summary struct {
	ID          string
	UUID        string
	Provider    string
	Wrapper     string
	Model       string
	Label       string
	Path        string
	FirstPrompt string
	Actionable  bool
	CreatedAt   time.Time
	StartedAt   time.Time
	LastActive  time.Time
	Size        int64
	MTime       time.Time
}

// Transcript is a session summary plus its full ordered message list,
// returned by FetchTranscript.
type Transcript struct {
	Summary  Summary
	Messages []Message
}

// SearchHit is one full-text or first-prompt search result row.
type SearchHit struct {
	SessionID string
	Role      string
	Snippet   string
	LastActive time.Time
}

// RAGSourceMessage is a row pulled from messages for chunking (spec.md §4.G
// step 2).
type RAGSourceMessage struct {
	SessionID     string
	SourceEventID string
	Role          string
	Content       string
	ToolName      string
	Kind          string
	Model         string
	TimestampMS   int64
}

// RAGChunk is one row of the semantic chunk table (spec.md §3 Semantic
// chunk).
type RAGChunk struct {
	ChunkID       int64
	SessionID     string
	SourceEventID string
	TSMillis      int64
	ToolName      string
	Kind          string
	Model         string
	ContentHash   string
	Text          string
	Embedding     []float32
}

// RAGFilter narrows a k-NN search by session, tool, or time range.
type RAGFilter struct {
	SessionID string
	Tool      string
	SinceMS   int64
	UntilMS   int64
}

// SimilarChunk is one k-NN search hit.
type SimilarChunk struct {
	RAGChunk
	Distance float64
}
