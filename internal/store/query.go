package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bedecarroll/tx/internal/txerr"
)

// ListSessions returns sessions ordered by last_active DESC, optionally
// filtered by provider, actionable-only, and a since-epoch floor, capped at
// limit rows (0 = unlimited).
func (s *Store) ListSessions(provider string, actionableOnly bool, sinceEpoch int64, limit int) ([]Summary, error) {
	query := `
		SELECT id, uuid, provider, wrapper, model, label, path, first_prompt,
		       actionable, created_at, started_at, last_active, size, mtime
		FROM sessions WHERE 1=1`
	var args []any

	if provider != "" {
		query += ` AND provider = ?`
		args = append(args, provider)
	}
	if actionableOnly {
		query += ` AND actionable = 1`
	}
	if sinceEpoch > 0 {
		query += ` AND last_active >= ?`
		args = append(args, sinceEpoch)
	}
	query += ` ORDER BY last_active DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.list_sessions", "", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummaryRows(rows)
		if err != nil {
			return nil, txerr.New(txerr.KindStore, "store.list_sessions: scan", "", err)
		}
		out = append(out, *sum)
	}
	return out, rows.Err()
}

// SearchFirstPrompt performs a LIKE %term% search against first_prompt,
// ordered by last_active DESC.
func (s *Store) SearchFirstPrompt(term, provider string, actionableOnly bool) ([]SearchHit, error) {
	query := `SELECT id, first_prompt, last_active FROM sessions WHERE first_prompt LIKE ? ESCAPE '\'`
	args := []any{"%" + escapeLike(term) + "%"}
	if provider != "" {
		query += ` AND provider = ?`
		args = append(args, provider)
	}
	if actionableOnly {
		query += ` AND actionable = 1`
	}
	query += ` ORDER BY last_active DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.search_first_prompt", term, err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var hit SearchHit
		var lastActive sql.NullInt64
		if err := rows.Scan(&hit.SessionID, &hit.Snippet, &lastActive); err != nil {
			return nil, txerr.New(txerr.KindStore, "store.search_first_prompt: scan", term, err)
		}
		hit.LastActive = timeFromUnix(lastActive)
		out = append(out, hit)
	}
	return out, rows.Err()
}

// SearchFullText runs an FTS5 MATCH query, case-insensitive by virtue of the
// default fts5 tokenizer, ordered by the owning session's last_active DESC.
func (s *Store) SearchFullText(term, provider string, actionableOnly bool) ([]SearchHit, error) {
	query := `
		SELECT f.session_id, f.role, snippet(messages_fts, 2, '[', ']', '...', 10), s.last_active
		FROM messages_fts f
		JOIN sessions s ON s.id = f.session_id
		WHERE messages_fts MATCH ?`
	args := []any{term}
	if provider != "" {
		query += ` AND s.provider = ?`
		args = append(args, provider)
	}
	if actionableOnly {
		query += ` AND s.actionable = 1`
	}
	query += ` ORDER BY s.last_active DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.search_full_text", term, err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var hit SearchHit
		var lastActive sql.NullInt64
		if err := rows.Scan(&hit.SessionID, &hit.Role, &hit.Snippet, &lastActive); err != nil {
			return nil, txerr.New(txerr.KindStore, "store.search_full_text: scan", term, err)
		}
		hit.LastActive = timeFromUnix(lastActive)
		out = append(out, hit)
	}
	return out, rows.Err()
}

// FetchTranscript looks up a session by id first, then by uuid, returning
// its summary and all messages in index order.
func (s *Store) FetchTranscript(idOrUUID string) (*Transcript, error) {
	sum, err := s.SessionSummaryForIdentifier(idOrUUID)
	if err != nil {
		return nil, err
	}
	if sum == nil {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT idx, role, content, source, timestamp, is_first
		FROM messages WHERE session_id = ? ORDER BY idx ASC
	`, sum.ID)
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.fetch_transcript: messages", idOrUUID, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var source sql.NullString
		var ts sql.NullInt64
		var isFirst int
		if err := rows.Scan(&m.Index, &m.Role, &m.Content, &source, &ts, &isFirst); err != nil {
			return nil, txerr.New(txerr.KindStore, "store.fetch_transcript: scan message", idOrUUID, err)
		}
		m.Source = source.String
		m.Timestamp = timeFromUnix(ts)
		m.IsFirst = isFirst != 0
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, txerr.New(txerr.KindStore, "store.fetch_transcript: iterate", idOrUUID, err)
	}

	return &Transcript{Summary: *sum, Messages: messages}, nil
}

// SessionSummary looks up a session strictly by id.
func (s *Store) SessionSummary(id string) (*Summary, error) {
	row := s.db.QueryRow(`
		SELECT id, uuid, provider, wrapper, model, label, path, first_prompt,
		       actionable, created_at, started_at, last_active, size, mtime
		FROM sessions WHERE id = ?
	`, id)
	sum, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.session_summary", id, err)
	}
	return sum, nil
}

// SessionSummaryForIdentifier resolves id first, then uuid, per spec.md §4.B.
func (s *Store) SessionSummaryForIdentifier(idOrUUID string) (*Summary, error) {
	sum, err := s.SessionSummary(idOrUUID)
	if err != nil {
		return nil, err
	}
	if sum != nil {
		return sum, nil
	}

	row := s.db.QueryRow(`
		SELECT id, uuid, provider, wrapper, model, label, path, first_prompt,
		       actionable, created_at, started_at, last_active, size, mtime
		FROM sessions WHERE uuid = ?
	`, idOrUUID)
	sum, err = scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.session_summary_for_identifier", idOrUUID, err)
	}
	return sum, nil
}

// ProviderStats is the aggregate usage summary `stats <provider>` reports.
type ProviderStats struct {
	Provider              string
	SessionCount          int
	ActionableCount       int
	InputTokens           int64
	CachedInputTokens     int64
	OutputTokens          int64
	ReasoningOutputTokens int64
	TotalTokens           int64
	LastActive            time.Time
}

// ProviderStats aggregates session counts and token usage for one provider.
func (s *Store) ProviderStats(provider string) (*ProviderStats, error) {
	stats := &ProviderStats{Provider: provider}

	row := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(actionable), 0), MAX(last_active)
		FROM sessions WHERE provider = ?
	`, provider)
	var actionable int
	var lastActive sql.NullInt64
	if err := row.Scan(&stats.SessionCount, &actionable, &lastActive); err != nil {
		return nil, txerr.New(txerr.KindStore, "store.provider_stats: sessions", provider, err)
	}
	stats.ActionableCount = actionable
	stats.LastActive = timeFromUnix(lastActive)

	row = s.db.QueryRow(`
		SELECT COALESCE(SUM(t.input), 0), COALESCE(SUM(t.cached_input), 0),
		       COALESCE(SUM(t.output), 0), COALESCE(SUM(t.reasoning_output), 0),
		       COALESCE(SUM(t.total), 0)
		FROM token_usage t
		JOIN sessions s ON s.id = t.session_id
		WHERE s.provider = ?
	`, provider)
	if err := row.Scan(&stats.InputTokens, &stats.CachedInputTokens,
		&stats.OutputTokens, &stats.ReasoningOutputTokens, &stats.TotalTokens); err != nil {
		return nil, txerr.New(txerr.KindStore, "store.provider_stats: token_usage", provider, err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*Summary, error) {
	return scanSummaryRows(row)
}

func scanSummaryRows(row rowScanner) (*Summary, error) {
	var (
		sum                               Summary
		uuid, wrapper, model, label       sql.NullString
		actionable                        int
		createdAt, startedAt, lastActive  sql.NullInt64
		mtime                             int64
	)
	if err := row.Scan(
		&sum.ID, &uuid, &sum.Provider, &wrapper, &model, &label, &sum.Path, &sum.FirstPrompt,
		&actionable, &createdAt, &startedAt, &lastActive, &sum.Size, &mtime,
	); err != nil {
		return nil, err
	}
	sum.UUID = uuid.String
	sum.Wrapper = wrapper.String
	sum.Model = model.String
	sum.Label = label.String
	sum.Actionable = actionable != 0
	sum.CreatedAt = timeFromUnix(createdAt)
	sum.StartedAt = timeFromUnix(startedAt)
	sum.LastActive = timeFromUnix(lastActive)
	sum.MTime = time.Unix(mtime, 0).UTC()
	return &sum, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

func timeFromUnix(n sql.NullInt64) time.Time {
	if !n.Valid || n.Int64 == 0 {
		return time.Time{}
	}
	return time.Unix(n.Int64, 0).UTC()
}

func escapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `%`, `\%`)
	term = strings.ReplaceAll(term, `_`, `\_`)
	return term
}
