package store

import (
	"database/sql"

	"github.com/bedecarroll/tx/internal/txerr"
)

// UpsertSession performs the single-transaction whole-row replace described
// in spec.md §4.B: INSERT OR REPLACE the session, delete and re-insert every
// message and FTS row, and (when requested) replace token-usage rows. A
// failure at any step leaves the database untouched.
func (s *Store) UpsertSession(ing Ingest) error {
	tx, err := s.db.Begin()
	if err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_session: begin", ing.Session.ID, err)
	}
	defer tx.Rollback()

	sess := ing.Session
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO sessions
			(id, uuid, provider, wrapper, model, label, path, first_prompt,
			 actionable, created_at, started_at, last_active, size, mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID, nullable(sess.UUID), sess.Provider, nullable(sess.Wrapper), nullable(sess.Model),
		nullable(sess.Label), sess.Path, sess.FirstPrompt, boolToInt(sess.Actionable),
		unixOrNil(sess.CreatedAt), unixOrNil(sess.StartedAt), unixOrNil(sess.LastActive),
		sess.Size, sess.MTime.Unix(),
	)
	if err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_session: insert session", sess.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, sess.ID); err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_session: clear messages", sess.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM messages_fts WHERE session_id = ?`, sess.ID); err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_session: clear fts", sess.ID, err)
	}

	insertMsg, err := tx.Prepare(`
		INSERT INTO messages (session_id, idx, role, content, source, timestamp, is_first)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_session: prepare messages", sess.ID, err)
	}
	defer insertMsg.Close()

	insertFTS, err := tx.Prepare(`
		INSERT INTO messages_fts (session_id, role, content) VALUES (?, ?, ?)
	`)
	if err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_session: prepare fts", sess.ID, err)
	}
	defer insertFTS.Close()

	for _, m := range ing.Messages {
		if _, err := insertMsg.Exec(sess.ID, m.Index, m.Role, m.Content, nullable(m.Source), unixOrNil(m.Timestamp), boolToInt(m.IsFirst)); err != nil {
			return txerr.New(txerr.KindStore, "store.upsert_session: insert message", sess.ID, err)
		}
		if _, err := insertFTS.Exec(sess.ID, m.Role, m.Content); err != nil {
			return txerr.New(txerr.KindStore, "store.upsert_session: insert fts", sess.ID, err)
		}
	}

	if ing.ReplaceUsage {
		if _, err := tx.Exec(`DELETE FROM token_usage WHERE session_id = ?`, sess.ID); err != nil {
			return txerr.New(txerr.KindStore, "store.upsert_session: clear token_usage", sess.ID, err)
		}
		insertUsage, err := tx.Prepare(`
			INSERT INTO token_usage
				(session_id, timestamp, input, cached_input, output, reasoning_output, total, model, rate_limits_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return txerr.New(txerr.KindStore, "store.upsert_session: prepare token_usage", sess.ID, err)
		}
		defer insertUsage.Close()
		for _, u := range ing.TokenUsages {
			if _, err := insertUsage.Exec(sess.ID, unixOrNil(u.Timestamp), u.InputTokens, u.CachedInputTokens,
				u.OutputTokens, u.ReasoningOutputTokens, u.TotalTokens, nullable(u.Model), nullable(u.RateLimitsJSON)); err != nil {
				return txerr.New(txerr.KindStore, "store.upsert_session: insert token_usage", sess.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_session: commit", sess.ID, err)
	}
	return nil
}

// ExistingByPath returns the stored summary for path, if any, used by the
// indexer's staleness check: if (size, mtime) match, the file is skipped.
func (s *Store) ExistingByPath(path string) (*Summary, error) {
	row := s.db.QueryRow(`
		SELECT id, uuid, provider, wrapper, model, label, path, first_prompt,
		       actionable, created_at, started_at, last_active, size, mtime
		FROM sessions WHERE path = ?
	`, path)
	sum, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.existing_by_path", path, err)
	}
	return sum, nil
}
