package store

import (
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/bedecarroll/tx/internal/txerr"
)

// RAGSourceMessages pulls candidate rows for chunking, optionally scoped to
// a session and/or a since_ms floor (spec.md §4.G step 2).
func (s *Store) RAGSourceMessages(sessionID string, sinceMS int64) ([]RAGSourceMessage, error) {
	query := `
		SELECT m.session_id, m.session_id || ':' || m.idx AS source_event_id,
		       m.role, m.content, s.model, m.timestamp
		FROM messages m JOIN sessions s ON s.id = m.session_id
		WHERE 1=1`
	var args []any
	if sessionID != "" {
		query += ` AND m.session_id = ?`
		args = append(args, sessionID)
	}
	if sinceMS > 0 {
		query += ` AND m.timestamp >= ?`
		args = append(args, sinceMS/1000)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.rag_source_messages", sessionID, err)
	}
	defer rows.Close()

	var out []RAGSourceMessage
	for rows.Next() {
		var rec RAGSourceMessage
		var model sql.NullString
		var ts sql.NullInt64
		if err := rows.Scan(&rec.SessionID, &rec.SourceEventID, &rec.Role, &rec.Content, &model, &ts); err != nil {
			return nil, txerr.New(txerr.KindStore, "store.rag_source_messages: scan", sessionID, err)
		}
		rec.Model = model.String
		rec.Kind = rec.Role
		if ts.Valid {
			rec.TimestampMS = ts.Int64 * 1000
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RAGChunkContentHash returns the stored content_hash for chunkID, used to
// decide whether a re-index can skip re-embedding (spec.md §4.G step 4).
func (s *Store) RAGChunkContentHash(chunkID int64) (string, bool, error) {
	var hash string
	err := s.db.QueryRow(`SELECT content_hash FROM vec_session_chunks WHERE chunk_id = ?`, chunkID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, txerr.New(txerr.KindStore, "store.rag_chunk_content_hash", fmt.Sprint(chunkID), err)
	}
	return hash, true, nil
}

// UpsertRAGChunks writes or replaces rows in the vector table.
func (s *Store) UpsertRAGChunks(chunks []RAGChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_rag_chunks: begin", "", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO vec_session_chunks
			(chunk_id, session_id, embedding, ts_ms, tool_name, kind, model, content_hash, text, source_event_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_rag_chunks: prepare", "", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		blob, err := sqlite_vec.SerializeFloat32(c.Embedding)
		if err != nil {
			return txerr.New(txerr.KindEmbedding, "store.upsert_rag_chunks: serialize", c.SessionID, err)
		}
		if _, err := stmt.Exec(c.ChunkID, c.SessionID, blob, c.TSMillis, nullable(c.ToolName), nullable(c.Kind),
			nullable(c.Model), c.ContentHash, c.Text, c.SourceEventID); err != nil {
			return txerr.New(txerr.KindStore, "store.upsert_rag_chunks: insert", c.SessionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return txerr.New(txerr.KindStore, "store.upsert_rag_chunks: commit", "", err)
	}
	return nil
}

// DeleteRAGChunks removes chunks scoped by session and/or a since_ms floor,
// used before a reindex=true pass (spec.md §4.G step 1). Returns the number
// of rows removed.
func (s *Store) DeleteRAGChunks(sessionID string, sinceMS int64) (int64, error) {
	query := `DELETE FROM vec_session_chunks WHERE 1=1`
	var args []any
	if sessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, sessionID)
	}
	if sinceMS > 0 {
		query += ` AND ts_ms >= ?`
		args = append(args, sinceMS)
	}
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, txerr.New(txerr.KindStore, "store.delete_rag_chunks", sessionID, err)
	}
	return result.RowsAffected()
}

// SearchSimilarChunks runs a k-NN query against the vector index, applying
// metadata filters alongside the MATCH clause (spec.md §4.G search step 3).
func (s *Store) SearchSimilarChunks(embedding []float32, filter RAGFilter, k int) ([]SimilarChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, txerr.New(txerr.KindEmbedding, "store.search_similar_chunks: serialize", "", err)
	}

	query := `
		SELECT chunk_id, session_id, ts_ms, tool_name, kind, model, content_hash, text, distance
		FROM vec_session_chunks
		WHERE embedding MATCH ? AND k = ?`
	args := []any{blob, k}
	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	if filter.Tool != "" {
		query += ` AND tool_name = ?`
		args = append(args, filter.Tool)
	}
	if filter.SinceMS > 0 {
		query += ` AND ts_ms >= ?`
		args = append(args, filter.SinceMS)
	}
	if filter.UntilMS > 0 {
		query += ` AND ts_ms <= ?`
		args = append(args, filter.UntilMS)
	}
	query += ` ORDER BY distance`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.search_similar_chunks", "", err)
	}
	defer rows.Close()

	var out []SimilarChunk
	for rows.Next() {
		var hit SimilarChunk
		var toolName, kind, model, contentHash sql.NullString
		if err := rows.Scan(&hit.ChunkID, &hit.SessionID, &hit.TSMillis, &toolName, &kind, &model, &contentHash, &hit.Text, &hit.Distance); err != nil {
			return nil, txerr.New(txerr.KindStore, "store.search_similar_chunks: scan", "", err)
		}
		hit.ToolName = toolName.String
		hit.Kind = kind.String
		hit.Model = model.String
		hit.ContentHash = contentHash.String
		out = append(out, hit)
	}
	return out, rows.Err()
}
