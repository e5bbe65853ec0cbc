// Package store implements the embedded relational+full-text+vector
// persistence layer described in spec.md §4.B: sessions, messages, an FTS5
// index, token-usage history, and a k-NN vector index over semantic chunks.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bedecarroll/tx/internal/txerr"
)

// registerVecOnce implements the process-level one-shot initializer
// spec.md §9 "Global state" requires: the vec0 extension must be registered
// exactly once, before any connection is opened.
var registerVecOnce sync.Once

// Store is a single-writer, embedded database handle. It owns one
// *sql.DB pointed at a single SQLite file and is safe to share across
// goroutines for reads, but the system does not coordinate multiple writer
// processes against the same path (spec.md §5).
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the database at path, applies migrations, and
// configures the connection for single-writer embedded use: WAL journaling,
// synchronous=NORMAL, foreign keys on, in-memory temp store, and a 128 MiB
// mmap region (spec.md §4.B).
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registerVecOnce.Do(func() {
		sqlite_vec.Auto()
	})

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, txerr.New(txerr.KindStore, "store.open", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA temp_store = MEMORY`,
		`PRAGMA mmap_size = 134217728`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, txerr.New(txerr.KindStore, "store.open: apply pragma", pragma, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CountSessions returns the total number of stored sessions.
func (s *Store) CountSessions() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, txerr.New(txerr.KindStore, "store.count_sessions", "", err)
	}
	return n, nil
}

// ProviderFor returns the provider name for a stored session id.
func (s *Store) ProviderFor(id string) (string, error) {
	var provider string
	err := s.db.QueryRow(`SELECT provider FROM sessions WHERE id = ?`, id).Scan(&provider)
	if err == sql.ErrNoRows {
		return "", txerr.New(txerr.KindStore, "store.provider_for", id, sql.ErrNoRows)
	}
	if err != nil {
		return "", txerr.New(txerr.KindStore, "store.provider_for", id, err)
	}
	return provider, nil
}

// DeleteSession removes a session and, via FK cascade, its messages and
// token-usage rows; the FTS mirror is deleted explicitly since fts5 doesn't
// follow foreign keys.
func (s *Store) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return txerr.New(txerr.KindStore, "store.delete_session", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages_fts WHERE session_id = ?`, id); err != nil {
		return txerr.New(txerr.KindStore, "store.delete_session: fts", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return txerr.New(txerr.KindStore, "store.delete_session", id, err)
	}
	if err := tx.Commit(); err != nil {
		return txerr.New(txerr.KindStore, "store.delete_session: commit", id, err)
	}
	return nil
}
