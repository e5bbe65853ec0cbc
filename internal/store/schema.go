package store

import (
	"database/sql"
	"fmt"

	"github.com/bedecarroll/tx/internal/txerr"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	uuid         TEXT,
	provider     TEXT NOT NULL,
	wrapper      TEXT,
	model        TEXT,
	label        TEXT,
	path         TEXT NOT NULL,
	first_prompt TEXT NOT NULL,
	actionable   INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER,
	started_at   INTEGER,
	last_active  INTEGER,
	size         INTEGER NOT NULL,
	mtime        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	source     TEXT,
	timestamp  INTEGER,
	is_first   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (session_id, idx)
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
	session_id UNINDEXED,
	role UNINDEXED,
	content
);

CREATE TABLE IF NOT EXISTS token_usage (
	session_id       TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	timestamp        INTEGER,
	input            INTEGER,
	cached_input     INTEGER,
	output           INTEGER,
	reasoning_output INTEGER,
	total            INTEGER,
	model            TEXT,
	rate_limits_json TEXT
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_session_chunks USING vec0(
	chunk_id INTEGER PRIMARY KEY,
	session_id TEXT PARTITION KEY,
	embedding FLOAT[1536],
	+ts_ms INTEGER,
	+tool_name TEXT,
	+kind TEXT,
	+model TEXT,
	+content_hash TEXT,
	+text TEXT,
	+source_event_id TEXT
);
`

const schemaIndices = `
CREATE INDEX IF NOT EXISTS idx_sessions_provider_last_active ON sessions(provider, last_active);
CREATE INDEX IF NOT EXISTS idx_sessions_path ON sessions(path);
CREATE INDEX IF NOT EXISTS idx_sessions_uuid ON sessions(uuid);
CREATE INDEX IF NOT EXISTS idx_messages_session_timestamp ON messages(session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_token_usage_session ON token_usage(session_id);
`

// migrate reads user_version and brings the schema up to SchemaVersion,
// refusing to open a database stamped with a newer version than this binary
// understands (spec.md §4.B migration algorithm).
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return txerr.New(txerr.KindStore, "store.migrate: read user_version", "", err)
	}

	switch {
	case version == 0:
		if _, err := db.Exec(schemaDDL); err != nil {
			return txerr.New(txerr.KindStore, "store.migrate: create schema", "", err)
		}
		if _, err := db.Exec(schemaIndices); err != nil {
			return txerr.New(txerr.KindStore, "store.migrate: create indices", "", err)
		}
		return setUserVersion(db, SchemaVersion)

	case version >= 1 && version < SchemaVersion:
		if err := migrateToCurrent(db); err != nil {
			return err
		}
		return setUserVersion(db, SchemaVersion)

	case version == SchemaVersion:
		return nil

	default:
		return txerr.New(txerr.KindStore, "store.migrate",
			fmt.Sprintf("database schema version %d is newer than this binary supports (%d)", version, SchemaVersion), nil)
	}
}

// migrateToCurrent applies the idempotent "to 5" migration: it is safe to
// run against any schema already at version 1-4, since every statement is
// guarded with IF NOT EXISTS / column-existence checks.
func migrateToCurrent(db *sql.DB) error {
	if _, err := db.Exec(schemaDDL); err != nil {
		return txerr.New(txerr.KindStore, "store.migrate: ensure schema", "", err)
	}
	if !hasColumn(db, "sessions", "wrapper") {
		if _, err := db.Exec(`ALTER TABLE sessions ADD COLUMN wrapper TEXT`); err != nil {
			return txerr.New(txerr.KindStore, "store.migrate: add wrapper column", "", err)
		}
	}
	if _, err := db.Exec(schemaIndices); err != nil {
		return txerr.New(txerr.KindStore, "store.migrate: create indices", "", err)
	}
	return nil
}

func hasColumn(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, version)); err != nil {
		return txerr.New(txerr.KindStore, "store.migrate: set user_version", "", err)
	}
	return nil
}
