package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for merge reports.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id              TEXT PRIMARY KEY,
  created_at      TIMESTAMP NOT NULL,
  target_count    INTEGER NOT NULL,
  node_count      INTEGER NOT NULL,
  digest          TEXT NOT NULL,
  policy          TEXT,
  policy_hash     TEXT
);

CREATE TABLE IF NOT EXISTS run_targets (
  run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  target_index    INTEGER NOT NULL,
  name            TEXT NOT NULL,
  node_count      INTEGER NOT NULL,
  PRIMARY KEY (run_id, target_index)
);

CREATE TABLE IF NOT EXISTS nodes (
  run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  node_ref        INTEGER NOT NULL,
  parent_ref      INTEGER,
  seq             INTEGER NOT NULL,
  depth           INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  key             TEXT NOT NULL,
  path            TEXT NOT NULL,
  presence        TEXT NOT NULL,
  PRIMARY KEY (run_id, node_ref)
);

CREATE TABLE IF NOT EXISTS run_modules (
  run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  target_index    INTEGER NOT NULL,
  module          TEXT NOT NULL,
  status          TEXT NOT NULL,
  PRIMARY KEY (run_id, target_index, module, status)
);

CREATE TABLE IF NOT EXISTS forward_declarations (
  run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  fq_name         TEXT NOT NULL,
  PRIMARY KEY (run_id, fq_name)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(run_id, path);
CREATE INDEX IF NOT EXISTS idx_nodes_seq ON nodes(run_id, seq);
`

// DeleteRun transactionally removes a run and everything recorded for it.
func (s *Store) DeleteRun(runID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first so the delete does not depend on cascade support.
	for _, table := range []string{"forward_declarations", "run_modules", "nodes", "run_targets"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM runs WHERE id = ?", runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return tx.Commit()
}
