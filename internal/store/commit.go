package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveRun inserts a buffered RunReport within a single transaction and
// returns the run ID. A report without an ID gets a fresh UUID; a zero
// CreatedAt is set to the current time.
//
// Insert order respects FK dependencies:
//  1. Run
//  2. Targets
//  3. Nodes
//  4. Modules
//  5. Forward declarations
func (s *Store) SaveRun(report *RunReport) (string, error) {
	run := report.Run
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("save run: begin: %w", err)
	}
	defer tx.Rollback()

	// 1. Run
	if err := insertRunTx(tx, &run); err != nil {
		return "", fmt.Errorf("save run: run: %w", err)
	}

	// 2. Targets
	for _, target := range report.Targets {
		target.RunID = run.ID
		if err := insertRunTargetTx(tx, &target); err != nil {
			return "", fmt.Errorf("save run: target %q: %w", target.Name, err)
		}
	}

	// 3. Nodes
	nodeStmt, err := tx.Prepare(
		`INSERT INTO nodes (run_id, node_ref, parent_ref, seq, depth, kind, key, path, presence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("save run: prepare nodes: %w", err)
	}
	defer nodeStmt.Close()
	for _, n := range report.Nodes {
		if _, err := nodeStmt.Exec(run.ID, n.Ref, nullableInt64(n.ParentRef), n.Seq, n.Depth, n.Kind, n.Key, n.Path, n.Presence); err != nil {
			return "", fmt.Errorf("save run: node %q: %w", n.Path, err)
		}
	}

	// 4. Modules
	for _, m := range report.Modules {
		m.RunID = run.ID
		if err := insertRunModuleTx(tx, &m); err != nil {
			return "", fmt.Errorf("save run: module %q: %w", m.Module, err)
		}
	}

	// 5. Forward declarations
	for _, fq := range report.ForwardDeclarations {
		if _, err := tx.Exec("INSERT INTO forward_declarations (run_id, fq_name) VALUES (?, ?)", run.ID, fq); err != nil {
			return "", fmt.Errorf("save run: forward declaration %q: %w", fq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save run: commit: %w", err)
	}
	return run.ID, nil
}

// --- Transaction-scoped insert helpers ---

func insertRunTx(tx *sql.Tx, r *Run) error {
	_, err := tx.Exec(
		`INSERT INTO runs (id, created_at, target_count, node_count, digest, policy, policy_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt, r.TargetCount, r.NodeCount, r.Digest, r.Policy, r.PolicyHash,
	)
	return err
}

func insertRunTargetTx(tx *sql.Tx, t *RunTarget) error {
	_, err := tx.Exec(
		"INSERT INTO run_targets (run_id, target_index, name, node_count) VALUES (?, ?, ?, ?)",
		t.RunID, t.Index, t.Name, t.NodeCount,
	)
	return err
}

func insertRunModuleTx(tx *sql.Tx, m *RunModule) error {
	_, err := tx.Exec(
		"INSERT INTO run_modules (run_id, target_index, module, status) VALUES (?, ?, ?, ?)",
		m.RunID, m.TargetIndex, m.Module, m.Status,
	)
	return err
}
