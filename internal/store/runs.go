package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// --- Run operations ---

const runColumns = "id, created_at, target_count, node_count, digest, COALESCE(policy, ''), COALESCE(policy_hash, '')"

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	if err := row.Scan(&r.ID, &r.CreatedAt, &r.TargetCount, &r.NodeCount, &r.Digest, &r.Policy, &r.PolicyHash); err != nil {
		return nil, err
	}
	return r, nil
}

// Runs returns all runs, newest first.
func (s *Store) Runs() ([]*Run, error) {
	rows, err := s.db.Query("SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunByID returns the run with the given ID, or nil if there is none.
func (s *Store) RunByID(id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run by id: %w", err)
	}
	return r, nil
}

// LatestRun returns the newest run, or nil if the store is empty.
func (s *Store) LatestRun() (*Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, id LIMIT 1"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// --- Target operations ---

func (s *Store) TargetsByRun(runID string) ([]*RunTarget, error) {
	rows, err := s.db.Query(
		"SELECT run_id, target_index, name, node_count FROM run_targets WHERE run_id = ? ORDER BY target_index", runID,
	)
	if err != nil {
		return nil, fmt.Errorf("targets by run: %w", err)
	}
	defer rows.Close()
	var targets []*RunTarget
	for rows.Next() {
		t := &RunTarget{}
		if err := rows.Scan(&t.RunID, &t.Index, &t.Name, &t.NodeCount); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// --- Node operations ---

// NodesByRun returns a run's nodes in pre-order. A non-empty prefix keeps
// only the node at that path and its descendants; a trailing "/" is ignored.
func (s *Store) NodesByRun(runID, prefix string) ([]*Node, error) {
	query := `SELECT run_id, node_ref, parent_ref, seq, depth, kind, key, path, presence
		FROM nodes WHERE run_id = ?`
	args := []any{runID}
	if prefix = strings.TrimSuffix(prefix, "/"); prefix != "" {
		query += ` AND (path = ? OR path LIKE ? ESCAPE '\')`
		args = append(args, prefix, prefixPattern(prefix))
	}
	query += " ORDER BY seq"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("nodes by run: %w", err)
	}
	defer rows.Close()
	var nodes []*Node
	for rows.Next() {
		n := &Node{}
		var parent sql.NullInt64
		if err := rows.Scan(&n.RunID, &n.Ref, &parent, &n.Seq, &n.Depth, &n.Kind, &n.Key, &n.Path, &n.Presence); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if parent.Valid {
			n.ParentRef = &parent.Int64
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// --- Module operations ---

// ModulesByRun returns a run's missing and absent modules ordered by
// target, status and module name.
func (s *Store) ModulesByRun(runID string) ([]*RunModule, error) {
	rows, err := s.db.Query(
		`SELECT run_id, target_index, module, status FROM run_modules
		 WHERE run_id = ? ORDER BY target_index, status, module`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("modules by run: %w", err)
	}
	defer rows.Close()
	var mods []*RunModule
	for rows.Next() {
		m := &RunModule{}
		if err := rows.Scan(&m.RunID, &m.TargetIndex, &m.Module, &m.Status); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// ForwardDeclarations returns the sorted forward declarations of a run.
func (s *Store) ForwardDeclarations(runID string) ([]string, error) {
	rows, err := s.db.Query("SELECT fq_name FROM forward_declarations WHERE run_id = ? ORDER BY fq_name", runID)
	if err != nil {
		return nil, fmt.Errorf("forward declarations: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan forward declaration: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
