package treemerge

import (
	"fmt"
	"sort"

	"github.com/jward/treemerge/internal/store"
	"github.com/jward/treemerge/internal/tree"
)

// Report flattens r into a store.RunReport. Nodes are listed in pre-order
// with the root first; policy names the exclusion policy used, if any.
func (r *Result) Report(policy, policyHash string) (*store.RunReport, error) {
	digest, err := r.Tree.Digest()
	if err != nil {
		return nil, fmt.Errorf("treemerge: digest: %w", err)
	}
	stats := r.Tree.Stats()

	report := &store.RunReport{
		Run: store.Run{
			TargetCount: r.Tree.Targets(),
			NodeCount:   r.Tree.Len(),
			Digest:      fmtDigest(digest),
			Policy:      policy,
			PolicyHash:  policyHash,
		},
	}

	for i, name := range r.Targets {
		report.Targets = append(report.Targets, store.RunTarget{
			Index:     i,
			Name:      name,
			NodeCount: stats.PerTarget[i],
		})
	}

	seq := 0
	r.Tree.Walk(func(id tree.NodeID, depth int) bool {
		n := store.Node{
			Ref:      int64(id),
			Seq:      seq,
			Depth:    depth,
			Kind:     r.Tree.Kind(id).String(),
			Key:      r.Tree.Key(id),
			Path:     r.Tree.Path(id),
			Presence: r.Tree.PresenceString(id),
		}
		if parent := r.Tree.Parent(id); parent != tree.NoNode {
			ref := int64(parent)
			n.ParentRef = &ref
		}
		report.Nodes = append(report.Nodes, n)
		seq++
		return true
	})

	for _, i := range sortedKeys(r.Missing) {
		for _, name := range r.Missing[i] {
			report.Modules = append(report.Modules, store.RunModule{TargetIndex: i, Module: name, Status: store.ModuleMissing})
		}
	}
	for _, i := range sortedKeys(r.Absent) {
		for _, name := range r.Absent[i] {
			report.Modules = append(report.Modules, store.RunModule{TargetIndex: i, Module: name, Status: store.ModuleAbsent})
		}
	}

	for _, id := range r.ForwardDeclarations.All() {
		report.ForwardDeclarations = append(report.ForwardDeclarations, id.FQName())
	}
	return report, nil
}

// SaveResult stores r as a new run and returns the run ID.
func SaveResult(s *store.Store, r *Result, policy, policyHash string) (string, error) {
	report, err := r.Report(policy, policyHash)
	if err != nil {
		return "", err
	}
	id, err := s.SaveRun(report)
	if err != nil {
		return "", fmt.Errorf("treemerge: save run: %w", err)
	}
	return id, nil
}

func sortedKeys(m map[int][]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// fmtDigest renders a tree digest the way it is stored.
func fmtDigest(d uint64) string { return fmt.Sprintf("%016x", d) }
