package treemerge

import (
	"context"
	"fmt"
	"sort"

	"github.com/jward/treemerge/internal/fwd"
	"github.com/jward/treemerge/internal/tree"
)

// Result is a completed merge. Ownership of the tree passes to the caller;
// the Merger keeps no reference to it.
type Result struct {
	Tree *tree.Tree

	// Targets are the target names by index.
	Targets []string

	// Missing lists, per target index, modules the target supplied that are
	// not in the common set. Targets with nothing missing have no entry.
	Missing map[int][]string

	// Absent lists, per target index, common modules the target did not
	// supply. Targets with nothing absent have no entry.
	Absent map[int][]string

	ForwardDeclarations *fwd.Registry
}

// TargetIndex returns the index of the named target.
func (r *Result) TargetIndex(name string) (int, bool) {
	for i, n := range r.Targets {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// CommonModuleNames returns the sorted names of modules listed by every
// target.
func CommonModuleNames(ctx context.Context, targets []TargetSource) ([]string, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	counts := make(map[string]int)
	for _, t := range targets {
		descs, err := t.Modules(ctx)
		if err != nil {
			return nil, fmt.Errorf("treemerge: list modules of %s: %w", t.Name(), err)
		}
		seen := make(map[string]bool, len(descs))
		for _, d := range descs {
			if !seen[d.Name] {
				seen[d.Name] = true
				counts[d.Name]++
			}
		}
	}

	var names []string
	for name, n := range counts {
		if n == len(targets) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
