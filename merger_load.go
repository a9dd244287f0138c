package treemerge

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jward/treemerge/internal/metadata"
)

var defaultLoadConcurrency = min(runtime.NumCPU(), 8)

// loadModules loads the named modules of one target using a bounded worker
// group. The result is in names order regardless of completion order, so
// the serial fold that follows is deterministic.
func (m *Merger) loadModules(ctx context.Context, target TargetSource, names []string) ([]*metadata.Module, error) {
	modules := make([]*metadata.Module, len(names))
	if len(names) == 0 {
		return modules, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.loadConcurrency)
	for i, name := range names {
		g.Go(func() error {
			mod, err := target.LoadModule(gctx, name)
			if err != nil {
				return fmt.Errorf("load module %s: %w", name, err)
			}
			if mod == nil {
				return fmt.Errorf("load module %s: no metadata", name)
			}
			modules[i] = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return modules, nil
}
