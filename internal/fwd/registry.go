// Package fwd records interop forward declarations: opaque placeholders
// exported by platform-interop modules that the commonizer treats as
// already common across targets.
package fwd

import (
	"sort"
	"strings"
	"sync"

	"github.com/jward/treemerge/internal/ident"
	"github.com/jward/treemerge/internal/metadata"
)

// Registry is a set of forward-declared entity identifiers. It is safe for
// concurrent use.
type Registry struct {
	mu  sync.RWMutex
	ids map[ident.EntityID]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[ident.EntityID]struct{})}
}

// Register marks id as a forward declaration. It reports whether id was new.
func (r *Registry) Register(id ident.EntityID) bool {
	if id.IsZero() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[id]; ok {
		return false
	}
	r.ids[id] = struct{}{}
	return true
}

// RegisterInterop registers the exported forward declarations of an
// interop module. Exports are written under a synthetic package
// ("cnames.structs.FILE"); each one is moved into the module's main package
// keeping only its simple name. Missing attributes or empty lists register
// nothing. It returns the number of newly registered identifiers.
func (r *Registry) RegisterInterop(attrs *metadata.InteropAttributes) int {
	if attrs == nil || len(attrs.ExportForwardDeclarations) == 0 {
		return 0
	}
	main := ident.ParsePackage(attrs.MainPackage)
	n := 0
	for _, fq := range attrs.ExportForwardDeclarations {
		name := simpleName(fq)
		if name == "" {
			continue
		}
		if r.Register(ident.NewEntityID(main, ident.Name(name))) {
			n++
		}
	}
	return n
}

func simpleName(fq string) string {
	fq = strings.TrimSpace(fq)
	if i := strings.LastIndexAny(fq, "./"); i >= 0 {
		return fq[i+1:]
	}
	return fq
}

// Contains reports whether id is a registered forward declaration.
func (r *Registry) Contains(id ident.EntityID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[id]
	return ok
}

// Len is the number of registered identifiers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

// All returns the registered identifiers sorted by their string form.
func (r *Registry) All() []ident.EntityID {
	r.mu.RLock()
	out := make([]ident.EntityID, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
