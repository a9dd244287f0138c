// Package source provides target sources: per-target providers of module
// listings and decoded module metadata.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jward/treemerge/internal/metadata"
)

// ErrUnknownModule is returned when a module is requested that the target
// does not provide.
var ErrUnknownModule = errors.New("source: unknown module")

// Memory is a target source over modules already held in memory. It is
// used by tests and by callers that decode metadata themselves.
type Memory struct {
	name    string
	mu      sync.Mutex
	modules map[string]*metadata.Module
	order   []string
	loads   map[string]int
}

// NewMemory creates an in-memory source for target name. Modules are listed
// in the order given; a later module with a duplicate name replaces the
// earlier one.
func NewMemory(name string, modules ...*metadata.Module) *Memory {
	m := &Memory{
		name:    name,
		modules: make(map[string]*metadata.Module, len(modules)),
		loads:   make(map[string]int),
	}
	for _, mod := range modules {
		if _, dup := m.modules[mod.Name]; !dup {
			m.order = append(m.order, mod.Name)
		}
		m.modules[mod.Name] = mod
	}
	return m
}

// Name is the target name.
func (m *Memory) Name() string { return m.name }

// Modules lists module descriptors in insertion order.
func (m *Memory) Modules(_ context.Context) ([]metadata.ModuleDescriptor, error) {
	out := make([]metadata.ModuleDescriptor, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.modules[name].Descriptor())
	}
	return out, nil
}

// LoadModule returns the named module.
func (m *Memory) LoadModule(_ context.Context, name string) (*metadata.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in target %s", ErrUnknownModule, name, m.name)
	}
	m.loads[name]++
	return mod, nil
}

// Loads reports how many times each module was loaded.
func (m *Memory) Loads() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.loads))
	for k, v := range m.loads {
		out[k] = v
	}
	return out
}

// ModuleNames returns the sorted names of descs.
func ModuleNames(descs []metadata.ModuleDescriptor) []string {
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}
