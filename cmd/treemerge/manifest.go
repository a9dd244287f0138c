package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/treemerge"
	"github.com/jward/treemerge/internal/source"
)

// Manifest describes a merge run: the targets in merge order, the common
// module set and the dependee libraries scanned for forward declarations.
//
//	targets:
//	  - name: linux_x64
//	    dir: linux_x64
//	common: [stdlib, posix]
//	dependees: [deps/platform]
//
// Relative directories are resolved against the manifest's directory. An
// empty common list means "every module all targets provide".
type Manifest struct {
	Targets   []ManifestTarget `yaml:"targets"`
	Common    []string         `yaml:"common,omitempty"`
	Dependees []string         `yaml:"dependees,omitempty"`
}

type ManifestTarget struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

// loadManifest reads and validates a manifest file.
func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if len(m.Targets) == 0 {
		return nil, fmt.Errorf("manifest %s lists no targets", path)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(m.Targets))
	for i := range m.Targets {
		t := &m.Targets[i]
		if t.Name == "" {
			return nil, fmt.Errorf("manifest %s: target %d has no name", path, i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("manifest %s: duplicate target %q", path, t.Name)
		}
		seen[t.Name] = true
		if t.Dir == "" {
			t.Dir = t.Name
		}
		t.Dir = resolveLocation(base, t.Dir)
	}
	for i, dep := range m.Dependees {
		m.Dependees[i] = resolveLocation(base, dep)
	}
	return &m, nil
}

// resolveLocation makes a relative directory absolute against base. URLs
// are left untouched.
func resolveLocation(base, loc string) string {
	if strings.Contains(loc, "://") || filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(base, loc)
}

// sources builds the target sources and dependee listers of m.
func (m *Manifest) sources() ([]treemerge.TargetSource, []treemerge.ModuleLister) {
	targets := make([]treemerge.TargetSource, len(m.Targets))
	for i, t := range m.Targets {
		targets[i] = source.NewDirSource(t.Name, t.Dir)
	}
	deps := make([]treemerge.ModuleLister, len(m.Dependees))
	for i, dir := range m.Dependees {
		deps[i] = source.NewDirSource(filepath.Base(dir), dir)
	}
	return targets, deps
}
