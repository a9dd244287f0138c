package treemerge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jward/treemerge/internal/approx"
	"github.com/jward/treemerge/internal/fwd"
	"github.com/jward/treemerge/internal/ident"
	"github.com/jward/treemerge/internal/metadata"
	"github.com/jward/treemerge/internal/scope"
	"github.com/jward/treemerge/internal/tree"
)

var (
	// ErrNoTargets is returned when a merge is started without targets.
	ErrNoTargets = errors.New("treemerge: no targets")

	// ErrNoPackageName is returned for a module fragment without a package
	// name. Its declarations have no owner in the tree, so the merge aborts.
	ErrNoPackageName = errors.New("treemerge: fragment has no package name")
)

// ModuleLister lists module descriptors. Dependee libraries only need to be
// listed; their interop attributes feed the forward-declaration registry.
type ModuleLister interface {
	Modules(ctx context.Context) ([]metadata.ModuleDescriptor, error)
}

// TargetSource supplies one target's modules.
type TargetSource interface {
	ModuleLister
	Name() string
	LoadModule(ctx context.Context, name string) (*metadata.Module, error)
}

// ErrPolicy is implemented by policies that can fail while deciding
// exclusions, such as script-backed policies.
type ErrPolicy interface {
	Err() error
}

// ContextPolicy is implemented by policies whose exclusion decisions can
// block. The merger binds each target's context before folding it.
type ContextPolicy interface {
	BindContext(ctx context.Context)
}

// Input describes one merge run.
type Input struct {
	// Targets are merged in order; a target's position is its index.
	Targets []TargetSource

	// CommonModules are the module names merged for every target.
	CommonModules []string

	// Dependees are scanned for forward declarations before any target.
	Dependees []ModuleLister
}

// Merger folds targets into a merged tree.
type Merger struct {
	logger          *slog.Logger
	policy          approx.Policy
	progress        ProgressFunc
	loadConcurrency int
}

// New creates a Merger using the default approximation policy.
func New(opts ...Option) *Merger {
	m := &Merger{
		logger:          slog.Default(),
		policy:          approx.NewDefaultPolicy(),
		loadConcurrency: defaultLoadConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge builds the merged tree for in. On error no tree is returned.
func (m *Merger) Merge(ctx context.Context, in Input) (*Result, error) {
	if len(in.Targets) == 0 {
		return nil, ErrNoTargets
	}

	t, err := tree.New(len(in.Targets))
	if err != nil {
		return nil, fmt.Errorf("treemerge: %w", err)
	}

	res := &Result{
		Tree:                t,
		Targets:             make([]string, len(in.Targets)),
		Missing:             make(map[int][]string),
		Absent:              make(map[int][]string),
		ForwardDeclarations: fwd.NewRegistry(),
	}

	// Forward declarations of dependees must be known before any target is
	// folded.
	for _, dep := range in.Dependees {
		descs, err := dep.Modules(ctx)
		if err != nil {
			return nil, fmt.Errorf("treemerge: list dependee modules: %w", err)
		}
		for _, d := range descs {
			res.ForwardDeclarations.RegisterInterop(d.Interop)
		}
	}

	common := make(map[string]bool, len(in.CommonModules))
	for _, name := range in.CommonModules {
		common[name] = true
	}

	for i, target := range in.Targets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("treemerge: %w", err)
		}
		res.Targets[i] = target.Name()
		if err := m.mergeTarget(ctx, res, i, target, common); err != nil {
			return nil, fmt.Errorf("treemerge: target %d (%s): %w", i, target.Name(), err)
		}
	}
	return res, nil
}

// mergeTarget runs one target's pass: partition, load, fold, register.
// Loaded module metadata is released module by module as it is folded.
func (m *Merger) mergeTarget(ctx context.Context, res *Result, index int, target TargetSource, common map[string]bool) error {
	start := time.Now()

	descs, err := target.Modules(ctx)
	if err != nil {
		return fmt.Errorf("list modules: %w", err)
	}

	var names, missing []string
	supplied := make(map[string]bool, len(descs))
	for _, d := range descs {
		supplied[d.Name] = true
		if common[d.Name] {
			names = append(names, d.Name)
		} else {
			missing = append(missing, d.Name)
		}
	}
	var absent []string
	for name := range common {
		if !supplied[name] {
			absent = append(absent, name)
		}
	}
	if len(missing) > 0 {
		res.Missing[index] = missing
		modulesMissing.Add(float64(len(missing)))
	}
	if len(absent) > 0 {
		sort.Strings(absent)
		res.Absent[index] = absent
	}

	modules, err := m.loadModules(ctx, target, names)
	if err != nil {
		return err
	}

	if cp, ok := m.policy.(ContextPolicy); ok {
		cp.BindContext(ctx)
	}

	w, err := res.Tree.Writer(index, target.Name())
	if err != nil {
		return err
	}
	defer w.Close()

	for j, mod := range modules {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.foldModule(w, mod); err != nil {
			return err
		}
		// Only merged modules feed the registry; exports of modules left
		// out of the merge are not registered.
		res.ForwardDeclarations.RegisterInterop(mod.Interop)
		modules[j] = nil
	}
	w.Close()

	if ep, ok := m.policy.(ErrPolicy); ok {
		if err := ep.Err(); err != nil {
			return fmt.Errorf("policy: %w", err)
		}
	}

	elapsed := time.Since(start)
	targetsMerged.Inc()
	nodesCreated.Add(float64(w.Created()))
	targetDuration.Observe(elapsed.Seconds())

	m.logger.Info("merged target",
		"target", target.Name(),
		"index", index,
		"modules", len(modules),
		"missing", len(missing),
		"created", w.Created(),
		"duration", elapsed)

	m.reportProgress(fmt.Sprintf("Merged declarations for [%s]", target.Name()))
	return nil
}

// reportProgress calls the progress sink, absorbing any panic it raises.
func (m *Merger) reportProgress(label string) {
	if m.progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("progress sink failed", "label", label, "panic", r)
		}
	}()
	m.progress(label)
}

// foldModule merges one module into the current target's slots. All
// fragments are checked before any node is touched.
func (m *Merger) foldModule(w *tree.Writer, mod *metadata.Module) error {
	byPackage := make(map[ident.PackageName][]*metadata.Fragment)
	for i, frag := range mod.Fragments {
		if frag == nil {
			m.skip("fragment", fmt.Sprintf("%s#%d", mod.Name, i), "nil")
			continue
		}
		if frag.Package == nil {
			return fmt.Errorf("module %s fragment %d: %w", mod.Name, i, ErrNoPackageName)
		}
		pkg := ident.ParsePackage(*frag.Package)
		byPackage[pkg] = append(byPackage[pkg], frag)
	}

	moduleNode := w.Module(tree.ModuleDecl{Name: mod.Name, Interop: mod.Interop})

	pkgs := make([]ident.PackageName, 0, len(byPackage))
	for pkg := range byPackage {
		pkgs = append(pkgs, pkg)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i] < pkgs[j] })

	for _, pkg := range pkgs {
		if err := m.foldPackage(w, moduleNode, pkg, byPackage[pkg]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Merger) foldPackage(w *tree.Writer, moduleNode tree.NodeID, pkg ident.PackageName, frags []*metadata.Fragment) error {
	pkgNode := w.Package(moduleNode, tree.PackageDecl{Name: pkg})

	var classes []*metadata.Class
	for _, frag := range frags {
		for _, p := range frag.Properties {
			m.foldProperty(w, pkgNode, p, approx.OwnerPackage)
		}
		for _, fn := range frag.Functions {
			m.foldFunction(w, pkgNode, fn, approx.OwnerPackage)
		}
		for _, alias := range frag.TypeAliases {
			if alias == nil || alias.Name == "" {
				m.skip("typealias", "", approx.ReasonEmptyName)
				continue
			}
			w.TypeAlias(pkgNode, tree.TypeAliasDecl{
				ID:    ident.NewEntityID(pkg, ident.Name(alias.Name)),
				Alias: alias,
			})
		}
		classes = append(classes, frag.Classes...)
	}

	g := scope.NewGrouper(classes)
	for _, name := range g.Skipped() {
		m.skip("class", name, "malformed_name")
	}
	for _, e := range g.Orphans() {
		m.skip("class", e.ID.String(), "orphan")
	}
	return g.ForEachInScope(scope.TopLevel(), func(e scope.Entry) error {
		if e.ID.Package() != pkg {
			m.skip("class", e.ID.String(), "package_mismatch")
			return nil
		}
		m.foldClass(w, pkgNode, g, e)
		return nil
	})
}

// foldClass merges a class and its members, then its directly nested
// classes. Parents are always materialized before their children.
func (m *Merger) foldClass(w *tree.Writer, owner tree.NodeID, g *scope.Grouper, e scope.Entry) {
	c := e.Class
	node := w.Class(owner, tree.ClassDecl{ID: e.ID, Class: c.Header(), EnumEntry: e.EnumEntry})

	for _, ctor := range c.Constructors {
		if ctor == nil {
			continue
		}
		if reason := m.policy.ExcludeConstructor(ctor); reason != "" {
			m.skip("constructor", e.ID.String(), reason)
			continue
		}
		w.Constructor(node, m.policy.ConstructorKey(ctor), tree.ConstructorDecl{Constructor: ctor})
	}
	for _, p := range c.Properties {
		m.foldProperty(w, node, p, approx.OwnerClass)
	}
	for _, fn := range c.Functions {
		m.foldFunction(w, node, fn, approx.OwnerClass)
	}

	for _, nested := range g.InScope(scope.Within(e.ID)) {
		m.foldClass(w, node, g, nested)
	}
}

func (m *Merger) foldFunction(w *tree.Writer, owner tree.NodeID, fn *metadata.Function, kind approx.Owner) {
	if fn == nil {
		return
	}
	if reason := m.policy.ExcludeFunction(fn, kind); reason != "" {
		m.skip("function", fn.Name, reason)
		return
	}
	w.Function(owner, m.policy.FunctionKey(fn), tree.FunctionDecl{Function: fn})
}

func (m *Merger) foldProperty(w *tree.Writer, owner tree.NodeID, p *metadata.Property, kind approx.Owner) {
	if p == nil {
		return
	}
	if reason := m.policy.ExcludeProperty(p, kind); reason != "" {
		m.skip("property", p.Name, reason)
		return
	}
	w.Property(owner, m.policy.PropertyKey(p), tree.PropertyDecl{Property: p})
}

func (m *Merger) skip(kind, name, reason string) {
	declarationsSkipped.WithLabelValues(kind, reason).Inc()
	m.logger.Debug("skipped declaration", "kind", kind, "name", name, "reason", reason)
}
