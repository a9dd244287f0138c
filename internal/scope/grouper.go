// Package scope groups one package's flat class list by immediately
// enclosing class so the merged tree can be built strictly top-down.
package scope

import (
	"sort"

	"github.com/jward/treemerge/internal/ident"
	"github.com/jward/treemerge/internal/metadata"
)

// Scope is the enclosing scope of a class: either the package top level or
// a specific class. The two cases are distinct variants; no identifier
// value can be confused with "top level".
type Scope struct {
	class  ident.EntityID
	nested bool
}

// TopLevel is the package-level scope.
func TopLevel() Scope { return Scope{} }

// Within is the scope directly inside class id.
func Within(id ident.EntityID) Scope { return Scope{class: id, nested: true} }

// Class returns the enclosing class; ok is false for the top level.
func (s Scope) Class() (id ident.EntityID, ok bool) { return s.class, s.nested }

func (s Scope) String() string {
	if !s.nested {
		return "<top-level>"
	}
	return s.class.String()
}

// Entry is a class to be merged. EnumEntry entries are synthesized from an
// enum class' entry list and carry a minimal header.
type Entry struct {
	ID        ident.EntityID
	Class     *metadata.Class
	EnumEntry bool
}

// Grouper answers "which classes are declared directly in scope s" in O(1)
// after a single pass over the input.
type Grouper struct {
	byScope map[Scope][]Entry
	skipped []string
	count   int
}

// NewGrouper indexes classes by enclosing scope. Classes whose names cannot
// be parsed are skipped and reported by Skipped. An enum entry that is also
// declared as a class of its own is indexed once, from that declaration.
func NewGrouper(classes []*metadata.Class) *Grouper {
	g := &Grouper{byScope: make(map[Scope][]Entry)}

	declared := make(map[ident.EntityID]bool, len(classes))
	var enums []Entry
	for _, c := range classes {
		if c == nil {
			continue
		}
		id, err := ident.ParseEntityID(c.Name)
		if err != nil {
			g.skipped = append(g.skipped, c.Name)
			continue
		}
		declared[id] = true
		e := Entry{ID: id, Class: c}
		g.add(e)
		if c.Kind == metadata.ClassKindEnumClass {
			enums = append(enums, e)
		}
	}

	for _, enum := range enums {
		for _, name := range enum.Class.EnumEntries {
			if name == "" {
				continue
			}
			entryID := enum.ID.Child(ident.Name(name))
			if declared[entryID] {
				continue
			}
			declared[entryID] = true
			g.add(Entry{
				ID:        entryID,
				Class:     &metadata.Class{Name: entryID.String(), Kind: metadata.ClassKindEnumEntry},
				EnumEntry: true,
			})
		}
	}
	return g
}

func (g *Grouper) add(e Entry) {
	s := TopLevel()
	if parent, ok := e.ID.Parent(); ok {
		s = Within(parent)
	}
	g.byScope[s] = append(g.byScope[s], e)
	g.count++
}

// InScope returns the classes declared directly in s, in input order.
func (g *Grouper) InScope(s Scope) []Entry {
	return g.byScope[s]
}

// ForEachInScope calls fn for each class declared directly in s and stops
// at the first error.
func (g *Grouper) ForEachInScope(s Scope, fn func(Entry) error) error {
	for _, e := range g.byScope[s] {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Len is the number of indexed entries, synthesized enum entries included.
func (g *Grouper) Len() int { return g.count }

// Orphans returns the entries that cannot be reached from the top level
// because an enclosing class is not in the input, in scope order.
func (g *Grouper) Orphans() []Entry {
	reached := make(map[ident.EntityID]bool, g.count)
	var visit func(s Scope)
	visit = func(s Scope) {
		for _, e := range g.byScope[s] {
			if reached[e.ID] {
				continue
			}
			reached[e.ID] = true
			visit(Within(e.ID))
		}
	}
	visit(TopLevel())

	var scopes []Scope
	for s := range g.byScope {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].String() < scopes[j].String() })

	var orphans []Entry
	for _, s := range scopes {
		for _, e := range g.byScope[s] {
			if !reached[e.ID] {
				orphans = append(orphans, e)
			}
		}
	}
	return orphans
}

// Skipped lists class names that could not be parsed.
func (g *Grouper) Skipped() []string { return g.skipped }
