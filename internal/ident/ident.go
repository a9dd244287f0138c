// Package ident defines the structural identifiers shared by every layer of
// the merge: package names, simple names and qualified entity identifiers.
// Equality is by value, so identifiers work directly as map keys.
package ident

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyName is returned when an identifier has no simple-name segments.
var ErrEmptyName = errors.New("ident: empty entity name")

// PackageName is a dot-separated package path. The empty string is the
// root (default) package.
type PackageName string

// RootPackage is the unnamed default package.
const RootPackage PackageName = ""

// ParsePackage normalizes a package path written either with dots
// ("platform.posix") or with slashes ("platform/posix").
func ParsePackage(s string) PackageName {
	s = strings.Trim(strings.TrimSpace(s), "./")
	return PackageName(strings.ReplaceAll(s, "/", "."))
}

// IsRoot reports whether p is the default package.
func (p PackageName) IsRoot() bool { return p == RootPackage }

// Segments returns the package path split on dots. The root package has no
// segments.
func (p PackageName) Segments() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(string(p), ".")
}

func (p PackageName) String() string { return string(p) }

// Name is a single simple-name segment (a class, member or alias name).
type Name string

func (n Name) String() string { return string(n) }

// EntityID is a qualified name: a package plus the nesting path of simple
// names inside it (outer class, inner class, ...). The zero value is not a
// valid identifier.
type EntityID struct {
	pkg PackageName
	rel string // dot-joined simple names
}

// NewEntityID builds an identifier from a package and one or more nested
// simple names.
func NewEntityID(pkg PackageName, names ...Name) EntityID {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			parts = append(parts, string(n))
		}
	}
	return EntityID{pkg: pkg, rel: strings.Join(parts, ".")}
}

// ParseEntityID parses the metadata class-name form "a/b/Outer.Inner":
// slashes separate package segments, dots separate nested names. A name
// without slashes lives in the root package.
func ParseEntityID(s string) (EntityID, error) {
	s = strings.TrimSpace(s)
	pkg, rel := RootPackage, s
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		pkg, rel = ParsePackage(s[:i]), s[i+1:]
	}
	rel = strings.Trim(rel, ".")
	if rel == "" {
		return EntityID{}, fmt.Errorf("%w: %q", ErrEmptyName, s)
	}
	for _, seg := range strings.Split(rel, ".") {
		if seg == "" {
			return EntityID{}, fmt.Errorf("ident: malformed entity name %q", s)
		}
	}
	return EntityID{pkg: pkg, rel: rel}, nil
}

// MustParseEntityID is ParseEntityID for literals known to be valid.
func MustParseEntityID(s string) EntityID {
	id, err := ParseEntityID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether id is the zero value.
func (id EntityID) IsZero() bool { return id.rel == "" }

// Package returns the package the entity is declared in.
func (id EntityID) Package() PackageName { return id.pkg }

// Segments returns the nesting path, outermost first.
func (id EntityID) Segments() []Name {
	if id.rel == "" {
		return nil
	}
	parts := strings.Split(id.rel, ".")
	names := make([]Name, len(parts))
	for i, p := range parts {
		names[i] = Name(p)
	}
	return names
}

// Depth is the number of nesting segments; top-level entities have depth 1.
func (id EntityID) Depth() int {
	if id.rel == "" {
		return 0
	}
	return strings.Count(id.rel, ".") + 1
}

// Last returns the innermost simple name.
func (id EntityID) Last() Name {
	if i := strings.LastIndexByte(id.rel, '.'); i >= 0 {
		return Name(id.rel[i+1:])
	}
	return Name(id.rel)
}

// Parent returns the immediately enclosing entity. ok is false for
// top-level entities.
func (id EntityID) Parent() (parent EntityID, ok bool) {
	i := strings.LastIndexByte(id.rel, '.')
	if i < 0 {
		return EntityID{}, false
	}
	return EntityID{pkg: id.pkg, rel: id.rel[:i]}, true
}

// Child returns the identifier of a name nested directly inside id.
func (id EntityID) Child(n Name) EntityID {
	if id.rel == "" {
		return EntityID{pkg: id.pkg, rel: string(n)}
	}
	return EntityID{pkg: id.pkg, rel: id.rel + "." + string(n)}
}

// String renders the metadata form "a/b/Outer.Inner".
func (id EntityID) String() string {
	if id.pkg.IsRoot() {
		return id.rel
	}
	return strings.ReplaceAll(string(id.pkg), ".", "/") + "/" + id.rel
}

// FQName renders the fully dotted form "a.b.Outer.Inner".
func (id EntityID) FQName() string {
	if id.pkg.IsRoot() {
		return id.rel
	}
	return string(id.pkg) + "." + id.rel
}
