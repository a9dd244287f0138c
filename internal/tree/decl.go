package tree

import (
	"github.com/jward/treemerge/internal/ident"
	"github.com/jward/treemerge/internal/metadata"
)

// Kind is the closed set of node kinds.
type Kind uint8

const (
	KindRoot Kind = iota
	KindModule
	KindPackage
	KindClass
	KindTypeAlias
	KindFunction
	KindProperty
	KindConstructor
)

var kindNames = [...]string{
	KindRoot:        "root",
	KindModule:      "module",
	KindPackage:     "package",
	KindClass:       "class",
	KindTypeAlias:   "typealias",
	KindFunction:    "function",
	KindProperty:    "property",
	KindConstructor: "constructor",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsContainer reports whether nodes of kind k can have children.
func (k Kind) IsContainer() bool { return len(allowedChildren[k]) > 0 }

// allowedChildren is the structural schema of the tree.
var allowedChildren = map[Kind][]Kind{
	KindRoot:    {KindModule},
	KindModule:  {KindPackage},
	KindPackage: {KindClass, KindTypeAlias, KindFunction, KindProperty},
	KindClass:   {KindClass, KindConstructor, KindFunction, KindProperty},
}

func allowed(owner, child Kind) bool {
	for _, k := range allowedChildren[owner] {
		if k == child {
			return true
		}
	}
	return false
}

// Decl is the per-target payload stored in one slot of a node. The set of
// implementations is closed; consumers type-switch on it.
type Decl interface {
	Kind() Kind
	decl()
}

// TargetDecl fills a root slot.
type TargetDecl struct {
	Index int
	Name  string
}

// ModuleDecl fills a module slot.
type ModuleDecl struct {
	Name    string
	Interop *metadata.InteropAttributes
}

// PackageDecl fills a package slot.
type PackageDecl struct {
	Name ident.PackageName
}

// ClassDecl fills a class slot. Class holds the header only; members are in
// child nodes.
type ClassDecl struct {
	ID        ident.EntityID
	Class     *metadata.Class
	EnumEntry bool
}

// TypeAliasDecl fills a type alias slot.
type TypeAliasDecl struct {
	ID    ident.EntityID
	Alias *metadata.TypeAlias
}

// FunctionDecl fills a function slot.
type FunctionDecl struct {
	Function *metadata.Function
}

// PropertyDecl fills a property slot.
type PropertyDecl struct {
	Property *metadata.Property
}

// ConstructorDecl fills a constructor slot.
type ConstructorDecl struct {
	Constructor *metadata.Constructor
}

func (TargetDecl) Kind() Kind      { return KindRoot }
func (ModuleDecl) Kind() Kind      { return KindModule }
func (PackageDecl) Kind() Kind     { return KindPackage }
func (ClassDecl) Kind() Kind       { return KindClass }
func (TypeAliasDecl) Kind() Kind   { return KindTypeAlias }
func (FunctionDecl) Kind() Kind    { return KindFunction }
func (PropertyDecl) Kind() Kind    { return KindProperty }
func (ConstructorDecl) Kind() Kind { return KindConstructor }

func (TargetDecl) decl()      {}
func (ModuleDecl) decl()      {}
func (PackageDecl) decl()     {}
func (ClassDecl) decl()       {}
func (TypeAliasDecl) decl()   {}
func (FunctionDecl) decl()    {}
func (PropertyDecl) decl()    {}
func (ConstructorDecl) decl() {}
