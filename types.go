package treemerge

import (
	"github.com/jward/treemerge/internal/approx"
	"github.com/jward/treemerge/internal/fwd"
	"github.com/jward/treemerge/internal/ident"
	"github.com/jward/treemerge/internal/metadata"
	"github.com/jward/treemerge/internal/tree"
)

// Public type aliases for internal types used in the Merger API and by
// consumers traversing a Result. These are Go type aliases (=), identical
// to the internal types at compile time.

type Tree = tree.Tree
type NodeID = tree.NodeID
type Kind = tree.Kind
type Decl = tree.Decl
type Stats = tree.Stats

type TargetDecl = tree.TargetDecl
type ModuleDecl = tree.ModuleDecl
type PackageDecl = tree.PackageDecl
type ClassDecl = tree.ClassDecl
type TypeAliasDecl = tree.TypeAliasDecl
type FunctionDecl = tree.FunctionDecl
type PropertyDecl = tree.PropertyDecl
type ConstructorDecl = tree.ConstructorDecl

type EntityID = ident.EntityID
type PackageName = ident.PackageName

type Policy = approx.Policy
type Key = approx.Key
type Registry = fwd.Registry

type Module = metadata.Module
type ModuleDescriptor = metadata.ModuleDescriptor
type InteropAttributes = metadata.InteropAttributes
type Fragment = metadata.Fragment
type Class = metadata.Class
type Function = metadata.Function
type Property = metadata.Property
type Constructor = metadata.Constructor
type TypeAlias = metadata.TypeAlias
