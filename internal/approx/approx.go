// Package approx derives approximation keys: structural fingerprints that
// decide whether member declarations from different targets occupy the same
// slot of the merged tree. Keys tolerate per-target representation
// differences (alias expansions, type-parameter names) while keeping
// genuine overloads apart.
package approx

import (
	"strings"

	"github.com/jward/treemerge/internal/metadata"
)

// Owner is the kind of container a member is declared in. It is threaded
// through the merge explicitly instead of being recovered from the node.
type Owner uint8

const (
	OwnerPackage Owner = iota
	OwnerClass
)

func (o Owner) String() string {
	if o == OwnerClass {
		return "class"
	}
	return "package"
}

// Skip reasons reported by policies.
const (
	ReasonFakeOverride       = "fake_override"
	ReasonBridge             = "bridge"
	ReasonDeprecatedTopLevel = "deprecated_top_level"
	ReasonSynthetic          = "synthetic"
	ReasonEmptyName          = "empty_name"
	ReasonScript             = "script"
)

// Key is a comparable approximation key. Two members under the same owner
// share a tree node iff their keys are equal.
type Key struct {
	Name  string
	Shape string
}

// nameEscaper escapes the characters a Shape may start with, so the first
// unescaped delimiter in a key string always begins the Shape.
var nameEscaper = strings.NewReplacer(`\`, `\\`, "(", `\(`, "[", `\[`, "|", `\|`)

// String is the node key used inside the tree. Delimiters inside Name are
// backslash-escaped, so distinct keys never render the same string.
func (k Key) String() string { return nameEscaper.Replace(k.Name) + k.Shape }

// Policy computes keys and decides which members never enter the tree.
// Exclude methods return a non-empty reason for excluded declarations.
type Policy interface {
	FunctionKey(fn *metadata.Function) Key
	PropertyKey(p *metadata.Property) Key
	ConstructorKey(c *metadata.Constructor) Key

	ExcludeFunction(fn *metadata.Function, owner Owner) string
	ExcludeProperty(p *metadata.Property, owner Owner) string
	ExcludeConstructor(c *metadata.Constructor) string
}
