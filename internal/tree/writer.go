package tree

import (
	"fmt"

	"github.com/jward/treemerge/internal/approx"
)

// Writer fills one target's slots. Lookups are get-or-create: an absent key
// creates the node, an existing key returns the same handle. Passing an
// owner of the wrong kind is a programming error and panics.
type Writer struct {
	t       *Tree
	target  int
	closed  bool
	created int
}

// Writer opens target for writing and fills its root slot. Only one writer
// may be open at a time and each target can be opened once.
func (t *Tree) Writer(target int, name string) (*Writer, error) {
	if target < 0 || target >= t.targets {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrTargetRange, target, t.targets)
	}
	if t.sealed[target] {
		return nil, fmt.Errorf("%w: %d", ErrTargetSealed, target)
	}
	if t.active >= 0 {
		return nil, fmt.Errorf("%w: %d", ErrWriterActive, t.active)
	}
	t.active = target
	t.nodes[0].slots[target] = TargetDecl{Index: target, Name: name}
	return &Writer{t: t, target: target}, nil
}

// Target is the slot index this writer fills.
func (w *Writer) Target() int { return w.target }

// Created is the number of nodes this writer created.
func (w *Writer) Created() int { return w.created }

// Close seals the target. Closing twice is a no-op.
func (w *Writer) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.t.sealed[w.target] = true
	w.t.active = -1
}

// Module records a module under the root, keyed by module name.
func (w *Writer) Module(d ModuleDecl) NodeID {
	return w.fill(w.t.Root(), d.Name, d)
}

// Package records a package under a module, keyed by package name.
func (w *Writer) Package(module NodeID, d PackageDecl) NodeID {
	return w.fill(module, string(d.Name), d)
}

// Class records a class under a package or class, keyed by simple name.
func (w *Writer) Class(owner NodeID, d ClassDecl) NodeID {
	return w.fill(owner, string(d.ID.Last()), d)
}

// TypeAlias records a type alias under a package, keyed by simple name.
func (w *Writer) TypeAlias(pkg NodeID, d TypeAliasDecl) NodeID {
	return w.fill(pkg, string(d.ID.Last()), d)
}

// Function records a function under a package or class, keyed by its
// approximation key.
func (w *Writer) Function(owner NodeID, key approx.Key, d FunctionDecl) NodeID {
	return w.fill(owner, key.String(), d)
}

// Property records a property under a package or class.
func (w *Writer) Property(owner NodeID, key approx.Key, d PropertyDecl) NodeID {
	return w.fill(owner, key.String(), d)
}

// Constructor records a constructor under a class.
func (w *Writer) Constructor(class NodeID, key approx.Key, d ConstructorDecl) NodeID {
	return w.fill(class, key.String(), d)
}

func (w *Writer) fill(owner NodeID, key string, d Decl) NodeID {
	if w.closed {
		panic("tree: write through a closed writer")
	}
	kind := d.Kind()
	parent := &w.t.nodes[owner]
	if !allowed(parent.kind, kind) {
		panic(fmt.Sprintf("tree: %s cannot contain %s", parent.kind, kind))
	}
	ck := childKey{kind: kind, key: key}
	id, ok := parent.children[ck]
	if !ok {
		id = NodeID(len(w.t.nodes))
		n := node{
			kind:   kind,
			key:    key,
			parent: owner,
			slots:  make([]Decl, w.t.targets),
		}
		if kind.IsContainer() {
			n.children = make(map[childKey]NodeID)
		}
		// parent may be invalidated by the append below.
		w.t.nodes[owner].children[ck] = id
		w.t.nodes = append(w.t.nodes, n)
		w.created++
	}
	w.t.nodes[id].slots[w.target] = d
	return id
}
