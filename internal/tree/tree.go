// Package tree implements the merged declaration tree: an arena of nodes,
// each holding one slot per target, addressed by stable NodeID handles.
//
// Nodes are created by a per-target Writer the first time a declaration is
// seen and are never moved, re-keyed or removed. A Writer only ever writes
// its own target's slot, and a target can be written exactly once.
//
// A Tree is not safe for concurrent mutation; readers may share a tree once
// every writer is closed.
package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTargetRange  = errors.New("tree: target index out of range")
	ErrTargetSealed = errors.New("tree: target already merged")
	ErrWriterActive = errors.New("tree: another target is being merged")
)

// NodeID is a handle into the tree's arena.
type NodeID int32

// NoNode is returned where no node exists.
const NoNode NodeID = -1

type childKey struct {
	kind Kind
	key  string
}

type node struct {
	kind     Kind
	key      string
	parent   NodeID
	slots    []Decl
	children map[childKey]NodeID
}

// Tree is the merged tree for a fixed number of targets.
type Tree struct {
	targets int
	nodes   []node
	sealed  []bool
	active  int // index of the open writer, -1 if none
}

// New creates a tree with only a root node, sized for targets targets.
func New(targets int) (*Tree, error) {
	if targets < 1 {
		return nil, fmt.Errorf("%w: need at least one target, got %d", ErrTargetRange, targets)
	}
	t := &Tree{
		targets: targets,
		sealed:  make([]bool, targets),
		active:  -1,
	}
	t.nodes = append(t.nodes, node{
		kind:     KindRoot,
		parent:   NoNode,
		slots:    make([]Decl, targets),
		children: make(map[childKey]NodeID),
	})
	return t, nil
}

// Targets is the number of target slots per node.
func (t *Tree) Targets() int { return t.targets }

// Root returns the root handle.
func (t *Tree) Root() NodeID { return 0 }

// Len is the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Sealed reports whether target has been fully merged.
func (t *Tree) Sealed(target int) bool {
	return target >= 0 && target < t.targets && t.sealed[target]
}

func (t *Tree) Kind(id NodeID) Kind     { return t.nodes[id].kind }
func (t *Tree) Key(id NodeID) string    { return t.nodes[id].key }
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Slot returns target's declaration for id, or nil when absent.
func (t *Tree) Slot(id NodeID, target int) Decl { return t.nodes[id].slots[target] }

// Slots returns a copy of all slots of id, indexed by target.
func (t *Tree) Slots(id NodeID) []Decl {
	out := make([]Decl, t.targets)
	copy(out, t.nodes[id].slots)
	return out
}

// Presence reports, per target, whether the slot of id is populated.
func (t *Tree) Presence(id NodeID) []bool {
	out := make([]bool, t.targets)
	for i, d := range t.nodes[id].slots {
		out[i] = d != nil
	}
	return out
}

// PresenceString renders Presence as "+" / "-" per target, e.g. "+-+".
func (t *Tree) PresenceString(id NodeID) string {
	var b strings.Builder
	for _, d := range t.nodes[id].slots {
		if d != nil {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Child looks up the direct child of id with the given kind and key.
func (t *Tree) Child(id NodeID, kind Kind, key string) (NodeID, bool) {
	c, ok := t.nodes[id].children[childKey{kind: kind, key: key}]
	return c, ok
}

// Children returns the direct children of id of the given kind, sorted by key.
func (t *Tree) Children(id NodeID, kind Kind) []NodeID {
	var out []NodeID
	for k, c := range t.nodes[id].children {
		if k.kind == kind {
			out = append(out, c)
		}
	}
	t.sortByKey(out)
	return out
}

// AllChildren returns every direct child of id sorted by (kind, key).
func (t *Tree) AllChildren(id NodeID) []NodeID {
	out := make([]NodeID, 0, len(t.nodes[id].children))
	for _, c := range t.nodes[id].children {
		out = append(out, c)
	}
	t.sortByKey(out)
	return out
}

func (t *Tree) sortByKey(ids []NodeID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := t.nodes[ids[i]], t.nodes[ids[j]]
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		return a.key < b.key
	})
}

// Walk visits the tree in deterministic pre-order. Returning false from fn
// skips the node's subtree.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	t.walk(t.Root(), 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, c := range t.AllChildren(id) {
		t.walk(c, depth+1, fn)
	}
}

// segmentEscaper keeps "/" a pure separator in paths. Member keys embed
// classifier names such as "kotlin/String".
var segmentEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

// Path renders the address of id from the root, e.g.
// "libc/platform.posix/FILE/fun:fopen(kotlin%2FString)". Every "/" in the
// result separates two segments; "/" and "%" inside a key are escaped.
func (t *Tree) Path(id NodeID) string {
	var segs []string
	for cur := id; cur != NoNode && t.nodes[cur].kind != KindRoot; cur = t.nodes[cur].parent {
		segs = append(segs, t.segment(cur))
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "/")
}

func (t *Tree) segment(id NodeID) string {
	return segmentEscaper.Replace(t.rawSegment(id))
}

func (t *Tree) rawSegment(id NodeID) string {
	n := t.nodes[id]
	switch n.kind {
	case KindModule, KindClass:
		return n.key
	case KindPackage:
		if n.key == "" {
			return "<root>"
		}
		return n.key
	case KindFunction:
		return "fun:" + n.key
	case KindProperty:
		return "val:" + n.key
	case KindConstructor:
		return "init:" + n.key
	case KindTypeAlias:
		return "typealias:" + n.key
	}
	return n.key
}

// Stats summarizes a tree.
type Stats struct {
	Nodes     map[Kind]int
	PerTarget []int // nodes populated per target, root excluded
	Common    int   // non-root nodes populated by every target
}

// Stats counts nodes by kind and presence.
func (t *Tree) Stats() Stats {
	s := Stats{Nodes: make(map[Kind]int), PerTarget: make([]int, t.targets)}
	for i := 1; i < len(t.nodes); i++ {
		n := t.nodes[i]
		s.Nodes[n.kind]++
		all := true
		for target, d := range n.slots {
			if d != nil {
				s.PerTarget[target]++
			} else {
				all = false
			}
		}
		if all {
			s.Common++
		}
	}
	return s
}
