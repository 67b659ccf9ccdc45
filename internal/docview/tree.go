package docview

import (
	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
)

// DefaultMaxJoinLength is the default limit on the length of a text node
// produced by joining two adjacent text nodes.
const DefaultMaxJoinLength = 256

// NodeID addresses a node in a Tree.
type NodeID int32

// None is the NodeID of no node.
const None NodeID = -1

// Kind identifies the variant of a node.
type Kind uint8

const (
	KindDoc Kind = iota
	KindLine
	KindBlock
	KindText
	KindWidget
	KindMark
)

var kindNames = [...]string{"doc", "line", "block", "text", "widget", "mark"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Dirty is the synchronization state of a node.
type Dirty uint8

const (
	// Clean nodes match what was last written to the surface.
	Clean Dirty = iota
	// ChildDirty nodes have at least one dirty descendant.
	ChildDirty
	// NodeDirty nodes must be rewritten themselves.
	NodeDirty
)

func (d Dirty) String() string {
	switch d {
	case Clean:
		return "clean"
	case ChildDirty:
		return "child-dirty"
	default:
		return "node-dirty"
	}
}

type node struct {
	kind     Kind
	live     bool
	dirty    Dirty
	parent   NodeID
	children []NodeID
	length   int

	text       string
	attrs      content.Attrs
	mark       *content.MarkAttrs
	widget     decoration.Widget
	side       int
	open       content.Open
	breakAfter bool
	height     float64
	gap        bool

	handle Handle
}

// Options configures a Tree.
type Options struct {
	// MaxJoinLength bounds text joins. Zero means DefaultMaxJoinLength.
	MaxJoinLength int
	// MaxTextRun is passed to content.Build.
	MaxTextRun int
	// Registry interns mark attributes. A nil registry gets a fresh one.
	Registry *content.Registry
}

// Stats counts the node operations of the last Reset or Update.
type Stats struct {
	Created int
	Reused  int
	Freed   int
}

// Tree is the retained content tree of one editing surface. It is not
// safe for concurrent use.
type Tree struct {
	nodes []node
	free  []NodeID
	root  NodeID
	opts  Options
	stats Stats
}

// New creates an empty tree. Call Reset before Update.
func New(opts Options) *Tree {
	if opts.MaxJoinLength <= 0 {
		opts.MaxJoinLength = DefaultMaxJoinLength
	}
	if opts.Registry == nil {
		opts.Registry = content.NewRegistry()
	}
	t := &Tree{}
	t.opts = opts
	t.root = t.alloc(node{kind: KindDoc})
	return t
}

// Registry returns the registry used to build content.
func (t *Tree) Registry() *content.Registry { return t.opts.Registry }

// Root returns the document node.
func (t *Tree) Root() NodeID { return t.root }

// Stats returns the counters of the last Reset or Update.
func (t *Tree) Stats() Stats { return t.stats }

// Len returns the document length mirrored by the tree.
func (t *Tree) Len() int { return t.nodes[t.root].length }

// Kind returns the kind of id.
func (t *Tree) Kind(id NodeID) Kind { return t.nodes[id].kind }

// Children returns the children of id. The slice must not be modified.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

// Parent returns the parent of id, or None for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Length returns the number of document positions covered by id.
func (t *Tree) Length(id NodeID) int { return t.nodes[id].length }

// DirtyState returns the synchronization state of id.
func (t *Tree) DirtyState(id NodeID) Dirty { return t.nodes[id].dirty }

// Live returns the number of nodes in use, including the root.
func (t *Tree) Live() int { return len(t.nodes) - len(t.free) }

func (t *Tree) alloc(n node) NodeID {
	n.live = true
	n.dirty = NodeDirty
	n.parent = None
	if k := len(t.free); k > 0 {
		id := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[id] = n
		return id
	}
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Close releases the surface element of every live node. It walks the
// arena rather than the tree, so it also works on a tree left half merged
// by a failed update. The tree must not be used afterwards.
func (t *Tree) Close() {
	for i := range t.nodes {
		if n := &t.nodes[i]; n.live && n.handle != nil {
			n.handle.Release()
			n.handle = nil
		}
	}
	t.nodes, t.free = nil, nil
}

// release frees id and its subtree, releasing surface handles.
func (t *Tree) release(id NodeID) {
	n := &t.nodes[id]
	if !n.live {
		invariant("release", 0, "node %d freed twice", id)
	}
	children := n.children
	if n.handle != nil {
		n.handle.Release()
	}
	t.nodes[id] = node{parent: None}
	t.free = append(t.free, id)
	t.stats.Freed++
	for _, c := range children {
		t.release(c)
	}
}

// markDirty flags id with d and its ancestors as having a dirty child.
func (t *Tree) markDirty(id NodeID, d Dirty) {
	n := &t.nodes[id]
	if d > n.dirty {
		n.dirty = d
	}
	for p := n.parent; p != None; p = t.nodes[p].parent {
		if t.nodes[p].dirty != Clean {
			return
		}
		t.nodes[p].dirty = ChildDirty
	}
}

// setChildren replaces the children of id and fixes parent links and the
// node's length. It marks id NodeDirty when the child list changed.
func (t *Tree) setChildren(id NodeID, children []NodeID) {
	old := t.nodes[id].children
	changed := len(old) != len(children)
	for i := 0; !changed && i < len(old); i++ {
		changed = old[i] != children[i]
	}
	length := 0
	for _, c := range children {
		t.nodes[c].parent = id
		length += t.nodes[c].length
		if t.nodes[id].kind == KindDoc && t.nodes[c].breakAfter {
			length++
		}
	}
	n := &t.nodes[id]
	n.children = children
	n.length = length
	if changed {
		t.markDirty(id, NodeDirty)
	}
}

// fixLengths recomputes lengths from id up to the root.
func (t *Tree) fixLengths(id NodeID) {
	for ; id != None; id = t.nodes[id].parent {
		n := &t.nodes[id]
		length := 0
		for _, c := range n.children {
			length += t.nodes[c].length
			if n.kind == KindDoc && t.nodes[c].breakAfter {
				length++
			}
		}
		n.length = length
	}
}
