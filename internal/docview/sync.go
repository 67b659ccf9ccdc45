package docview

import (
	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
)

// Handle is a node's element on the rendering surface. The tree owns the
// handle and releases it when the node is freed.
type Handle interface {
	Release()
}

// NodeView is the read-only state of a node passed to a Surface.
type NodeView struct {
	ID         NodeID
	Kind       Kind
	Length     int
	Text       string
	Attrs      content.Attrs
	Mark       *content.MarkAttrs
	Widget     decoration.Widget
	BreakAfter bool
	Height     float64
	Gap        bool
}

// Surface is a retained rendering surface.
type Surface interface {
	// Create returns a new element for a node of the given kind.
	Create(kind Kind) Handle
	// Write sets the element h to show n with the given children, in order.
	Write(h Handle, n NodeView, children []Handle)
}

// View returns the state of id.
func (t *Tree) View(id NodeID) NodeView {
	n := &t.nodes[id]
	return NodeView{
		ID:         id,
		Kind:       n.kind,
		Length:     n.length,
		Text:       n.text,
		Attrs:      n.attrs,
		Mark:       n.mark,
		Widget:     n.widget,
		BreakAfter: n.breakAfter,
		Height:     n.height,
		Gap:        n.gap,
	}
}

// Handle returns the surface element of id, or nil before the first Sync.
func (t *Tree) Handle(id NodeID) Handle { return t.nodes[id].handle }

// Sync writes every dirty node to s in document order, marks the tree
// clean and returns the number of nodes written. Nodes that kept their
// identity keep their element.
func (t *Tree) Sync(s Surface) int {
	return t.sync(s, t.root)
}

func (t *Tree) handle(s Surface, id NodeID) Handle {
	n := &t.nodes[id]
	if n.handle == nil {
		n.handle = s.Create(n.kind)
		n.dirty = NodeDirty
	}
	return n.handle
}

func (t *Tree) sync(s Surface, id NodeID) int {
	h := t.handle(s, id)
	written := 0
	switch t.nodes[id].dirty {
	case Clean:
		return 0
	case NodeDirty:
		children := t.nodes[id].children
		handles := make([]Handle, len(children))
		for i, c := range children {
			handles[i] = t.handle(s, c)
		}
		s.Write(h, t.View(id), handles)
		written++
	}
	for _, c := range t.nodes[id].children {
		written += t.sync(s, c)
	}
	t.nodes[id].dirty = Clean
	return written
}
