package docview

import (
	"fmt"
	"maps"

	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
)

// matchBlock reports whether id already renders b exactly.
func (t *Tree) matchBlock(id NodeID, b content.Block) bool {
	n := &t.nodes[id]
	switch b := b.(type) {
	case *content.Line:
		if n.kind != KindLine || n.breakAfter != b.BreakAfter || !maps.Equal(n.attrs, b.Attrs) {
			return false
		}
		return t.matchInlines(n.children, b.Children)
	case *content.BlockWidget:
		return n.kind == KindBlock && n.length == b.Len && n.breakAfter == b.BreakAfter &&
			n.gap == b.Gap && n.height == b.Height && decoration.SameWidget(n.widget, b.Widget)
	default:
		panic(fmt.Sprintf("docview: unknown block %T", b))
	}
}

func (t *Tree) matchInlines(ids []NodeID, children []content.Inline) bool {
	if len(ids) != len(children) {
		return false
	}
	for i, c := range children {
		if !t.matchInline(ids[i], c) {
			return false
		}
	}
	return true
}

// matchInline reports whether id already renders c exactly.
func (t *Tree) matchInline(id NodeID, c content.Inline) bool {
	n := &t.nodes[id]
	switch c := c.(type) {
	case *content.Text:
		return n.kind == KindText && n.text == c.Text
	case *content.InlineWidget:
		return n.kind == KindWidget && n.length == c.Len && n.side == c.Side &&
			decoration.SameWidget(n.widget, c.Widget)
	case *content.Mark:
		return n.kind == KindMark && n.mark.Eq(c.Attrs) && t.matchInlines(n.children, c.Children)
	default:
		panic(fmt.Sprintf("docview: unknown inline %T", c))
	}
}

// adoptOpen copies the open bits of matched content onto the subtree at
// id. Open bits do not affect rendering, so nothing becomes dirty.
func (t *Tree) adoptOpen(id NodeID, c any) {
	n := &t.nodes[id]
	switch c := c.(type) {
	case *content.Line:
		for i, ch := range c.Children {
			t.adoptOpen(n.children[i], ch)
		}
	case *content.BlockWidget:
		n.open = c.Open
	case *content.InlineWidget:
		n.open = c.Open
	case *content.Mark:
		n.open = c.Open
		for i, ch := range c.Children {
			t.adoptOpen(n.children[i], ch)
		}
	}
}

// reconcileBlocks turns the old blocks into blocks. Leading and trailing
// blocks that already match are kept, the remaining ones are patched in
// place pairwise where their kinds allow it, and the rest are created or
// freed. It returns the new child list.
func (t *Tree) reconcileBlocks(old []NodeID, blocks []content.Block) []NodeID {
	i := 0
	for i < len(old) && i < len(blocks) && t.matchBlock(old[i], blocks[i]) {
		t.adoptOpen(old[i], blocks[i])
		i++
	}
	j := 0
	for j < len(old)-i && j < len(blocks)-i && t.matchBlock(old[len(old)-1-j], blocks[len(blocks)-1-j]) {
		t.adoptOpen(old[len(old)-1-j], blocks[len(blocks)-1-j])
		j++
	}
	t.stats.Reused += i + j

	out := make([]NodeID, 0, len(blocks))
	out = append(out, old[:i]...)
	oldMid, newMid := old[i:len(old)-j], blocks[i:len(blocks)-j]
	kept := make([]bool, len(oldMid))
	for k, b := range newMid {
		if k < len(oldMid) && t.patchBlock(oldMid[k], b) {
			kept[k] = true
			out = append(out, oldMid[k])
			continue
		}
		out = append(out, t.createBlock(b))
	}
	for k, id := range oldMid {
		if !kept[k] {
			t.release(id)
		}
	}
	return append(out, old[len(old)-j:]...)
}

// patchBlock updates id in place to render b. It reports false when the
// node kinds are incompatible and id must be replaced.
func (t *Tree) patchBlock(id NodeID, b content.Block) bool {
	switch b := b.(type) {
	case *content.Line:
		if t.nodes[id].kind != KindLine {
			return false
		}
		t.stats.Reused++
		children := t.reconcileInlines(t.nodes[id].children, b.Children)
		t.setChildren(id, children)
		n := &t.nodes[id]
		if n.breakAfter != b.BreakAfter || !maps.Equal(n.attrs, b.Attrs) {
			n.breakAfter = b.BreakAfter
			n.attrs = b.Attrs
			t.markDirty(id, NodeDirty)
		}
		return true
	case *content.BlockWidget:
		n := &t.nodes[id]
		if n.kind != KindBlock || !decoration.Compatible(n.widget, b.Widget) {
			return false
		}
		t.stats.Reused++
		changed := !decoration.SameWidget(n.widget, b.Widget) || n.length != b.Len ||
			n.breakAfter != b.BreakAfter || n.height != b.Height || n.gap != b.Gap
		n.widget, n.length, n.open = b.Widget, b.Len, b.Open
		n.breakAfter, n.height, n.gap = b.BreakAfter, b.Height, b.Gap
		if changed {
			t.markDirty(id, NodeDirty)
		}
		return true
	default:
		panic(fmt.Sprintf("docview: unknown block %T", b))
	}
}

// reconcileInlines is reconcileBlocks for inline children.
func (t *Tree) reconcileInlines(old []NodeID, children []content.Inline) []NodeID {
	i := 0
	for i < len(old) && i < len(children) && t.matchInline(old[i], children[i]) {
		t.adoptOpen(old[i], children[i])
		i++
	}
	j := 0
	for j < len(old)-i && j < len(children)-i && t.matchInline(old[len(old)-1-j], children[len(children)-1-j]) {
		t.adoptOpen(old[len(old)-1-j], children[len(children)-1-j])
		j++
	}
	t.stats.Reused += i + j

	out := make([]NodeID, 0, len(children))
	out = append(out, old[:i]...)
	oldMid, newMid := old[i:len(old)-j], children[i:len(children)-j]
	kept := make([]bool, len(oldMid))
	for k, c := range newMid {
		if k < len(oldMid) && t.patchInline(oldMid[k], c) {
			kept[k] = true
			out = append(out, oldMid[k])
			continue
		}
		out = append(out, t.createInline(c))
	}
	for k, id := range oldMid {
		if !kept[k] {
			t.release(id)
		}
	}
	return append(out, old[len(old)-j:]...)
}

// patchInline updates id in place to render c. It reports false when the
// node kinds are incompatible.
func (t *Tree) patchInline(id NodeID, c content.Inline) bool {
	switch c := c.(type) {
	case *content.Text:
		n := &t.nodes[id]
		if n.kind != KindText {
			return false
		}
		t.stats.Reused++
		if n.text != c.Text {
			n.text, n.length = c.Text, len(c.Text)
			t.markDirty(id, NodeDirty)
		}
		return true
	case *content.InlineWidget:
		n := &t.nodes[id]
		if n.kind != KindWidget || !decoration.Compatible(n.widget, c.Widget) {
			return false
		}
		t.stats.Reused++
		changed := !decoration.SameWidget(n.widget, c.Widget) || n.length != c.Len || n.side != c.Side
		n.widget, n.length, n.open, n.side = c.Widget, c.Len, c.Open, c.Side
		if changed {
			t.markDirty(id, NodeDirty)
		}
		return true
	case *content.Mark:
		if n := &t.nodes[id]; n.kind != KindMark || !n.mark.Eq(c.Attrs) {
			return false
		}
		t.stats.Reused++
		children := t.reconcileInlines(t.nodes[id].children, c.Children)
		t.setChildren(id, children)
		t.nodes[id].open = c.Open
		return true
	default:
		panic(fmt.Sprintf("docview: unknown inline %T", c))
	}
}

// joinSeam concatenates left and right, joining the nodes that meet at
// the seam when they continue each other.
func joinSeam(left, right []content.Inline, maxJoin int) []content.Inline {
	if len(left) == 0 {
		return right
	}
	if len(right) == 0 {
		return left
	}
	out := make([]content.Inline, 0, len(left)+len(right))
	out = append(out, left[:len(left)-1]...)
	if j, ok := joinInline(left[len(left)-1], right[0], maxJoin); ok {
		out = append(out, j)
	} else {
		out = append(out, left[len(left)-1], right[0])
	}
	return append(out, right[1:]...)
}

// joinInline joins a and b into one node. Text joins when the result fits
// in maxJoin. Marks and widgets join only when a is open at its end, b is
// open at its start and both describe the same element. Two widgets that
// are open towards each other but show different widgets cannot come
// from one decoration, and joinInline panics.
func joinInline(a, b content.Inline, maxJoin int) (content.Inline, bool) {
	switch a := a.(type) {
	case *content.Text:
		if b, ok := b.(*content.Text); ok && len(a.Text)+len(b.Text) <= maxJoin {
			return &content.Text{Text: a.Text + b.Text}, true
		}
	case *content.Mark:
		b, ok := b.(*content.Mark)
		if !ok || a.Open&content.OpenEnd == 0 || b.Open&content.OpenStart == 0 || !a.Attrs.Eq(b.Attrs) {
			return nil, false
		}
		return &content.Mark{
			Attrs:    a.Attrs,
			Children: joinSeam(a.Children, b.Children, maxJoin),
			Open:     a.Open&content.OpenStart | b.Open&content.OpenEnd,
		}, true
	case *content.InlineWidget:
		b, ok := b.(*content.InlineWidget)
		if !ok || a.Open&content.OpenEnd == 0 || b.Open&content.OpenStart == 0 {
			return nil, false
		}
		if !decoration.SameWidget(a.Widget, b.Widget) {
			invariant("merge", a.Len, "cannot join widget %T with %T", a.Widget, b.Widget)
		}
		return &content.InlineWidget{
			Widget: a.Widget,
			Len:    a.Len + b.Len,
			Open:   a.Open&content.OpenStart | b.Open&content.OpenEnd,
			Side:   a.Side,
		}, true
	}
	return nil, false
}
