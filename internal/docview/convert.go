package docview

import (
	"fmt"

	"github.com/dshills/scrivener/internal/content"
)

func (t *Tree) createBlock(b content.Block) NodeID {
	t.stats.Created++
	switch b := b.(type) {
	case *content.Line:
		id := t.alloc(node{kind: KindLine, attrs: b.Attrs, breakAfter: b.BreakAfter})
		t.setChildren(id, t.createInlines(b.Children))
		return id
	case *content.BlockWidget:
		return t.alloc(node{
			kind:       KindBlock,
			widget:     b.Widget,
			length:     b.Len,
			open:       b.Open,
			breakAfter: b.BreakAfter,
			height:     b.Height,
			gap:        b.Gap,
		})
	default:
		panic(fmt.Sprintf("docview: unknown block %T", b))
	}
}

func (t *Tree) createInlines(children []content.Inline) []NodeID {
	ids := make([]NodeID, len(children))
	for i, c := range children {
		ids[i] = t.createInline(c)
	}
	return ids
}

func (t *Tree) createInline(c content.Inline) NodeID {
	t.stats.Created++
	switch c := c.(type) {
	case *content.Text:
		return t.alloc(node{kind: KindText, text: c.Text, length: len(c.Text)})
	case *content.InlineWidget:
		return t.alloc(node{kind: KindWidget, widget: c.Widget, length: c.Len, open: c.Open, side: c.Side})
	case *content.Mark:
		id := t.alloc(node{kind: KindMark, mark: c.Attrs, open: c.Open})
		t.setChildren(id, t.createInlines(c.Children))
		return id
	default:
		panic(fmt.Sprintf("docview: unknown inline %T", c))
	}
}

// Blocks returns the content mirrored by the tree.
func (t *Tree) Blocks() []content.Block {
	root := t.nodes[t.root].children
	out := make([]content.Block, len(root))
	for i, id := range root {
		out[i] = t.block(id)
	}
	return out
}

// Describe returns content.Describe of the mirrored content.
func (t *Tree) Describe() string {
	return content.Describe(t.Blocks())
}

func (t *Tree) block(id NodeID) content.Block {
	n := &t.nodes[id]
	switch n.kind {
	case KindLine:
		return &content.Line{Children: t.inlines(n.children), Attrs: n.attrs, BreakAfter: n.breakAfter}
	case KindBlock:
		return &content.BlockWidget{
			Widget:     n.widget,
			Len:        n.length,
			Open:       n.open,
			BreakAfter: n.breakAfter,
			Height:     n.height,
			Gap:        n.gap,
		}
	default:
		panic(fmt.Sprintf("docview: %s node %d is not a block", n.kind, id))
	}
}

func (t *Tree) inlines(ids []NodeID) []content.Inline {
	out := make([]content.Inline, len(ids))
	for i, id := range ids {
		out[i] = t.inline(id)
	}
	return out
}

func (t *Tree) inline(id NodeID) content.Inline {
	n := &t.nodes[id]
	switch n.kind {
	case KindText:
		return &content.Text{Text: n.text}
	case KindWidget:
		return &content.InlineWidget{Widget: n.widget, Len: n.length, Open: n.open, Side: n.side}
	case KindMark:
		return &content.Mark{Attrs: n.mark, Children: t.inlines(n.children), Open: n.open}
	default:
		panic(fmt.Sprintf("docview: %s node %d is not inline", n.kind, id))
	}
}
