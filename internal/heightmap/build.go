package heightmap

import (
	"math"

	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/text"
)

// builder turns the decorated structure of a range that starts at a line
// boundary into leaves. It places blocks exactly where a content build
// would, so every leaf corresponds to one content block, except that runs
// of undecorated lines become gap leaves.
type builder struct {
	o       *Oracle
	doc     text.Text
	leaves  []*node
	cur     *node
	pending bool
}

// build returns the leaves for [from, to] of the oracle's document. brk
// is the break state of the last leaf.
func build(sets []*decoration.Set, o *Oracle, from, to int, brk bool) []*node {
	b := &builder{o: o, doc: o.Doc(), pending: true}
	decoration.Spans(sets, from, to, b)
	return b.finish(from, brk)
}

// Span implements decoration.SpanVisitor.
func (b *builder) Span(from, to int, _ []decoration.Decoration) {
	for from < to {
		line := b.doc.LineAt(from)
		if line.To >= to {
			b.ensureLine().length += to - from
			return
		}
		if line.To > from {
			b.ensureLine().length += line.To - from
		}
		b.lineBreak()
		from = line.To + 1

		last := b.doc.LineAt(to)
		if last.From > from {
			end := last.From - 1
			b.leaves = append(b.leaves, &node{
				kind:   kindGap,
				length: end - from,
				brk:    true,
				lines:  last.Number - b.doc.LineAt(from).Number,
			})
			from = last.From
		}
	}
}

// Point implements decoration.SpanVisitor.
func (b *builder) Point(from, to int, d decoration.Decoration, _ []decoration.Decoration, _, _ bool) {
	switch {
	case d.Kind() == decoration.KindLine:
	case d.Block():
		typ := BlockWidgetRange
		switch {
		case from == to && d.StartSide() > 0:
			b.ensureLine()
			b.cur, b.pending = nil, false
			typ = BlockWidgetAfter
		case from == to:
			if b.cur != nil {
				b.cur, b.pending = nil, false
			}
			typ = BlockWidgetBefore
		default:
			b.cur, b.pending = nil, false
		}
		b.leaves = append(b.leaves, &node{
			kind:   kindBlock,
			length: to - from,
			typ:    typ,
			height: blockHeight(d, b.o),
		})
	default:
		l := b.ensureLine()
		l.length += to - from
		l.inline = true
		if d.Kind() == decoration.KindReplace {
			l.collapsed += to - from
		}
		if w := d.Widget(); w != nil {
			l.widget = math.Max(l.widget, w.EstimatedHeight())
		}
	}
}

// blockHeight is the height of a block decoration. Blocks without a
// widget take no space; widgets that cannot estimate take one line.
func blockHeight(d decoration.Decoration, o *Oracle) float64 {
	w := d.Widget()
	if w == nil {
		return 0
	}
	if h := w.EstimatedHeight(); h >= 0 {
		return h
	}
	return o.LineHeight
}

func (b *builder) ensureLine() *node {
	if b.cur == nil {
		b.cur = &node{kind: kindLine}
		b.leaves = append(b.leaves, b.cur)
		b.pending = false
	}
	return b.cur
}

func (b *builder) lineBreak() {
	switch {
	case b.cur != nil:
		b.cur.brk = true
	case b.pending:
		b.ensureLine().brk = true
	default:
		b.leaves[len(b.leaves)-1].brk = true
	}
	b.cur, b.pending = nil, true
}

// finish closes the build, estimates heights and folds undecorated lines
// that form a group of their own into gaps.
func (b *builder) finish(from int, brk bool) []*node {
	if b.pending && b.cur == nil || len(b.leaves) == 0 {
		b.ensureLine()
	}
	b.leaves[len(b.leaves)-1].brk = brk

	out := make([]*node, 0, len(b.leaves))
	pos := from
	for i, l := range b.leaves {
		start := pos
		pos += l.length
		if l.brk {
			pos++
		}
		switch l.kind {
		case kindLine:
			if !l.inline && (i == 0 || b.leaves[i-1].brk) && (l.brk || i == len(b.leaves)-1) {
				l.kind, l.lines = kindGap, 1
				l.height = b.o.HeightForLine(l.length)
			} else {
				l.height = math.Max(l.widget, b.o.HeightForLine(l.length-l.collapsed))
			}
		case kindGap:
			l.height = b.o.HeightForGap(start, start+l.length)
		}
		if k := len(out) - 1; k >= 0 && l.kind == kindGap && out[k].kind == kindGap && out[k].brk {
			prev := out[k]
			prev.length += l.length + 1
			prev.lines += l.lines
			prev.height += l.height
			prev.brk = l.brk
			continue
		}
		out = append(out, l)
	}
	for i, l := range out {
		out[i] = newLeaf(*l)
	}
	return out
}

// gapLeaf returns a gap over the lines in [from, to] of the oracle's
// document.
func gapLeaf(o *Oracle, from, to int, brk bool) *node {
	doc := o.Doc()
	return newLeaf(node{
		kind:   kindGap,
		length: to - from,
		brk:    brk,
		lines:  doc.LineAt(to).Number - doc.LineAt(from).Number + 1,
		height: o.HeightForGap(from, to),
	})
}
