package content

import (
	"unicode/utf8"

	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/text"
)

// DefaultMaxTextRun is the default maximum length of a single text node.
const DefaultMaxTextRun = 512

// Options configures Build.
type Options struct {
	// MaxTextRun caps the length of text nodes. Zero means DefaultMaxTextRun.
	MaxTextRun int
	// Registry interns mark attributes. A nil registry gets a fresh one.
	Registry *Registry
}

// Result is the output of Build.
type Result struct {
	Content []Block
	// BreakAtStart reports that the range began with a line break that
	// belongs to the block before it.
	BreakAtStart bool
}

type openMark struct {
	deco decoration.Decoration
	node *Mark
}

type builder struct {
	reg     *Registry
	maxRun  int
	it      *text.Iterator
	seg     string
	segBrk  bool
	pos     int
	to      int
	midLine bool

	content      []Block
	cur          *Line
	pending      bool
	pendingAttrs Attrs
	stack        []openMark
	started      bool
	breakAtStart bool
}

// Build materializes [from, to) of doc with the decorations in sets.
// Widgets at to are included. The result always holds at least one block;
// an empty range yields one empty Line. Build panics with an
// *InvariantError if the document ends before to.
func Build(doc text.Text, from, to int, sets []*decoration.Set, opts Options) Result {
	b := &builder{
		reg:     opts.Registry,
		maxRun:  opts.MaxTextRun,
		it:      doc.Iter(from, to),
		pos:     from,
		to:      to,
		pending: true,
		midLine: from > 0 && from <= doc.Len() && doc.LineAt(from).From != from,
	}
	if b.reg == nil {
		b.reg = NewRegistry()
	}
	if b.maxRun <= 0 {
		b.maxRun = DefaultMaxTextRun
	}
	decoration.Spans(sets, from, to, b)
	b.finish()
	return Result{Content: b.content, BreakAtStart: b.breakAtStart}
}

// Span implements decoration.SpanVisitor.
func (b *builder) Span(from, to int, active []decoration.Decoration) {
	b.expectPos("span", from)
	b.text(to-from, active)
}

// Point implements decoration.SpanVisitor.
func (b *builder) Point(from, to int, d decoration.Decoration, active []decoration.Decoration, openStart, openEnd bool) {
	b.expectPos("point", from)
	var open Open
	if openStart {
		open |= OpenStart
	}
	if openEnd {
		open |= OpenEnd
	}
	spec := d.Spec()

	switch {
	case d.Kind() == decoration.KindLine:
		attrs := SpecAttrs(spec)
		if b.cur != nil {
			b.cur.Attrs = Combine(b.cur.Attrs, attrs)
		} else {
			b.pendingAttrs = Combine(b.pendingAttrs, attrs)
		}
		return

	case d.Block():
		b.closeMarks()
		switch {
		case from == to && d.StartSide() > 0:
			// A widget placed after the line needs the line to exist.
			b.ensureLine()
			b.cur, b.pending = nil, false
		case from == to:
			if b.cur != nil {
				b.cur, b.pending = nil, false
			}
		default:
			b.cur, b.pending = nil, false
		}
		height := -1.0
		if w := d.Widget(); w != nil {
			height = w.EstimatedHeight()
		}
		b.content = append(b.content, &BlockWidget{
			Widget: d.Widget(),
			Len:    to - from,
			Open:   open,
			Height: height,
			Gap:    spec.Gap,
		})
		b.started = true
		b.skip(to - from)

	default:
		b.ensureLine()
		b.syncMarks(active)
		b.appendInline(&InlineWidget{Widget: d.Widget(), Len: to - from, Open: open, Side: spec.Side})
		b.skip(to - from)
	}
}

func (b *builder) expectPos(op string, pos int) {
	if pos != b.pos {
		panic(&InvariantError{Op: op, Pos: pos, Msg: "content out of order"})
	}
}

// next loads the next document segment, panicking if the document ended.
func (b *builder) next() {
	if b.seg != "" || b.segBrk {
		return
	}
	if !b.it.Next() {
		panic(&InvariantError{Op: "build", Pos: b.pos, Msg: "ran out of document text"})
	}
	if b.it.LineBreak() {
		b.segBrk = true
	} else {
		b.seg = b.it.Value()
	}
}

// text emits n positions of document text with the given active marks.
func (b *builder) text(n int, active []decoration.Decoration) {
	for n > 0 {
		b.next()
		if b.segBrk {
			b.segBrk = false
			b.lineBreak()
			b.pos++
			n--
			continue
		}
		take := min(n, len(b.seg), b.maxRun)
		if take == b.maxRun && take < len(b.seg) {
			for take > 1 && !utf8.RuneStart(b.seg[take]) {
				take--
			}
		}
		b.ensureLine()
		b.syncMarks(active)
		b.appendText(b.seg[:take])
		b.seg = b.seg[take:]
		b.pos += take
		n -= take
	}
}

// skip consumes n positions of hidden text.
func (b *builder) skip(n int) {
	for n > 0 {
		b.next()
		if b.segBrk {
			b.segBrk = false
			b.pos++
			n--
			continue
		}
		take := min(n, len(b.seg))
		b.seg = b.seg[take:]
		b.pos += take
		n -= take
	}
}

func (b *builder) lineBreak() {
	b.closeMarks()
	switch {
	case b.cur != nil:
		b.cur.BreakAfter = true
	case b.pending && !b.started && b.midLine:
		b.breakAtStart = true
	case b.pending:
		b.ensureLine()
		b.cur.BreakAfter = true
	default:
		if w, ok := b.content[len(b.content)-1].(*BlockWidget); ok {
			w.BreakAfter = true
		}
	}
	b.cur, b.pending, b.started = nil, true, true
}

func (b *builder) ensureLine() {
	if b.cur != nil {
		return
	}
	b.cur = &Line{Attrs: b.pendingAttrs}
	b.pendingAttrs = nil
	b.content = append(b.content, b.cur)
	b.pending = false
	b.started = true
}

// syncMarks makes the open mark stack of the current line match active.
func (b *builder) syncMarks(active []decoration.Decoration) {
	k := 0
	for k < len(b.stack) && k < len(active) && b.stack[k].deco.Eq(active[k]) {
		k++
	}
	for len(b.stack) > k {
		b.closeTop()
	}
	for _, d := range active[k:] {
		m := &Mark{Attrs: b.reg.Mark(d.Spec())}
		if d.From() < b.pos {
			m.Open |= OpenStart
		}
		b.appendInline(m)
		b.stack = append(b.stack, openMark{deco: d, node: m})
	}
}

func (b *builder) closeTop() {
	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if top.deco.To() > b.pos {
		top.node.Open |= OpenEnd
	}
}

func (b *builder) closeMarks() {
	for len(b.stack) > 0 {
		b.closeTop()
	}
}

func (b *builder) appendInline(n Inline) {
	if k := len(b.stack); k > 0 {
		m := b.stack[k-1].node
		m.Children = append(m.Children, n)
		return
	}
	b.cur.Children = append(b.cur.Children, n)
}

func (b *builder) appendText(s string) {
	b.appendInline(&Text{Text: s})
}

func (b *builder) finish() {
	b.closeMarks()
	if b.pos != b.to {
		panic(&InvariantError{Op: "build", Pos: b.pos, Msg: "build stopped before the end of the range"})
	}
	if b.pending && b.cur == nil {
		b.ensureLine()
	}
	if len(b.content) == 0 {
		b.ensureLine()
	}
}
