package docview

import (
	"maps"
	"slices"
	"sort"

	"github.com/dshills/scrivener/internal/change"
	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/text"
)

// group is a run of root blocks not separated by a line break. Groups are
// the unit of block-level reconciliation: a build that starts and ends at
// group edges produces exactly the blocks a full build would.
type group struct {
	first, last int // indices into the root's children
	from, to    int // document range, excluding the break after the group
}

// region is a changed range widened to group edges, in old (A) and new (B)
// document coordinates.
type region struct {
	fromA, toA int
	fromB, toB int
	g1, g2     int
	raw        change.ChangedRange
	n          int
}

func (t *Tree) buildOptions() content.Options {
	return content.Options{MaxTextRun: t.opts.MaxTextRun, Registry: t.opts.Registry}
}

// Reset rebuilds the tree from scratch for doc and sets, releasing every
// existing node.
func (t *Tree) Reset(doc text.Text, sets []*decoration.Set) {
	t.stats = Stats{}
	for _, c := range t.nodes[t.root].children {
		t.release(c)
	}
	res := content.Build(doc, 0, doc.Len(), sets, t.buildOptions())
	ids := make([]NodeID, len(res.Content))
	for i, b := range res.Content {
		ids[i] = t.createBlock(b)
	}
	t.setChildren(t.root, ids)
	t.markDirty(t.root, NodeDirty)
}

// Update patches the tree so that it mirrors a full build of doc with
// sets. changed lists the ranges that differ from the state the tree was
// built for, sorted and non-overlapping, with A coordinates in the
// previous document of length oldLen and B coordinates in doc. It panics
// with an *InvariantError when the tree does not describe oldLen
// positions or a merge is illegal.
func (t *Tree) Update(doc text.Text, changed []change.ChangedRange, sets []*decoration.Set, oldLen int) {
	t.stats = Stats{}
	if len(t.nodes[t.root].children) == 0 {
		t.Reset(doc, sets)
		return
	}
	if t.Len() != oldLen {
		invariant("update", oldLen, "tree covers %d positions", t.Len())
	}
	if len(changed) == 0 {
		return
	}
	gs := t.groups()
	regs := t.regions(gs, changed, sets)
	for i := len(regs) - 1; i >= 0; i-- {
		r := regs[i]
		if r.n == 1 && t.updateLine(doc, gs, r, sets) {
			continue
		}
		t.updateBlocks(doc, gs, r, sets)
	}
	if t.Len() != doc.Len() {
		invariant("update", doc.Len(), "tree covers %d positions after update", t.Len())
	}
}

func (t *Tree) groups() []group {
	children := t.nodes[t.root].children
	gs := make([]group, 0, len(children))
	pos, start, first := 0, 0, 0
	for i, id := range children {
		n := &t.nodes[id]
		pos += n.length
		if !n.breakAfter && i < len(children)-1 {
			continue
		}
		gs = append(gs, group{first: first, last: i, from: start, to: pos})
		if n.breakAfter {
			pos++
		}
		start, first = pos, i+1
	}
	return gs
}

// regions widens changed to group edges and merges the results that share
// a group.
func (t *Tree) regions(gs []group, changed []change.ChangedRange, sets []*decoration.Set) []region {
	regs := make([]region, 0, len(changed))
	for _, c := range changed {
		r := t.expand(gs, region{fromA: c.FromA, toA: c.ToA, fromB: c.FromB, toB: c.ToB, raw: c, n: 1}, sets)
		for len(regs) > 0 && r.fromA <= regs[len(regs)-1].toA {
			prev := regs[len(regs)-1]
			regs = regs[:len(regs)-1]
			r = t.expand(gs, region{fromA: prev.fromA, toA: r.toA, fromB: prev.fromB, toB: r.toB, n: prev.n + r.n}, sets)
		}
		regs = append(regs, r)
	}
	return regs
}

// expand widens r to the edges of the groups it touches, and further while
// a replaced range in the new decorations crosses one of its edges.
func (t *Tree) expand(gs []group, r region, sets []*decoration.Set) region {
	for {
		g1 := sort.Search(len(gs), func(i int) bool { return gs[i].to >= r.fromA })
		g2 := sort.Search(len(gs), func(i int) bool { return gs[i].from > r.toA }) - 1
		g1, g2 = min(g1, len(gs)-1), max(g2, 0)
		r.fromB -= r.fromA - gs[g1].from
		r.fromA = gs[g1].from
		r.toB += gs[g2].to - r.toA
		r.toA = gs[g2].to
		r.g1, r.g2 = g1, g2

		grew := false
		if g1 > 0 && crossesBefore(sets, r.fromB) {
			r.fromA--
			r.fromB--
			grew = true
		}
		if g2 < len(gs)-1 && crossesAfter(sets, r.toB) {
			r.toA++
			r.toB++
			grew = true
		}
		if !grew {
			return r
		}
	}
}

// crossesBefore reports whether a replaced range covers the break before pos.
func crossesBefore(sets []*decoration.Set, pos int) bool {
	return anyDecoration(sets, pos, pos, func(d decoration.Decoration) bool {
		return d.Kind() != decoration.KindMark && d.From() < pos && d.To() >= pos
	})
}

// crossesAfter reports whether a replaced range covers the break at pos.
func crossesAfter(sets []*decoration.Set, pos int) bool {
	return anyDecoration(sets, pos, pos, func(d decoration.Decoration) bool {
		return d.Kind() != decoration.KindMark && d.From() <= pos && d.To() > pos
	})
}

func anyDecoration(sets []*decoration.Set, from, to int, pred func(decoration.Decoration) bool) bool {
	found := false
	for _, s := range sets {
		if s == nil {
			continue
		}
		s.Between(from, to, func(d decoration.Decoration) bool {
			found = pred(d)
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

// updateBlocks rebuilds the groups of r and reconciles them with the
// existing blocks.
func (t *Tree) updateBlocks(doc text.Text, gs []group, r region, sets []*decoration.Set) {
	root := t.nodes[t.root].children
	bi, bj := gs[r.g1].first, gs[r.g2].last
	res := content.Build(doc, r.fromB, r.toB, sets, t.buildOptions())
	if res.BreakAtStart {
		invariant("update", r.fromB, "region does not start on a line boundary")
	}
	blocks := res.Content
	setBreak(blocks[len(blocks)-1], t.nodes[root[bj]].breakAfter)

	mid := t.reconcileBlocks(root[bi:bj+1], blocks)
	t.setChildren(t.root, slices.Concat(root[:bi], mid, root[bj+1:]))
}

func setBreak(b content.Block, brk bool) {
	switch b := b.(type) {
	case *content.Line:
		b.BreakAfter = brk
	case *content.BlockWidget:
		b.BreakAfter = brk
	}
}

// updateLine handles a change confined to one line that stays one line.
// Only the top-level inline children touching the change are rebuilt, and
// the rebuilt content is joined with its neighbors where their open edges
// allow. It reports false, without modifying the tree, when the change
// cannot be handled this way.
func (t *Tree) updateLine(doc text.Text, gs []group, r region, sets []*decoration.Set) bool {
	if r.g1 != r.g2 {
		return false
	}
	g := gs[r.g1]
	if g.first != g.last {
		return false
	}
	lineID := t.nodes[t.root].children[g.first]
	if t.nodes[lineID].kind != KindLine {
		return false
	}
	raw := r.raw
	kids := t.nodes[lineID].children

	// Child k covers [starts[k], starts[k+1]].
	starts := make([]int, len(kids)+1)
	starts[0] = g.from
	for k, c := range kids {
		starts[k+1] = starts[k] + t.nodes[c].length
	}
	ci, cj := 0, len(kids)-1
	if len(kids) > 0 {
		ci = sort.Search(len(kids), func(k int) bool { return starts[k+1] >= raw.FromA })
		cj = sort.Search(len(kids), func(k int) bool { return starts[k] > raw.ToA }) - 1
		ci, cj = min(ci, len(kids)-1), max(cj, 0)
		for ci > 0 && t.pointAtEnd(kids[ci-1]) {
			ci--
		}
		for cj < len(kids)-1 && t.pointAtStart(kids[cj+1]) {
			cj++
		}
	}
	a, b := starts[ci], starts[cj+1]
	if len(kids) == 0 {
		a, b = g.from, g.to
	}
	aB := raw.FromB - (raw.FromA - a)
	bB := raw.ToB + (b - raw.ToA)
	if blockLevelNear(sets, aB, bB) {
		return false
	}
	res := content.Build(doc, aB, bB, sets, t.buildOptions())
	if len(res.Content) != 1 || res.BreakAtStart {
		return false
	}
	built, ok := res.Content[0].(*content.Line)
	if !ok || built.BreakAfter {
		return false
	}

	maxJoin := t.opts.MaxJoinLength
	lo, hi := ci, cj
	seq := built.Children
	if ci > 0 {
		lo = ci - 1
		seq = joinSeam([]content.Inline{t.inline(kids[lo])}, seq, maxJoin)
	}
	if cj < len(kids)-1 {
		hi = cj + 1
		seq = joinSeam(seq, []content.Inline{t.inline(kids[hi])}, maxJoin)
	}
	attrs := lineAttrs(sets, aB-(a-g.from), bB+(g.to-b))

	t.stats.Reused++
	mid := t.reconcileInlines(kids[lo:hi+1], seq)
	t.setChildren(lineID, slices.Concat(kids[:lo], mid, kids[hi+1:]))
	if n := &t.nodes[lineID]; !maps.Equal(n.attrs, attrs) {
		n.attrs = attrs
		t.markDirty(lineID, NodeDirty)
	}
	t.fixLengths(t.root)
	return true
}

// blockLevelNear reports whether [from, to] of the new decorations holds
// block-level content, or a replaced range crossing one of its edges.
func blockLevelNear(sets []*decoration.Set, from, to int) bool {
	return anyDecoration(sets, from, to, func(d decoration.Decoration) bool {
		if d.Block() {
			return true
		}
		if d.Kind() == decoration.KindMark {
			return false
		}
		return d.From() < from && from < d.To() || d.From() < to && to < d.To()
	})
}

// pointAtEnd reports whether a zero-length widget sits at the end of id.
func (t *Tree) pointAtEnd(id NodeID) bool {
	n := &t.nodes[id]
	switch n.kind {
	case KindWidget:
		return n.length == 0
	case KindMark:
		for k := len(n.children) - 1; k >= 0; k-- {
			c := n.children[k]
			if t.pointAtEnd(c) {
				return true
			}
			if t.nodes[c].length > 0 {
				return false
			}
		}
	}
	return false
}

// pointAtStart reports whether a zero-length widget sits at the start of id.
func (t *Tree) pointAtStart(id NodeID) bool {
	n := &t.nodes[id]
	switch n.kind {
	case KindWidget:
		return n.length == 0
	case KindMark:
		for _, c := range n.children {
			if t.pointAtStart(c) {
				return true
			}
			if t.nodes[c].length > 0 {
				return false
			}
		}
	}
	return false
}

// lineAttrs collects the attributes of the line decorations that a build
// of [from, to] would attach to the line there.
func lineAttrs(sets []*decoration.Set, from, to int) content.Attrs {
	var c lineAttrCollector
	decoration.Spans(sets, from, to, &c)
	return c.attrs
}

type lineAttrCollector struct {
	attrs content.Attrs
}

func (c *lineAttrCollector) Span(int, int, []decoration.Decoration) {}

func (c *lineAttrCollector) Point(_, _ int, d decoration.Decoration, _ []decoration.Decoration, _, _ bool) {
	if d.Kind() == decoration.KindLine {
		c.attrs = content.Combine(c.attrs, content.SpecAttrs(d.Spec()))
	}
}
