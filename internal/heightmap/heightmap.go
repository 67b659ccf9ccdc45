package heightmap

import (
	"fmt"
	"math"

	"github.com/dshills/scrivener/internal/change"
	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/text"
)

// Map is an immutable height map.
type Map struct {
	root *node
}

// MeasuredHeights are the heights of consecutive blocks starting at From,
// as reported by the surface.
type MeasuredHeights struct {
	From    int
	Heights []float64
}

// New builds a map of the oracle's document with estimated heights.
func New(sets []*decoration.Set, o *Oracle) *Map {
	return &Map{root: of(build(sets, o, 0, o.Doc().Len(), false))}
}

// Length returns the number of positions covered.
func (m *Map) Length() int { return m.root.size }

// Height returns the total height.
func (m *Map) Height() float64 { return m.root.height }

// Leaves returns the number of leaves.
func (m *Map) Leaves() int { return m.root.count }

type region struct {
	fromA, toA int
	fromB, toB int
	i, j       int // leaf indices, inclusive
}

// ApplyChanges returns a map of the oracle's document, which must be the
// result of applying changes to oldDoc. Only the leaves of the line groups
// touched by changes are rebuilt; measured heights elsewhere survive.
func (m *Map) ApplyChanges(sets []*decoration.Set, oldDoc text.Text, o *Oracle, changes []change.ChangedRange) *Map {
	if oldDoc.Len() != m.Length() {
		panic(&InvariantError{Op: "apply", Msg: fmt.Sprintf("map covers %d positions, document %d", m.Length(), oldDoc.Len())})
	}
	if len(changes) == 0 {
		return m
	}
	regs := m.regions(changes, sets)
	root := m.root
	for i := len(regs) - 1; i >= 0; i-- {
		r := regs[i]
		brk := leafAt(m.root, r.j).leaf.brk
		root = replace(root, r.i, r.j+1, build(sets, o, r.fromB, r.toB, brk))
	}
	if root.size != o.Doc().Len() {
		panic(&InvariantError{Op: "apply", Msg: fmt.Sprintf("map covers %d positions after update, document %d", root.size, o.Doc().Len())})
	}
	return &Map{root: root}
}

func (m *Map) regions(changes []change.ChangedRange, sets []*decoration.Set) []region {
	regs := make([]region, 0, len(changes))
	for _, c := range changes {
		r := m.expand(region{fromA: c.FromA, toA: c.ToA, fromB: c.FromB, toB: c.ToB}, sets)
		for len(regs) > 0 && r.i <= regs[len(regs)-1].j {
			prev := regs[len(regs)-1]
			regs = regs[:len(regs)-1]
			r = m.expand(region{fromA: prev.fromA, toA: r.toA, fromB: prev.fromB, toB: r.toB}, sets)
		}
		regs = append(regs, r)
	}
	return regs
}

// expand widens r to the line groups it touches, and further while a
// replaced range crosses one of its edges.
func (m *Map) expand(r region, sets []*decoration.Set) region {
	for {
		i, from := m.groupStart(r.fromA)
		j, to := m.groupEnd(r.toA)
		r.fromB -= r.fromA - from
		r.fromA = from
		r.toB += to - r.toA
		r.toA = to
		r.i, r.j = i, j

		grew := false
		if i > 0 && crosses(sets, r.fromB, true) {
			r.fromA--
			r.fromB--
			grew = true
		}
		if j < m.root.count-1 && crosses(sets, r.toB, false) {
			r.toA++
			r.toB++
			grew = true
		}
		if !grew {
			return r
		}
	}
}

// groupStart returns the first leaf and start of the line group holding
// pos.
func (m *Map) groupStart(pos int) (int, int) {
	c := leafAtPos(m.root, pos)
	for c.index > 0 {
		p := leafAt(m.root, c.index-1)
		if p.leaf.brk {
			break
		}
		c = p
	}
	return c.index, c.pos
}

// groupEnd returns the last leaf and end, excluding the break, of the line
// group holding pos.
func (m *Map) groupEnd(pos int) (int, int) {
	c := leafAtPos(m.root, pos)
	for !c.leaf.brk && c.index < m.root.count-1 {
		c = leafAt(m.root, c.index+1)
	}
	return c.index, c.pos + c.leaf.length
}

// crosses reports whether a replaced range covers the break before pos,
// or with before unset, the break at pos.
func crosses(sets []*decoration.Set, pos int, before bool) bool {
	found := false
	for _, s := range sets {
		if s == nil || found {
			continue
		}
		s.Between(pos, pos, func(d decoration.Decoration) bool {
			if d.Kind() != decoration.KindMark {
				if before {
					found = d.From() < pos && d.To() >= pos
				} else {
					found = d.From() <= pos && d.To() > pos
				}
			}
			return !found
		})
	}
	return found
}

// UpdateHeight returns a map with measured heights applied. With force
// set, every height not covered by measured is estimated again, as needed
// after the oracle's metrics change. o.HeightChanged is set when a stored
// height changes.
func (m *Map) UpdateHeight(o *Oracle, force bool, measured *MeasuredHeights) *Map {
	root := m.root
	if force {
		root = reestimate(root, o)
	}
	if measured != nil && len(measured.Heights) > 0 {
		root = applyMeasured(root, o, measured)
	}
	return &Map{root: root}
}

func changedHeight(a, b float64) bool { return math.Abs(a-b) > 0.01 }

func reestimate(root *node, o *Oracle) *node {
	leaves := collect(nil, root)
	pos := 0
	for i, l := range leaves {
		n := *l
		switch n.kind {
		case kindLine:
			n.height = math.Max(n.widget, o.HeightForLine(n.length-n.collapsed))
		case kindGap:
			n.height = o.HeightForGap(pos, pos+n.length)
		}
		n.measured = false
		if changedHeight(n.height, l.height) {
			o.HeightChanged = true
		}
		leaves[i] = &n
		pos += n.size
	}
	return of(leaves)
}

// firstLeafAt returns the first leaf starting at pos, or the leaf holding
// pos when none starts there.
func firstLeafAt(root *node, pos int) cursor {
	c := leafAtPos(root, pos)
	for c.index > 0 {
		p := leafAt(root, c.index-1)
		if p.pos != pos {
			break
		}
		c = p
	}
	return c
}

func applyMeasured(root *node, o *Oracle, m *MeasuredHeights) *node {
	if m.From < 0 || m.From > root.size {
		return root
	}
	doc := o.Doc()
	start := firstLeafAt(root, m.From)
	if start.leaf.kind != kindGap && start.pos != m.From || doc.LineAt(m.From).From != m.From {
		return root
	}
	hs := m.Heights
	var out []*node
	idx := start.index
	for len(hs) > 0 && idx < root.count {
		c := leafAt(root, idx)
		idx++
		l := c.leaf
		if l.kind != kindGap {
			n := *l
			n.height, n.measured = hs[0], true
			if changedHeight(n.height, l.height) {
				o.HeightChanged = true
			}
			out = append(out, &n)
			hs = hs[1:]
			continue
		}

		at, end := max(m.From, c.pos), c.pos+l.length
		if at > c.pos {
			out = append(out, gapLeaf(o, c.pos, at-1, true))
		}
		per := l.height / float64(l.lines)
		for len(hs) > 0 && at <= end {
			line := doc.LineAt(at)
			out = append(out, newLeaf(node{
				kind:     kindLine,
				length:   line.Length(),
				brk:      line.To < end || l.brk,
				height:   hs[0],
				measured: true,
			}))
			if changedHeight(hs[0], per) {
				o.HeightChanged = true
			}
			hs = hs[1:]
			at = line.To + 1
		}
		if at <= end {
			out = append(out, gapLeaf(o, at, end, l.brk))
		}
	}
	return replace(root, start.index, idx, out)
}
