package decoration

import "slices"

// cursor walks the decorations of a set touching [lo, hi] in order of
// start position. It descends the tree lazily and never collects more
// than the decorations sharing one start position.
type cursor struct {
	root   *frame
	lo, hi int
}

// frame is one node on the cursor's path. It merges the node's local
// decorations with the concatenated output of its children.
type frame struct {
	n        *node
	offset   int
	local    int
	child    int
	childPos int
	sub      *frame
}

func (s *Set) cursor(lo, hi int) *cursor {
	return &cursor{root: &frame{n: s.root}, lo: lo, hi: hi}
}

// batch consumes and returns the decorations starting at the next start
// position, sorted. It returns nil when the cursor is exhausted.
func (c *cursor) batch() []Decoration {
	d, ok := c.root.next(c.lo, c.hi)
	if !ok {
		return nil
	}
	out := []Decoration{d}
	for {
		e, ok := c.root.peek(c.lo, c.hi)
		if !ok || e.from != d.from {
			break
		}
		c.root.next(c.lo, c.hi)
		out = append(out, e)
	}
	slices.SortStableFunc(out, compare)
	return out
}

// nextLocal returns the first local decoration touching [lo, hi] without
// consuming it.
func (f *frame) nextLocal(lo, hi int) (Decoration, bool) {
	for f.local < len(f.n.local) {
		d := f.n.local[f.local].move(f.offset)
		if d.from > hi {
			f.local = len(f.n.local)
			break
		}
		if d.to >= lo {
			return d, true
		}
		f.local++
	}
	return Decoration{}, false
}

// nextChild returns the first decoration of the remaining children
// without consuming it.
func (f *frame) nextChild(lo, hi int) (Decoration, bool) {
	for {
		if f.sub != nil {
			if d, ok := f.sub.peek(lo, hi); ok {
				return d, true
			}
			f.sub = nil
		}
		if f.child == len(f.n.children) {
			return Decoration{}, false
		}
		c, pos := f.n.children[f.child], f.childPos
		f.child++
		f.childPos += c.length
		if pos > hi {
			f.child = len(f.n.children)
			return Decoration{}, false
		}
		if pos+c.length >= lo {
			f.sub = &frame{n: c, offset: pos, childPos: pos}
		}
	}
}

func (f *frame) peek(lo, hi int) (Decoration, bool) {
	d, _, ok := f.head(lo, hi)
	return d, ok
}

func (f *frame) next(lo, hi int) (Decoration, bool) {
	d, fromLocal, ok := f.head(lo, hi)
	switch {
	case !ok:
	case fromLocal:
		f.local++
	default:
		f.sub.next(lo, hi)
	}
	return d, ok
}

// head returns the next decoration of the frame and whether it is one of
// the node's locals. Locals win ties so that a node's own decorations
// precede those of children starting at the same position.
func (f *frame) head(lo, hi int) (Decoration, bool, bool) {
	l, lok := f.nextLocal(lo, hi)
	c, cok := f.nextChild(lo, hi)
	switch {
	case lok && (!cok || l.from <= c.from):
		return l, true, true
	case cok:
		return c, false, true
	}
	return Decoration{}, false, false
}
