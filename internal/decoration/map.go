package decoration

import (
	"slices"

	"github.com/dshills/scrivener/internal/change"
)

// mapRoot maps the whole tree through ch.
func mapRoot(root *node, ch *change.Set, b int) *node {
	newEnd := ch.MapPos(root.length, 1)
	n, escaped := mapNode(root, 0, 0, newEnd, ch, b)
	if len(escaped) > 0 {
		// Nothing can leave [0, MapPos(length, 1)].
		panic(&InvariantError{Op: "map", Detail: "decoration escaped the root"})
	}
	if n.size == 0 {
		return emptyNode
	}
	return n
}

// mapNode maps the subtree n, which covered [oldStart, oldStart+length)
// and now covers [newStart, newEnd). Decorations that no longer fit are
// returned in absolute new coordinates for the caller to hold.
func mapNode(n *node, oldStart, newStart, newEnd int, ch *change.Set, b int) (*node, []Decoration) {
	oldEnd := oldStart + n.length
	if !ch.Touches(oldStart, oldEnd) && newEnd-newStart == n.length {
		return n, nil
	}

	var local, escaped []Decoration
	keep := func(d Decoration) {
		if d.from >= newStart && d.to <= newEnd {
			local = append(local, d.move(-newStart))
		} else {
			escaped = append(escaped, d)
		}
	}
	for _, d := range n.local {
		if md, ok := mapDecoration(d.move(oldStart), ch); ok {
			keep(md)
		}
	}

	var children []*node
	size := 0
	childOld, childNew := oldStart, newStart
	for _, c := range n.children {
		cOldEnd := childOld + c.length
		cNewEnd := newEnd
		if cOldEnd != oldEnd {
			cNewEnd = min(max(ch.MapPos(cOldEnd, 1), childNew), newEnd)
		}
		nc, esc := mapNode(c, childOld, childNew, cNewEnd, ch, b)
		for _, d := range esc {
			keep(d)
		}
		if nc.size > 0 || nc.length > 0 {
			children = append(children, nc)
			size += nc.size
		}
		childOld, childNew = cOldEnd, cNewEnd
	}
	slices.SortStableFunc(local, compare)
	size += len(local)

	out := &node{length: newEnd - newStart, size: size, local: local, children: children}
	if len(children) > 0 && size <= b {
		all := collectSorted(out, 0)
		out = leaf(all, 0)
		out.length = newEnd - newStart
	}
	return out, escaped
}

// mapDecoration maps an absolute decoration through ch, reporting false
// when the decoration was deleted.
func mapDecoration(d Decoration, ch *change.Set) (Decoration, bool) {
	if d.from == d.to {
		pos := ch.MapPosMode(d.from, startAssoc(d), change.TrackDel)
		if pos == change.Deleted {
			return d, false
		}
		to := pos
		if d.startSide != d.endSide {
			to = ch.MapPos(d.from, endAssoc(d))
			if to < pos {
				return d, false
			}
		}
		d.from, d.to = pos, to
		return d, true
	}
	from := ch.MapPos(d.from, startAssoc(d))
	to := ch.MapPos(d.to, endAssoc(d))
	if from > to || (from == to && d.startSide > 0 && d.endSide <= 0) {
		return d, false
	}
	d.from, d.to = from, to
	return d, true
}
