package decoration

import (
	"math"
	"math/bits"
	"slices"

	"github.com/dshills/scrivener/internal/change"
)

// DefaultLeafSize is the default number of decorations a leaf holds before
// it is split into children.
const DefaultLeafSize = 8

// Set is an immutable set of decorations stored in a balanced tree keyed by
// position. Updating a set returns a new set that shares every untouched
// subtree with the original.
type Set struct {
	root *node
	b    int
}

// node is a tree node. Children tile [0, sum of child lengths) in order.
// local holds the decorations that were not placed in a single child, with
// positions relative to the node start.
type node struct {
	length   int
	size     int
	local    []Decoration
	children []*node
}

var emptyNode = &node{}

// Empty returns an empty set with the default leaf size.
func Empty() *Set {
	return EmptySized(DefaultLeafSize)
}

// EmptySized returns an empty set with leaf size b. Values below 2 are
// raised to 2.
func EmptySized(b int) *Set {
	return &Set{root: emptyNode, b: max(b, 2)}
}

// Of creates a set holding decos. The input need not be sorted.
func Of(decos ...Decoration) *Set {
	return Empty().Update(UpdateSpec{Add: decos})
}

// OfSized is like Of with leaf size b.
func OfSized(b int, decos ...Decoration) *Set {
	return EmptySized(b).Update(UpdateSpec{Add: decos})
}

// UpdateSpec describes an update to a set.
type UpdateSpec struct {
	// Add holds decorations to add, in new document coordinates.
	Add []Decoration
	// Filter, when set, is called for existing decorations touching
	// [FilterFrom, FilterTo]. Decorations for which it returns false are
	// removed. A zero FilterTo means the end of the set.
	Filter     func(from, to int, d Decoration) bool
	FilterFrom int
	FilterTo   int
	// Changes, when set, maps existing decorations through an edit before
	// filtering and adding.
	Changes *change.Set
}

type filter struct {
	fn       func(from, to int, d Decoration) bool
	from, to int
}

func (f *filter) touches(from, to int) bool {
	return f != nil && to >= f.from && from <= f.to
}

// Update returns a new set with u applied.
func (s *Set) Update(u UpdateSpec) *Set {
	root := s.root
	if u.Changes != nil && !u.Changes.Empty() {
		root = mapRoot(root, u.Changes, s.b)
	}
	if len(u.Add) == 0 && u.Filter == nil {
		if root == s.root {
			return s
		}
		return &Set{root: root, b: s.b}
	}
	added := slices.Clone(u.Add)
	slices.SortStableFunc(added, compare)
	var f *filter
	if u.Filter != nil {
		f = &filter{fn: u.Filter, from: u.FilterFrom, to: u.FilterTo}
		if f.to == 0 {
			f.to = math.MaxInt
		}
	}
	root = root.update(added, f, 0, s.b)
	if root.size == 0 && len(root.children) == 0 && root.length == 0 {
		root = emptyNode
	}
	return &Set{root: root, b: s.b}
}

// Map maps every decoration through changes.
func (s *Set) Map(changes *change.Set) *Set {
	return s.Update(UpdateSpec{Changes: changes})
}

// Size returns the number of decorations.
func (s *Set) Size() int { return s.root.size }

// Len returns the extent of the set: the largest end position of any
// decoration it has held since its last rebuild.
func (s *Set) Len() int { return s.root.length }

// Empty reports whether the set holds no decorations.
func (s *Set) Empty() bool { return s.root.size == 0 }

// childSize returns the target size for new child subtrees of a node
// holding size decorations.
func childSize(size, b int) int {
	return max(b, size>>bits.Len(uint(b-1)))
}

// build creates a subtree for sorted absolute decorations starting at offset.
func build(decos []Decoration, offset, b int) *node {
	if len(decos) <= b {
		return leaf(decos, offset)
	}
	n := &node{size: len(decos)}
	n.local, n.children = group(decos, offset, childSize(len(decos), b), b)
	n.length = extent(n)
	return n
}

// group distributes sorted absolute decorations into new children laid out
// from pos, each holding at most size decorations. Decorations starting
// before the end of the previous child are returned as spill, relative to
// offset.
func group(decos []Decoration, pos, size, b int) (spill []Decoration, children []*node) {
	offset := pos
	for i := 0; i < len(decos); {
		var batch []Decoration
		end := pos
		for i < len(decos) && len(batch) < size {
			d := decos[i]
			i++
			if d.from < pos {
				spill = append(spill, d.move(-offset))
				continue
			}
			batch = append(batch, d)
			end = max(end, d.to)
		}
		if len(batch) == 0 {
			continue
		}
		c := build(batch, pos, b)
		c.length = end - pos
		children = append(children, c)
		pos = end
	}
	slices.SortStableFunc(spill, compare)
	return spill, children
}

func leaf(decos []Decoration, offset int) *node {
	if len(decos) == 0 {
		return &node{}
	}
	n := &node{size: len(decos), local: make([]Decoration, len(decos))}
	for i, d := range decos {
		n.local[i] = d.move(-offset)
		n.length = max(n.length, n.local[i].to)
	}
	return n
}

// extent returns the length n needs to cover its children and locals.
func extent(n *node) int {
	l := 0
	for _, c := range n.children {
		l += c.length
	}
	for _, d := range n.local {
		l = max(l, d.to)
	}
	return l
}

// update adds sorted absolute decorations (all within the node or starting
// at or after its children) and applies f.
func (n *node) update(added []Decoration, f *filter, offset, b int) *node {
	if len(added) == 0 && !f.touches(offset, offset+n.length) {
		return n
	}
	local := n.local
	if f.touches(offset, offset+n.length) {
		local = filterLocal(n.local, f, offset)
	}

	if len(n.children) == 0 {
		merged := mergeSorted(local, added, offset)
		var out *node
		if len(merged) <= b {
			out = &node{size: len(merged), local: merged}
		} else {
			abs := make([]Decoration, len(merged))
			for i, d := range merged {
				abs[i] = d.move(offset)
			}
			out = build(abs, offset, b)
		}
		out.length = max(n.length, extent(out))
		return out
	}

	var children []*node
	var extra []Decoration
	size, pos, ai := 0, offset, 0
	for i, c := range n.children {
		end := pos + c.length
		var sub []Decoration
		for ai < len(added) && added[ai].from < end {
			d := added[ai]
			ai++
			if d.to > end {
				extra = append(extra, d)
			} else {
				sub = append(sub, d)
			}
		}
		nc := c
		if len(sub) > 0 || f.touches(pos, end) {
			nc = c.update(sub, f, pos, b)
		}
		if nc != c && children == nil {
			children = slices.Clone(n.children[:i])
		}
		if children != nil {
			children = append(children, nc)
		}
		size += nc.size
		pos = end
	}
	if children == nil {
		children = slices.Clone(n.children)
	}
	if len(extra) > 0 {
		local = mergeSorted(local, extra, offset)
	}
	remaining := added[ai:]

	total := size + len(local) + len(remaining)
	if total <= b {
		all := collectInto(nil, &node{children: children, local: local}, offset)
		all = append(all, remaining...)
		slices.SortStableFunc(all, compare)
		out := leaf(all, offset)
		out.length = max(out.length, n.length)
		return out
	}

	cs := childSize(total, b)
	if len(remaining) > 0 {
		spill, more := group(remaining, pos, cs, b)
		if len(spill) > 0 {
			// group returns spill relative to pos; rebase onto the node.
			for i := range spill {
				spill[i] = spill[i].move(pos - offset)
			}
			local = append(slices.Clone(local), spill...)
			slices.SortStableFunc(local, compare)
		}
		children = append(children, more...)
	}
	out := &node{size: total, local: local, children: children}
	out.length = max(n.length, extent(out))
	out.rebalance(b, cs)
	return out
}

// rebalance merges undersized neighbouring leaves, rebuilds children whose
// local lists dominate them, and groups runs of small children under a new
// branch.
func (n *node) rebalance(b, cs int) {
	var out []*node
	for _, c := range n.children {
		if c.size == 0 && c.length == 0 {
			continue
		}
		if len(c.children) > 0 && len(c.local)*2 > c.size {
			// Unwrap: redistribute the child's decorations from scratch.
			rebuilt := build(collectSorted(c, 0), 0, b)
			rebuilt.length = c.length
			c = rebuilt
		}
		if k := len(out); k > 0 {
			prev := out[k-1]
			if len(prev.children) == 0 && len(c.children) == 0 && prev.size+c.size <= b {
				out[k-1] = joinLeaves(prev, c)
				continue
			}
		}
		out = append(out, c)
	}
	if len(out) > 2*b {
		out = groupSmall(out, cs)
	}
	n.children = out
}

func joinLeaves(a, b *node) *node {
	local := make([]Decoration, 0, len(a.local)+len(b.local))
	local = append(local, a.local...)
	for _, d := range b.local {
		local = append(local, d.move(a.length))
	}
	slices.SortStableFunc(local, compare)
	return &node{length: a.length + b.length, size: a.size + b.size, local: local}
}

// groupSmall wraps runs of consecutive children whose combined size stays
// within cs into branch nodes.
func groupSmall(children []*node, cs int) []*node {
	var out, run []*node
	runSize := 0
	flush := func() {
		switch len(run) {
		case 0:
		case 1:
			out = append(out, run[0])
		default:
			g := &node{children: run}
			for _, c := range run {
				g.length += c.length
				g.size += c.size
			}
			out = append(out, g)
		}
		run, runSize = nil, 0
	}
	for _, c := range children {
		if c.size >= cs {
			flush()
			out = append(out, c)
			continue
		}
		if runSize+c.size > cs {
			flush()
		}
		run = append(run, c)
		runSize += c.size
	}
	flush()
	return out
}

// filterLocal returns local without the decorations f rejects. It returns
// local itself when nothing is removed.
func filterLocal(local []Decoration, f *filter, offset int) []Decoration {
	var out []Decoration
	for i, d := range local {
		abs := d.move(offset)
		keep := !f.touches(abs.from, abs.to) || f.fn(abs.from, abs.to, abs)
		if !keep && out == nil {
			out = slices.Clone(local[:i])
		} else if keep && out != nil {
			out = append(out, d)
		}
	}
	if out == nil {
		return local
	}
	return out
}

// mergeSorted merges sorted relative decorations with sorted absolute
// decorations, rebasing the latter by -offset.
func mergeSorted(local, added []Decoration, offset int) []Decoration {
	if len(added) == 0 {
		return local
	}
	out := make([]Decoration, 0, len(local)+len(added))
	i, j := 0, 0
	for i < len(local) || j < len(added) {
		if j == len(added) || (i < len(local) && compare(local[i], added[j].move(-offset)) <= 0) {
			out = append(out, local[i])
			i++
		} else {
			out = append(out, added[j].move(-offset))
			j++
		}
	}
	return out
}

// collectInto appends every decoration under n, in absolute coordinates.
func collectInto(out []Decoration, n *node, offset int) []Decoration {
	for _, d := range n.local {
		out = append(out, d.move(offset))
	}
	pos := offset
	for _, c := range n.children {
		out = collectInto(out, c, pos)
		pos += c.length
	}
	return out
}

func collectSorted(n *node, offset int) []Decoration {
	out := collectInto(make([]Decoration, 0, n.size), n, offset)
	slices.SortStableFunc(out, compare)
	return out
}
