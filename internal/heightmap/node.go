package heightmap

type kind uint8

const (
	kindLine kind = iota
	kindBlock
	kindGap
	kindBranch
)

// node is a leaf or a branch of the height tree. Leaves are immutable once
// they are part of a tree; updates copy them.
type node struct {
	kind   kind
	size   int // positions covered, trailing breaks included
	height float64
	count  int // leaves

	// Leaves.
	length    int // excluding the trailing break
	brk       bool
	lines     int     // gap: lines covered
	collapsed int     // line: positions hidden by inline replacements
	widget    float64 // line: tallest inline widget
	inline    bool    // line: holds inline widgets or replacements
	typ       BlockType
	measured  bool

	left, right *node
}

func newLeaf(n node) *node {
	n.size = n.length
	if n.brk {
		n.size++
	}
	n.count = 1
	return &n
}

func newBranch(l, r *node) *node {
	return &node{
		kind:   kindBranch,
		size:   l.size + r.size,
		height: l.height + r.height,
		count:  l.count + r.count,
		left:   l,
		right:  r,
	}
}

// of builds a balanced tree over leaves.
func of(leaves []*node) *node {
	switch len(leaves) {
	case 0:
		return nil
	case 1:
		return leaves[0]
	}
	mid := len(leaves) / 2
	return newBranch(of(leaves[:mid]), of(leaves[mid:]))
}

// join combines two subtrees, rebuilding them when one outweighs the
// other by too much.
func join(l, r *node) *node {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	case l.count > 2*r.count+2 || r.count > 2*l.count+2:
		return of(collect(collect(nil, l), r))
	}
	return newBranch(l, r)
}

func collect(out []*node, n *node) []*node {
	if n == nil {
		return out
	}
	if n.kind != kindBranch {
		return append(out, n)
	}
	return collect(collect(out, n.left), n.right)
}

// replace substitutes repl for the leaves [i, j) of n.
func replace(n *node, i, j int, repl []*node) *node {
	if n == nil {
		return of(repl)
	}
	if n.kind == kindBranch {
		lc := n.left.count
		switch {
		case i < lc && j <= lc:
			return join(replace(n.left, i, j, repl), n.right)
		case i >= lc:
			return join(n.left, replace(n.right, i-lc, j-lc, repl))
		}
	}
	leaves := collect(nil, n)
	out := make([]*node, 0, len(leaves)-(j-i)+len(repl))
	out = append(out, leaves[:i]...)
	out = append(out, repl...)
	out = append(out, leaves[j:]...)
	return of(out)
}

// cursor locates a leaf in a tree.
type cursor struct {
	leaf  *node
	index int
	pos   int
	top   float64
}

// leafAt returns the leaf with index i.
func leafAt(n *node, i int) cursor {
	c := cursor{index: i}
	for n.kind == kindBranch {
		if i < n.left.count {
			n = n.left
			continue
		}
		i -= n.left.count
		c.pos += n.left.size
		c.top += n.left.height
		n = n.right
	}
	c.leaf = n
	return c
}

// leafAtPos returns the leaf covering pos. A position on a trailing break
// belongs to the leaf before the break, and positions past the end to the
// last leaf.
func leafAtPos(n *node, pos int) cursor {
	var c cursor
	for n.kind == kindBranch {
		if pos < c.pos+n.left.size {
			n = n.left
			continue
		}
		c.index += n.left.count
		c.pos += n.left.size
		c.top += n.left.height
		n = n.right
	}
	c.leaf = n
	return c
}

// leafAtHeight returns the leaf whose vertical extent holds h, clamped to
// the first and last leaves.
func leafAtHeight(n *node, h float64) cursor {
	var c cursor
	for n.kind == kindBranch {
		if h < c.top+n.left.height {
			n = n.left
			continue
		}
		c.index += n.left.count
		c.pos += n.left.size
		c.top += n.left.height
		n = n.right
	}
	c.leaf = n
	return c
}

// walk calls fn for the leaves overlapping [from, to] in order, until fn
// returns false. at locates the first leaf of n; a leaf starting at pos
// covers [pos, pos+length].
func walk(n *node, at cursor, from, to int, fn func(c cursor) bool) bool {
	if n.kind != kindBranch {
		if at.pos > to || at.pos+n.length < from {
			return true
		}
		at.leaf = n
		return fn(at)
	}
	right := cursor{index: at.index + n.left.count, pos: at.pos + n.left.size, top: at.top + n.left.height}
	if from <= right.pos && !walk(n.left, at, from, to, fn) {
		return false
	}
	if to < right.pos {
		return true
	}
	return walk(n.right, right, from, to, fn)
}
