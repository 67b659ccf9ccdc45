package text

import (
	"strings"
	"unicode/utf8"
)

// Tree shape constants.
const (
	// maxChildren is the maximum children per internal node before splitting.
	maxChildren = 8

	// maxChunk is the maximum bytes per leaf chunk.
	maxChunk = 512

	// targetChunk is the preferred chunk size when building.
	targetChunk = 384
)

// summary holds aggregated metrics for a subtree.
type summary struct {
	bytes  int
	breaks int
}

func (s summary) add(o summary) summary {
	return summary{bytes: s.bytes + o.bytes, breaks: s.breaks + o.breaks}
}

// node is a node of the text tree. Leaves (height == 0) hold a chunk;
// internal nodes hold children.
type node struct {
	height   uint8
	sum      summary
	chunk    string
	children []*node
}

func newLeaf(s string) *node {
	return &node{chunk: s, sum: summary{bytes: len(s), breaks: strings.Count(s, "\n")}}
}

func newInternal(children []*node) *node {
	if len(children) == 0 {
		return newLeaf("")
	}
	n := &node{height: children[0].height + 1, children: children}
	for _, c := range children {
		n.sum = n.sum.add(c.sum)
	}
	return n
}

func (n *node) isLeaf() bool {
	return n.height == 0
}

// chunksOf splits s into chunks no longer than maxChunk, cutting on UTF-8
// boundaries and preferring to cut just after a line break.
func chunksOf(s string) []string {
	if len(s) <= maxChunk {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var out []string
	for len(s) > maxChunk {
		cut := targetChunk
		if nl := strings.LastIndexByte(s[:maxChunk], '\n'); nl >= targetChunk/2 {
			cut = nl + 1
		}
		for c := cut; c > cut-utf8.UTFMax && c > 0; c-- {
			if utf8.RuneStart(s[c]) {
				cut = c
				break
			}
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// build creates a balanced tree from leaf chunks.
func build(chunks []string) *node {
	if len(chunks) == 0 {
		return newLeaf("")
	}
	nodes := make([]*node, len(chunks))
	for i, c := range chunks {
		nodes[i] = newLeaf(c)
	}
	return fromChildren(nodes)
}

// fromChildren builds a balanced tree over nodes of equal height.
func fromChildren(nodes []*node) *node {
	for len(nodes) > 1 {
		parents := make([]*node, 0, (len(nodes)+maxChildren-1)/maxChildren)
		for i := 0; i < len(nodes); i += maxChildren {
			end := min(i+maxChildren, len(nodes))
			parents = append(parents, newInternal(append([]*node(nil), nodes[i:end]...)))
		}
		nodes = parents
	}
	if len(nodes) == 0 {
		return newLeaf("")
	}
	return nodes[0]
}

// split splits n at byte offset pos into [0, pos) and [pos, len).
func (n *node) split(pos int) (*node, *node) {
	if pos <= 0 {
		return newLeaf(""), n
	}
	if pos >= n.sum.bytes {
		return n, newLeaf("")
	}
	if n.isLeaf() {
		return newLeaf(n.chunk[:pos]), newLeaf(n.chunk[pos:])
	}

	var left, right []*node
	off := 0
	for _, c := range n.children {
		end := off + c.sum.bytes
		switch {
		case end <= pos:
			left = append(left, c)
		case off >= pos:
			right = append(right, c)
		default:
			l, r := c.split(pos - off)
			if l.sum.bytes > 0 {
				left = append(left, l)
			}
			if r.sum.bytes > 0 {
				right = append(right, r)
			}
		}
		off = end
	}
	return join(left), join(right)
}

// join concatenates a run of nodes of possibly different heights.
func join(nodes []*node) *node {
	var out *node
	for _, n := range nodes {
		out = concat(out, n)
	}
	if out == nil {
		return newLeaf("")
	}
	return out
}

// concat concatenates two nodes, keeping the tree balanced.
func concat(left, right *node) *node {
	if left == nil || left.sum.bytes == 0 {
		if right == nil {
			return newLeaf("")
		}
		return right
	}
	if right == nil || right.sum.bytes == 0 {
		return left
	}

	if left.isLeaf() && right.isLeaf() {
		if left.sum.bytes+right.sum.bytes <= maxChunk {
			return newLeaf(left.chunk + right.chunk)
		}
		return newInternal([]*node{left, right})
	}

	switch {
	case left.height > right.height:
		last := len(left.children) - 1
		merged := concat(left.children[last], right)
		children := append(append([]*node(nil), left.children[:last]...), lift(merged, left.height-1)...)
		return regroup(children)
	case right.height > left.height:
		merged := concat(left, right.children[0])
		children := append(lift(merged, right.height-1), right.children[1:]...)
		return regroup(children)
	default:
		children := append(append([]*node(nil), left.children...), right.children...)
		return regroup(children)
	}
}

// lift returns the children that should sit at height h+1 for n: n itself
// when it has height h, or its children when concat grew it by one level.
func lift(n *node, h uint8) []*node {
	if n.height > h {
		return n.children
	}
	return []*node{n}
}

// regroup builds a parent over children of equal height, splitting into two
// levels when there are too many.
func regroup(children []*node) *node {
	if len(children) <= maxChildren {
		return newInternal(children)
	}
	half := len(children) / 2
	return newInternal([]*node{
		newInternal(append([]*node(nil), children[:half]...)),
		newInternal(append([]*node(nil), children[half:]...)),
	})
}

// appendRange appends the text in [from, to) to sb.
func (n *node) appendRange(sb *strings.Builder, from, to int) {
	if from >= to {
		return
	}
	if n.isLeaf() {
		sb.WriteString(n.chunk[from:to])
		return
	}
	off := 0
	for _, c := range n.children {
		end := off + c.sum.bytes
		if end > from && off < to {
			c.appendRange(sb, max(from, off)-off, min(to, end)-off)
		}
		if end >= to {
			break
		}
		off = end
	}
}

// breaksBefore counts line breaks in [0, pos).
func (n *node) breaksBefore(pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= n.sum.bytes {
		return n.sum.breaks
	}
	if n.isLeaf() {
		return strings.Count(n.chunk[:pos], "\n")
	}
	count := 0
	for _, c := range n.children {
		if pos < c.sum.bytes {
			return count + c.breaksBefore(pos)
		}
		pos -= c.sum.bytes
		count += c.sum.breaks
	}
	return count
}

// lineStart returns the offset just after the k-th line break (k >= 1),
// or 0 for k == 0.
func (n *node) lineStart(k int) int {
	if k <= 0 {
		return 0
	}
	off := 0
	for !n.isLeaf() {
		var next *node
		for _, c := range n.children {
			if c.sum.breaks >= k {
				next = c
				break
			}
			k -= c.sum.breaks
			off += c.sum.bytes
		}
		if next == nil {
			return off
		}
		n = next
	}
	idx := 0
	for i := 0; i < k; i++ {
		j := strings.IndexByte(n.chunk[idx:], '\n')
		if j < 0 {
			return off + len(n.chunk)
		}
		idx += j + 1
	}
	return off + idx
}
