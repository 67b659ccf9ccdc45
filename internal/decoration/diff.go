package decoration

import (
	"slices"

	"github.com/dshills/scrivener/internal/change"
)

// Diff returns the ranges, in new document coordinates, where the layered
// sets prev (mapped through changes) and next decorate the document
// differently. Layers are compared pairwise; a layer present on only one
// side contributes its whole content. The result is sorted, with touching
// ranges joined, and is suitable for change.ExtendWithRanges.
func Diff(prev, next []*Set, changes *change.Set) [][2]int {
	var ranges [][2]int
	for i := 0; i < max(len(prev), len(next)); i++ {
		var a, b *Set
		if i < len(prev) {
			a = prev[i]
		}
		if i < len(next) {
			b = next[i]
		}
		if a != nil && changes != nil && !changes.Empty() {
			a = a.Map(changes)
		}
		if a == b {
			continue
		}
		var an, bn *node = emptyNode, emptyNode
		if a != nil {
			an = a.root
		}
		if b != nil {
			bn = b.root
		}
		ranges = diffNodes(an, bn, 0, ranges)
	}
	return joinRanges(ranges)
}

// diffNodes compares two subtrees at the same offset, skipping shared
// subtrees and descending into pairs of children laid out identically.
func diffNodes(a, b *node, offset int, out [][2]int) [][2]int {
	if a == b {
		return out
	}
	if sameLayout(a, b) {
		out = diffLists(relToAbs(a.local, offset), relToAbs(b.local, offset), out)
		pos := offset
		for i := range a.children {
			out = diffNodes(a.children[i], b.children[i], pos, out)
			pos += a.children[i].length
		}
		return out
	}
	return diffLists(collectSorted(a, offset), collectSorted(b, offset), out)
}

func sameLayout(a, b *node) bool {
	if len(a.children) == 0 || len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if a.children[i].length != b.children[i].length {
			return false
		}
	}
	return true
}

func relToAbs(local []Decoration, offset int) []Decoration {
	out := make([]Decoration, len(local))
	for i, d := range local {
		out[i] = d.move(offset)
	}
	slices.SortStableFunc(out, compare)
	return out
}

// diffLists appends the ranges of decorations present in only one of two
// sorted lists.
func diffLists(a, b []Decoration, out [][2]int) [][2]int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b):
			out = append(out, [2]int{a[i].from, a[i].to})
			i++
		case i == len(a):
			out = append(out, [2]int{b[j].from, b[j].to})
			j++
		case a[i].Eq(b[j]):
			i++
			j++
		case compare(a[i], b[j]) <= 0:
			out = append(out, [2]int{a[i].from, a[i].to})
			i++
		default:
			out = append(out, [2]int{b[j].from, b[j].to})
			j++
		}
	}
	return out
}

func joinRanges(ranges [][2]int) [][2]int {
	if len(ranges) == 0 {
		return nil
	}
	slices.SortFunc(ranges, func(x, y [2]int) int { return x[0] - y[0] })
	out := ranges[:1]
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if r[0] <= last[1] {
			last[1] = max(last[1], r[1])
			continue
		}
		out = append(out, r)
	}
	return out
}
