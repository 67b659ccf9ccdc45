package text

import "strings"

// Iterator walks a range of a Text as a sequence of line-free text segments
// and line breaks.
//
//	it := doc.Iter(from, to)
//	for it.Next() {
//	    if it.LineBreak() {
//	        ...
//	    } else {
//	        use(it.Value())
//	    }
//	}
type Iterator struct {
	chunks []string
	cur    string
	value  string
	brk    bool
}

// Iter returns an iterator over [from, to). Positions are clamped.
func (t Text) Iter(from, to int) *Iterator {
	from, to = max(from, 0), min(to, t.Len())
	it := &Iterator{}
	if from < to {
		collect(t.tree(), from, to, &it.chunks)
	}
	return it
}

func collect(n *node, from, to int, out *[]string) {
	if n.isLeaf() {
		*out = append(*out, n.chunk[from:to])
		return
	}
	off := 0
	for _, c := range n.children {
		end := off + c.sum.bytes
		if end > from && off < to {
			collect(c, max(from, off)-off, min(to, end)-off, out)
		}
		if end >= to {
			return
		}
		off = end
	}
}

// Next advances to the next segment and reports whether one exists.
// Segments never span chunk boundaries, so consecutive text segments may
// belong to the same line.
func (it *Iterator) Next() bool {
	for it.cur == "" {
		if len(it.chunks) == 0 {
			it.value, it.brk = "", false
			return false
		}
		it.cur, it.chunks = it.chunks[0], it.chunks[1:]
	}
	if it.cur[0] == '\n' {
		it.value, it.brk = "\n", true
		it.cur = it.cur[1:]
		return true
	}
	end := strings.IndexByte(it.cur, '\n')
	if end < 0 {
		end = len(it.cur)
	}
	it.value, it.brk = it.cur[:end], false
	it.cur = it.cur[end:]
	return true
}

// Value returns the current segment. For a line break it is "\n".
func (it *Iterator) Value() string {
	return it.value
}

// LineBreak reports whether the current segment is a line break.
func (it *Iterator) LineBreak() bool {
	return it.brk
}
