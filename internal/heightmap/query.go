package heightmap

import (
	"math"

	"github.com/dshills/scrivener/internal/text"
)

// BlockType classifies a block.
type BlockType uint8

const (
	BlockText BlockType = iota
	BlockWidgetBefore
	BlockWidgetAfter
	BlockWidgetRange
)

func (t BlockType) String() string {
	switch t {
	case BlockText:
		return "text"
	case BlockWidgetBefore:
		return "widget-before"
	case BlockWidgetAfter:
		return "widget-after"
	case BlockWidgetRange:
		return "widget-range"
	default:
		return "unknown"
	}
}

// QueryType selects how LineAt interprets its value.
type QueryType uint8

const (
	// ByPos looks up the line holding a document position.
	ByPos QueryType = iota
	// ByHeight looks up the line at a vertical offset.
	ByHeight
	// ByPosNoHeight is ByPos for callers that only need the extent; Top
	// and Height of the result are zero.
	ByPosNoHeight
)

// BlockInfo describes a block or a line.
type BlockInfo struct {
	From   int
	Length int
	Top    float64
	Height float64
	Type   BlockType
}

// To returns the end of the block.
func (b BlockInfo) To() int { return b.From + b.Length }

// Bottom returns the bottom edge of the block.
func (b BlockInfo) Bottom() float64 { return b.Top + b.Height }

// Join returns the block covering b followed directly by o.
func (b BlockInfo) Join(o BlockInfo) BlockInfo {
	typ := b.Type
	if o.Type != typ {
		typ = BlockText
	}
	return BlockInfo{From: b.From, Length: o.To() - b.From, Top: b.Top, Height: b.Height + o.Height, Type: typ}
}

func (c cursor) info() BlockInfo {
	return BlockInfo{From: c.pos, Length: c.leaf.length, Top: c.top, Height: c.leaf.height, Type: c.leaf.typ}
}

// gapLine returns the block of line, which lies in the gap at c. Lines in
// a gap share its height evenly.
func (c cursor) gapLine(doc text.Text, line text.Line) BlockInfo {
	per := c.leaf.height / float64(c.leaf.lines)
	k := line.Number - doc.LineAt(c.pos).Number
	return BlockInfo{From: line.From, Length: line.Length(), Top: c.top + float64(k)*per, Height: per}
}

// gapLineAtHeight returns the line at height h in the gap at c.
func (c cursor) gapLineAtHeight(doc text.Text, h float64) text.Line {
	k := 0
	if per := c.leaf.height / float64(c.leaf.lines); per > 0 {
		k = int(math.Floor((h - c.top) / per))
	}
	k = max(0, min(c.leaf.lines-1, k))
	return doc.Line(doc.LineAt(c.pos).Number + k)
}

// BlockAt returns the block at height h, clamped to the map. Lines inside
// gaps are reported individually.
func (m *Map) BlockAt(h float64, o *Oracle) BlockInfo {
	c := leafAtHeight(m.root, h)
	if c.leaf.kind == kindGap {
		doc := o.Doc()
		return c.gapLine(doc, c.gapLineAtHeight(doc, h))
	}
	return c.info()
}

// LineAt returns the line at value, a position for ByPos and
// ByPosNoHeight and a height for ByHeight. A line spans the blocks
// between two line breaks, so block widgets attached to it are included.
func (m *Map) LineAt(value float64, q QueryType, o *Oracle) BlockInfo {
	doc := o.Doc()
	var c cursor
	pos := 0
	if q == ByHeight {
		c = leafAtHeight(m.root, value)
	} else {
		pos = max(0, min(m.root.size, int(value)))
		c = leafAtPos(m.root, pos)
	}

	var info BlockInfo
	switch {
	case c.leaf.kind == kindGap && q == ByHeight:
		info = c.gapLine(doc, c.gapLineAtHeight(doc, value))
	case c.leaf.kind == kindGap:
		info = c.gapLine(doc, doc.LineAt(pos))
	default:
		info = m.group(c)
	}
	if q == ByPosNoHeight {
		info.Top, info.Height = 0, 0
	}
	return info
}

// LineAtPos is LineAt with ByPos.
func (m *Map) LineAtPos(pos int, o *Oracle) BlockInfo {
	return m.LineAt(float64(pos), ByPos, o)
}

// LineAtHeight is LineAt with ByHeight.
func (m *Map) LineAtHeight(h float64, o *Oracle) BlockInfo {
	return m.LineAt(h, ByHeight, o)
}

// group joins the leaves of the line group holding c.
func (m *Map) group(c cursor) BlockInfo {
	info := c.info()
	for i := c.index - 1; i >= 0; i-- {
		p := leafAt(m.root, i)
		if p.leaf.brk || p.leaf.kind == kindGap {
			break
		}
		info = p.info().Join(info)
	}
	for i := c.index; !leafAt(m.root, i).leaf.brk && i+1 < m.root.count; i++ {
		n := leafAt(m.root, i+1)
		if n.leaf.kind == kindGap {
			break
		}
		info = info.Join(n.info())
	}
	return info
}

// ForEachLine calls fn for each line overlapping [from, to], in order,
// until fn returns false.
func (m *Map) ForEachLine(from, to int, o *Oracle, fn func(BlockInfo) bool) {
	doc := o.Doc()
	_, a := m.groupStart(from)
	_, b := m.groupEnd(to)
	var acc BlockInfo
	open := false
	walk(m.root, cursor{}, a, b, func(c cursor) bool {
		if c.leaf.kind == kindGap {
			first := doc.LineAt(max(from, c.pos)).Number
			last := doc.LineAt(min(to, c.pos+c.leaf.length)).Number
			for n := first; n <= last; n++ {
				if !fn(c.gapLine(doc, doc.Line(n))) {
					return false
				}
			}
			return true
		}
		info := c.info()
		if open {
			info = acc.Join(info)
		}
		if c.leaf.brk || c.index == m.root.count-1 {
			open = false
			return fn(info)
		}
		acc, open = info, true
		return true
	})
	if open {
		fn(acc)
	}
}
