// Package content turns a document range and its decorations into a flat
// list of block nodes, each holding inline nodes.
//
// Blocks are *Line and *BlockWidget. Inline nodes are *Text,
// *InlineWidget and *Mark. Both are closed sets: switches over them are
// expected to be exhaustive.
package content

import "github.com/dshills/scrivener/internal/decoration"

// Open records which edges of a node may be joined with adjacent content
// because the decoration that produced it continues past that edge.
type Open uint8

const (
	OpenStart Open = 1 << iota
	OpenEnd
)

// Block is a block-level node.
type Block interface {
	// Length returns the number of document positions covered, excluding
	// any trailing line break.
	Length() int
	// Break reports whether a line break follows the block.
	Break() bool
	block()
}

// Inline is an inline node.
type Inline interface {
	Length() int
	inline()
}

// Line is one visual line.
type Line struct {
	Children   []Inline
	Attrs      Attrs
	BreakAfter bool
}

// BlockWidget is a block-level widget or replaced range.
type BlockWidget struct {
	Widget     decoration.Widget
	Len        int
	Open       Open
	BreakAfter bool
	// Height is the widget's estimated height, or -1 when unknown.
	Height float64
	// Gap marks a viewport placeholder.
	Gap bool
}

// Text is a run of document text without line breaks.
type Text struct {
	Text string
}

// InlineWidget is an inline widget or a range replaced inline.
type InlineWidget struct {
	Widget decoration.Widget
	Len    int
	Open   Open
	Side   int
}

// Mark wraps inline content in a marked element.
type Mark struct {
	Attrs    *MarkAttrs
	Children []Inline
	Open     Open
}

func (l *Line) Length() int        { return inlineLength(l.Children) }
func (l *Line) Break() bool        { return l.BreakAfter }
func (*Line) block()               {}
func (w *BlockWidget) Length() int { return w.Len }
func (w *BlockWidget) Break() bool { return w.BreakAfter }
func (*BlockWidget) block()        {}

func (t *Text) Length() int         { return len(t.Text) }
func (*Text) inline()               {}
func (w *InlineWidget) Length() int { return w.Len }
func (*InlineWidget) inline()       {}
func (m *Mark) Length() int         { return inlineLength(m.Children) }
func (*Mark) inline()               {}

func inlineLength(children []Inline) int {
	n := 0
	for _, c := range children {
		n += c.Length()
	}
	return n
}

// Length returns the total length of blocks, counting line breaks.
func Length(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		n += b.Length()
		if b.Break() {
			n++
		}
	}
	return n
}
