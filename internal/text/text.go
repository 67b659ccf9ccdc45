package text

import (
	"fmt"
	"strings"
)

// Text is an immutable document. The zero value is an empty document.
type Text struct {
	root *node
}

// Line describes one line of a Text. To excludes the line break.
type Line struct {
	From   int
	To     int
	Number int
	Text   string
}

// Length returns the line length in bytes.
func (l Line) Length() int {
	return l.To - l.From
}

// Of creates a Text from a string.
func Of(s string) Text {
	return Text{root: build(chunksOf(s))}
}

func (t Text) tree() *node {
	if t.root == nil {
		return newLeaf("")
	}
	return t.root
}

// Len returns the document length in bytes.
func (t Text) Len() int {
	if t.root == nil {
		return 0
	}
	return t.root.sum.bytes
}

// Lines returns the number of lines. An empty document has one line.
func (t Text) Lines() int {
	if t.root == nil {
		return 1
	}
	return t.root.sum.breaks + 1
}

// String returns the full document.
func (t Text) String() string {
	return t.Slice(0, t.Len())
}

// Slice returns the text in [from, to). Positions are clamped to the document.
func (t Text) Slice(from, to int) string {
	from, to = max(from, 0), min(to, t.Len())
	if from >= to {
		return ""
	}
	var sb strings.Builder
	sb.Grow(to - from)
	t.tree().appendRange(&sb, from, to)
	return sb.String()
}

// Replace returns a new Text with [from, to) replaced by insert.
// It panics if the range is not within the document.
func (t Text) Replace(from, to int, insert string) Text {
	if from < 0 || to < from || to > t.Len() {
		panic(fmt.Sprintf("text: invalid replace range %d-%d in document of length %d", from, to, t.Len()))
	}
	left, rest := t.tree().split(from)
	_, right := rest.split(to - from)
	mid := build(chunksOf(insert))
	return Text{root: concat(concat(left, mid), right)}
}

// Line returns line n (1-based). It panics if n is out of range.
func (t Text) Line(n int) Line {
	if n < 1 || n > t.Lines() {
		panic(fmt.Sprintf("text: line %d out of range [1, %d]", n, t.Lines()))
	}
	root := t.tree()
	from := root.lineStart(n - 1)
	to := t.Len()
	if n < t.Lines() {
		to = root.lineStart(n) - 1
	}
	return Line{From: from, To: to, Number: n, Text: t.Slice(from, to)}
}

// LineAt returns the line containing pos. A position directly after a
// line break belongs to the following line. Positions are clamped.
func (t Text) LineAt(pos int) Line {
	pos = min(max(pos, 0), t.Len())
	return t.Line(t.tree().breaksBefore(pos) + 1)
}

// Eq reports whether both texts hold the same content.
func (t Text) Eq(o Text) bool {
	if t.root == o.root {
		return true
	}
	return t.Len() == o.Len() && t.Lines() == o.Lines() && t.String() == o.String()
}
