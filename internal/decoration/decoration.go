// Package decoration provides positioned annotations and the immutable
// interval tree that stores them.
//
// A Decoration covers a range (or a single position) of the document. There
// are four kinds: marks style the text they cover, widgets insert content at
// a position, line decorations attach attributes to the line containing
// their position, and replace decorations hide a range, optionally showing a
// widget in its place.
//
// Every decoration carries a start side and an end side. Sides order
// decorations that share a position and decide which way a boundary moves
// when text is inserted exactly at it.
package decoration

import (
	"fmt"
	"maps"
)

// Kind identifies the kind of a decoration.
type Kind uint8

const (
	// KindMark styles a range of text. Marks may nest.
	KindMark Kind = iota
	// KindWidget inserts content at a position.
	KindWidget
	// KindLine attaches attributes to the line starting at or containing its position.
	KindLine
	// KindReplace hides a range, optionally replacing it with a widget.
	KindReplace
)

func (k Kind) String() string {
	switch k {
	case KindMark:
		return "mark"
	case KindWidget:
		return "widget"
	case KindLine:
		return "line"
	case KindReplace:
		return "replace"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Side values, in ascending order. A decoration's start and end sides are
// drawn from these bands; widget sides are offset within their band.
const (
	SideNonInclusiveEnd      = -6e8
	SideGapStart             = -5e8
	SideBlockBefore          = -4e8
	SideBlockInclusiveStart  = -3e8
	SideLine                 = -2e8
	SideInlineBefore         = -1e8
	SideInlineInclusiveStart = -1
	SideInlineInclusiveEnd   = 1
	SideInlineAfter          = 1e8
	SideBlockAfter           = 2e8
	SideBlockInclusiveEnd    = 3e8
	SideGapEnd               = 4e8
	SideNonInclusiveStart    = 5e8
)

// maxWidgetSide bounds the side offset of widgets so they stay in their band.
const maxWidgetSide = 1e7

// Spec holds the descriptive part of a decoration. Which fields matter
// depends on the kind.
type Spec struct {
	// Tag is the element name for marks.
	Tag string
	// Class is a space-separated class list for marks and lines.
	Class string
	// Attrs holds extra attributes for marks and lines.
	Attrs map[string]string
	// Widget is the content shown by widgets and replace decorations.
	Widget Widget
	// Side orders widgets sharing a position. Negative values place the
	// widget before content at that position.
	Side int
	// Block makes widgets and replace decorations block level.
	Block bool
	// InclusiveStart and InclusiveEnd make marks and replace decorations
	// grow when text is inserted at their edges.
	InclusiveStart bool
	InclusiveEnd   bool
	// Gap marks a placeholder produced by the viewport.
	Gap bool
}

// Eq reports whether two specs describe the same decoration.
func (s *Spec) Eq(o *Spec) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return s.Tag == o.Tag && s.Class == o.Class && s.Side == o.Side && s.Block == o.Block &&
		s.InclusiveStart == o.InclusiveStart && s.InclusiveEnd == o.InclusiveEnd && s.Gap == o.Gap &&
		maps.Equal(s.Attrs, o.Attrs) && SameWidget(s.Widget, o.Widget)
}

// Decoration is an immutable annotated range. Decorations are values; the
// Spec is shared between copies and must not be modified after creation.
type Decoration struct {
	from      int
	to        int
	kind      Kind
	startSide int
	endSide   int
	spec      *Spec
}

// NewMark creates a mark over [from, to).
func NewMark(from, to int, spec Spec) (Decoration, error) {
	if err := checkRange(from, to); err != nil {
		return Decoration{}, err
	}
	d := Decoration{from: from, to: to, kind: KindMark, spec: &spec}
	d.startSide, d.endSide = SideNonInclusiveStart, SideNonInclusiveEnd
	if spec.InclusiveStart {
		d.startSide = SideInlineInclusiveStart
	}
	if spec.InclusiveEnd {
		d.endSide = SideInlineInclusiveEnd
	}
	return d, nil
}

// NewWidget creates a zero-length widget at pos.
func NewWidget(pos int, spec Spec) (Decoration, error) {
	if err := checkRange(pos, pos); err != nil {
		return Decoration{}, err
	}
	side := max(-maxWidgetSide, min(maxWidgetSide, spec.Side))
	var band int
	switch {
	case spec.Block && side > 0:
		band = SideBlockAfter
	case spec.Block:
		band = SideBlockBefore
	case side > 0:
		band = SideInlineAfter
	default:
		band = SideInlineBefore
	}
	return Decoration{from: pos, to: pos, kind: KindWidget, spec: &spec, startSide: band + side, endSide: band + side}, nil
}

// NewLine creates a line decoration for the line starting at pos.
func NewLine(pos int, spec Spec) (Decoration, error) {
	if err := checkRange(pos, pos); err != nil {
		return Decoration{}, err
	}
	return Decoration{from: pos, to: pos, kind: KindLine, spec: &spec, startSide: SideLine, endSide: SideLine}, nil
}

// NewReplace creates a decoration hiding [from, to).
func NewReplace(from, to int, spec Spec) (Decoration, error) {
	if err := checkRange(from, to); err != nil {
		return Decoration{}, err
	}
	d := Decoration{from: from, to: to, kind: KindReplace, spec: &spec}
	if spec.Gap {
		// Gaps stand in for everything in their range, widgets at both
		// edges included.
		d.startSide, d.endSide = SideGapStart, SideGapEnd
		return d, nil
	}
	switch {
	case spec.InclusiveStart && spec.Block:
		d.startSide = SideBlockInclusiveStart - 1
	case spec.InclusiveStart:
		d.startSide = SideInlineInclusiveStart - 1
	default:
		d.startSide = SideNonInclusiveStart - 1
	}
	switch {
	case spec.InclusiveEnd && spec.Block:
		d.endSide = SideBlockInclusiveEnd + 1
	case spec.InclusiveEnd:
		d.endSide = SideInlineInclusiveEnd + 1
	default:
		d.endSide = SideNonInclusiveEnd + 1
	}
	return d, nil
}

// Must panics if err is non-nil. It is intended for decoration literals.
func Must(d Decoration, err error) Decoration {
	if err != nil {
		panic(err)
	}
	return d
}

func checkRange(from, to int) error {
	if from < 0 || to < from {
		return fmt.Errorf("[%d, %d): %w", from, to, ErrInvalidRange)
	}
	return nil
}

// From returns the start position.
func (d Decoration) From() int { return d.from }

// To returns the end position.
func (d Decoration) To() int { return d.to }

// Kind returns the decoration kind.
func (d Decoration) Kind() Kind { return d.kind }

// StartSide returns the side of the start position.
func (d Decoration) StartSide() int { return d.startSide }

// EndSide returns the side of the end position.
func (d Decoration) EndSide() int { return d.endSide }

// Spec returns the decoration's spec. It must not be modified.
func (d Decoration) Spec() *Spec {
	if d.spec == nil {
		return &Spec{}
	}
	return d.spec
}

// Widget returns the decoration's widget, if any.
func (d Decoration) Widget() Widget { return d.Spec().Widget }

// Block reports whether the decoration is block level.
func (d Decoration) Block() bool {
	return (d.kind == KindWidget || d.kind == KindReplace) && d.Spec().Block
}

// Point reports whether the decoration is rendered as an atomic point
// rather than wrapping text: widgets, line and replace decorations.
func (d Decoration) Point() bool { return d.kind != KindMark }

// Eq reports whether two decorations are identical in position and content.
func (d Decoration) Eq(o Decoration) bool {
	return d.from == o.from && d.to == o.to && d.kind == o.kind &&
		d.startSide == o.startSide && d.endSide == o.endSide && d.Spec().Eq(o.Spec())
}

func (d Decoration) String() string {
	s := d.Spec()
	switch d.kind {
	case KindMark:
		return fmt.Sprintf("mark(%d,%d,%s)", d.from, d.to, s.Tag)
	case KindWidget, KindReplace:
		name := ""
		if s.Widget != nil {
			name = s.Widget.Text()
		}
		return fmt.Sprintf("%s(%d,%d,%q)", d.kind, d.from, d.to, name)
	default:
		return fmt.Sprintf("line(%d,%s)", d.from, s.Class)
	}
}

// move returns d shifted by off.
func (d Decoration) move(off int) Decoration {
	d.from += off
	d.to += off
	return d
}

// compare orders decorations by from, to, then start side.
func compare(a, b Decoration) int {
	if a.from != b.from {
		return a.from - b.from
	}
	if a.to != b.to {
		return a.to - b.to
	}
	return a.startSide - b.startSide
}

func startAssoc(d Decoration) int {
	if d.startSide <= 0 {
		return -1
	}
	return 1
}

func endAssoc(d Decoration) int {
	if d.endSide < 0 {
		return -1
	}
	return 1
}
