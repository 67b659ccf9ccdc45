package viewport

import (
	"math"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/heightmap"
	"github.com/dshills/scrivener/internal/text"
)

// GapWidget is the placeholder shown for content that is not rendered.
// Size is a height for vertical gaps and a width otherwise.
type GapWidget struct {
	Size     float64
	Vertical bool
}

// Eq implements decoration.Widget.
func (w GapWidget) Eq(other decoration.Widget) bool {
	o, ok := other.(GapWidget)
	return ok && o == w
}

// Text implements decoration.Widget.
func (w GapWidget) Text() string { return "" }

// EstimatedHeight implements decoration.Widget.
func (w GapWidget) EstimatedHeight() float64 {
	if w.Vertical {
		return w.Size
	}
	return -1
}

// LineGap stands in for [From, To) of a long line.
type LineGap struct {
	From, To int
	Size     float64
}

// Decoration returns the replace decoration drawing g. Gaps in wrapped
// lines are vertical.
func (g LineGap) Decoration(vertical bool) decoration.Decoration {
	return decoration.Must(decoration.NewReplace(g.From, g.To, decoration.Spec{
		Widget: GapWidget{Size: g.Size, Vertical: vertical},
		Gap:    true,
	}))
}

// Selection is the main selection range.
type Selection struct {
	Anchor, Head int
}

// From returns the start of the selection.
func (s Selection) From() int { return min(s.Anchor, s.Head) }

// To returns the end of the selection.
func (s Selection) To() int { return max(s.Anchor, s.Head) }

// Empty reports whether the selection is a cursor.
func (s Selection) Empty() bool { return s.Anchor == s.Head }

// structure lists the visible text ranges of a line.
type structure struct {
	total  int
	ranges [][2]int
}

type structureVisitor struct{ s *structure }

func (v structureVisitor) Span(from, to int, _ []decoration.Decoration) {
	v.s.ranges = append(v.s.ranges, [2]int{from, to})
	v.s.total += to - from
}

func (v structureVisitor) Point(int, int, decoration.Decoration, []decoration.Decoration, bool, bool) {
}

func lineStructure(sets []*decoration.Set, from, to int) structure {
	var s structure
	decoration.Spans(sets, from, to, structureVisitor{&s})
	return s
}

// position returns the document position at fraction frac of the visible
// text.
func (s structure) position(frac float64) int {
	if len(s.ranges) == 0 {
		return 0
	}
	if frac <= 0 {
		return s.ranges[0][0]
	}
	if frac >= 1 {
		return s.ranges[len(s.ranges)-1][1]
	}
	dist := int(math.Floor(float64(s.total) * frac))
	for _, r := range s.ranges {
		size := r[1] - r[0]
		if dist <= size {
			return r[0] + dist
		}
		dist -= size
	}
	return s.ranges[len(s.ranges)-1][1]
}

// fraction returns the share of visible text before pos.
func (s structure) fraction(pos int) float64 {
	counted := 0
	for _, r := range s.ranges {
		if pos <= r[0] {
			break
		}
		counted += min(pos, r[1]) - r[0]
	}
	return float64(counted) / float64(max(1, s.total))
}

// visibleIn counts the visible characters in [from, to).
func (s structure) visibleIn(from, to int) int {
	n := 0
	for _, r := range s.ranges {
		a, b := max(from, r[0]), min(to, r[1])
		if b > a {
			n += b - a
		}
	}
	return n
}

// graphemeWindow bounds the text examined when snapping to a grapheme
// boundary.
const graphemeWindow = 32

// snapGrapheme moves pos back to the nearest grapheme cluster boundary
// inside [line.From, line.To].
func snapGrapheme(doc text.Text, line heightmap.BlockInfo, pos int) int {
	if pos <= line.From || pos >= line.To() {
		return pos
	}
	from := max(line.From, pos-graphemeWindow)
	window := doc.Slice(from, min(line.To(), pos+graphemeWindow))
	for len(window) > 0 && !utf8.RuneStart(window[0]) {
		window = window[1:]
		from++
	}
	g := uniseg.NewGraphemes(window)
	best := from
	for g.Next() {
		_, end := g.Positions()
		if from+end > pos {
			break
		}
		best = from + end
	}
	return best
}

// EnsureLineGaps returns the line gaps for the lines of the viewport that
// are too long to render whole. Gaps from current are kept when they are
// still close to the ideal ones, and no gap covers a selection endpoint.
func (s *State) EnsureLineGaps(current []LineGap, sets []*decoration.Set, sel Selection, target *ScrollTarget) []LineGap {
	s.mu.Lock()
	defer s.mu.Unlock()
	gaps := s.ensureLineGaps(current, sets, sel, target)
	s.lineGaps = gaps
	return gaps
}

func (s *State) ensureLineGaps(current []LineGap, sets []*decoration.Set, sel Selection, target *ScrollTarget) []LineGap {
	o := s.oracle
	doc := o.Doc()
	wrapping := o.LineWrapping
	margin := s.cfg.GapMargin
	if wrapping {
		margin = s.cfg.GapMarginWrap
	}
	half, double := margin/2, margin*2
	pad := s.cfg.GapSelectionPad

	avoid := []int{sel.From()}
	if !sel.Empty() {
		avoid = append(avoid, sel.To())
	}

	var gaps []LineGap
	var addGap func(from, to int, line heightmap.BlockInfo, st structure)
	addGap = func(from, to int, line heightmap.BlockInfo, st structure) {
		if to-from < half {
			return
		}
		for _, p := range avoid {
			if p > from && p < to {
				addGap(from, p-pad, line, st)
				addGap(p+pad, to, line, st)
				return
			}
		}
		for _, g := range current {
			if g.From >= line.From && g.To <= line.To() && abs(g.From-from) < half && abs(g.To-to) < half && !covers(g, avoid) {
				gaps = append(gaps, g)
				return
			}
		}
		gaps = append(gaps, LineGap{From: from, To: to, Size: s.gapSize(line, from, to, st)})
	}

	s.heights.ForEachLine(s.viewport.From, s.viewport.To, o, func(line heightmap.BlockInfo) bool {
		if line.Length < double || line.Type != heightmap.BlockText {
			return true
		}
		st := lineStructure(sets, line.From, line.To())
		if st.total < double {
			return true
		}
		var lo, hi float64
		if wrapping {
			marginHeight := float64(margin) / o.LineLength * o.LineHeight
			if target != nil {
				f := st.fraction(target.Pos)
				space := (s.visible.Height()/2 + marginHeight) / line.Height
				lo, hi = f-space, f+space
			} else {
				lo = (s.visible.Top - line.Top - marginHeight) / line.Height
				hi = (s.visible.Bottom - line.Top + marginHeight) / line.Height
			}
		} else {
			totalWidth := float64(st.total) * o.CharWidth
			marginWidth := float64(margin) * o.CharWidth
			if target != nil {
				f := st.fraction(target.Pos)
				space := (s.visible.Width()/2 + marginWidth) / totalWidth
				lo, hi = f-space, f+space
			} else {
				lo = (s.visible.Left - marginWidth) / totalWidth
				hi = (s.visible.Right + marginWidth) / totalWidth
			}
		}
		viewFrom := snapGrapheme(doc, line, st.position(lo))
		viewTo := snapGrapheme(doc, line, st.position(hi))
		if viewFrom > line.From {
			addGap(line.From, viewFrom, line, st)
		}
		if viewTo < line.To() {
			addGap(viewTo, line.To(), line, st)
		}
		return true
	})
	return gaps
}

// gapSize is the height, when wrapping, or width of the gap [from, to).
func (s *State) gapSize(line heightmap.BlockInfo, from, to int, st structure) float64 {
	visible := float64(st.visibleIn(from, to))
	if s.oracle.LineWrapping {
		return line.Height * visible / float64(max(1, st.total))
	}
	return visible * s.oracle.CharWidth
}

func covers(g LineGap, positions []int) bool {
	for _, p := range positions {
		if g.From < p && g.To > p {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
