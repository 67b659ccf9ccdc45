package viewport

import (
	"math"
	"strings"
	"testing"

	"github.com/dshills/scrivener/internal/change"
	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/heightmap"
	"github.com/dshills/scrivener/internal/text"
)

// newState returns a state over n lines of "line", 14px each, showing
// the rows [top, top+rows).
func newState(t *testing.T, n int, top, rows float64) (*State, text.Text) {
	t.Helper()
	doc := text.Of(strings.TrimSuffix(strings.Repeat("line\n", n), "\n"))
	o := heightmap.NewOracle(doc)
	s := NewState(Config{}, heightmap.New(nil, o), o)
	s.SetVisible(Rect{Top: top, Bottom: top + rows*14, Right: 560})
	return s, doc
}

func TestGetViewportAtTop(t *testing.T) {
	s, _ := newState(t, 1000, 0, 20)
	got := s.GetViewport(0, nil)
	want := Viewport{From: 0, To: 279}
	if got != want {
		t.Fatalf("GetViewport = %+v, want %+v", got, want)
	}
	if !s.IsCovering(got, 0) {
		t.Error("fresh viewport not covering")
	}
}

func TestBiasShiftsMargin(t *testing.T) {
	s, _ := newState(t, 1000, 5000, 20)
	even := s.GetViewport(0, nil)
	if want := (Viewport{From: 1605, To: 2064}); even != want {
		t.Fatalf("unbiased viewport = %+v, want %+v", even, want)
	}
	down := s.GetViewport(1000, nil)
	if want := (Viewport{From: 1785, To: 2244}); down != want {
		t.Errorf("downward viewport = %+v, want %+v", down, want)
	}
	up := s.GetViewport(-1000, nil)
	if up.From >= even.From || up.To >= even.To {
		t.Errorf("upward viewport %+v not above %+v", up, even)
	}
}

func TestScrollTargetOutsideViewport(t *testing.T) {
	s, doc := newState(t, 1000, 0, 20)
	pos := doc.Line(900).From
	tests := []struct {
		align Align
		want  Viewport
	}{
		{AlignStart, Viewport{From: 4315, To: 4774}},
		{AlignNearest, Viewport{From: 4220, To: 4679}},
		{AlignEnd, Viewport{From: 4220, To: 4679}},
	}
	for _, tt := range tests {
		got := s.GetViewport(0, &ScrollTarget{Pos: pos, Y: tt.align})
		if got != tt.want {
			t.Errorf("align %d: got %+v, want %+v", tt.align, got, tt.want)
		}
	}
	for _, a := range []Align{AlignCenter} {
		if got := s.GetViewport(0, &ScrollTarget{Pos: pos, Y: a}); !got.Contains(pos) {
			t.Errorf("align %d: %+v misses %d", a, got, pos)
		}
	}
	if got := s.GetViewport(0, &ScrollTarget{Pos: 10}); got != (Viewport{From: 0, To: 279}) {
		t.Errorf("visible target moved the viewport to %+v", got)
	}
}

func TestIsCovering(t *testing.T) {
	s, doc := newState(t, 1000, 0, 20)
	vp := Viewport{From: 0, To: 279}
	tests := []struct {
		name string
		top  float64
		vp   Viewport
		want bool
	}{
		{"fresh", 0, vp, true},
		{"scrolled a little", 300, vp, true},
		{"scrolled past the margin", 700, vp, false},
		{"renders far too much", 5000, Viewport{From: 0, To: doc.Len()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.SetVisible(Rect{Top: tt.top, Bottom: tt.top + 280, Right: 560})
			if got := s.IsCovering(tt.vp, 0); got != tt.want {
				t.Errorf("IsCovering = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateRecomputesWhenNotCovering(t *testing.T) {
	s, _ := newState(t, 1000, 0, 20)
	if s.Update(nil) {
		t.Error("Update changed a covering viewport")
	}
	s.ScrollTo(5000)
	if s.ScrollingDirection() != ScrollDown {
		t.Errorf("direction = %s, want down", s.ScrollingDirection())
	}
	if !s.Update(nil) {
		t.Fatal("Update kept a viewport that does not cover")
	}
	vp := s.Viewport()
	top := s.HeightMap().LineAtPos(vp.From, s.oracle).Top
	bottom := s.HeightMap().LineAtPos(vp.To, s.oracle).Bottom()
	if top > 5000 || bottom < 5280 {
		t.Errorf("viewport %+v spans [%v, %v], visible [5000, 5280]", vp, top, bottom)
	}
}

func TestScrollToClamps(t *testing.T) {
	s, _ := newState(t, 10, 0, 5)
	s.ScrollTo(1000)
	if got := s.Visible(); got.Top != 70 || got.Bottom != 140 {
		t.Errorf("Visible() = %+v, want [70, 140]", got)
	}
	if got := s.ScrollPercent(); got != 1 {
		t.Errorf("ScrollPercent() = %v, want 1", got)
	}
	s.ScrollTo(-5)
	if s.Visible().Top != 0 || s.ScrollingDirection() != ScrollUp {
		t.Errorf("Visible() = %+v, direction %s", s.Visible(), s.ScrollingDirection())
	}
}

// apply edits the document under s and returns the mapped viewport.
func apply(t *testing.T, s *State, doc text.Text, vp Viewport, c change.Change) (text.Text, Viewport) {
	t.Helper()
	ch := change.Must(doc.Len(), c)
	next, err := ch.Apply(doc)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	s.oracle.SetDoc(next)
	s.SetHeightMap(s.HeightMap().ApplyChanges(nil, doc, s.oracle, ch.ChangedRanges()))
	return next, s.MapViewport(vp, ch)
}

func TestMapViewportStaysNearFreshViewport(t *testing.T) {
	s, doc := newState(t, 1000, 5000, 20)
	vp := s.GetViewport(0, nil)
	margin := s.Config().Margin
	edits := []change.Change{
		{From: 0, Insert: "new\n"},
		{From: 2000, To: 2010},
		{From: 3000, To: 3000, Insert: "a\nb\nc\n"},
		{From: 10, To: 30},
	}
	for i, c := range edits {
		doc, vp = apply(t, s, doc, vp, c)
		fresh := s.GetViewport(0, nil)
		m := s.HeightMap()
		dTop := math.Abs(m.LineAtPos(vp.From, s.oracle).Top - m.LineAtPos(fresh.From, s.oracle).Top)
		dBottom := math.Abs(m.LineAtPos(vp.To, s.oracle).Bottom() - m.LineAtPos(fresh.To, s.oracle).Bottom())
		if dTop > margin || dBottom > margin {
			t.Errorf("edit %d: mapped %+v and fresh %+v differ by %v/%v", i, vp, fresh, dTop, dBottom)
		}
		if m.LineAtPos(vp.From, s.oracle).From != vp.From {
			t.Errorf("edit %d: mapped viewport starts mid-line at %d", i, vp.From)
		}
	}
}

func TestMapViewportRederivesForLargeChanges(t *testing.T) {
	s, doc := newState(t, 1000, 5000, 20)
	vp := s.GetViewport(0, nil)
	_, got := apply(t, s, doc, vp, change.Change{From: 0, Insert: strings.Repeat("xxxx\n", 500)})
	if want := s.GetViewport(0, nil); got != want {
		t.Errorf("MapViewport = %+v, want fresh %+v", got, want)
	}
}

func longLineState(t *testing.T, line string, right float64) *State {
	t.Helper()
	doc := text.Of(line)
	o := heightmap.NewOracle(doc)
	s := NewState(Config{}, heightmap.New(nil, o), o)
	s.SetVisible(Rect{Bottom: 280, Right: right})
	return s
}

func TestEnsureLineGaps(t *testing.T) {
	s := longLineState(t, strings.Repeat("a", 10000), 563.5)
	gaps := s.EnsureLineGaps(nil, nil, Selection{}, nil)
	if len(gaps) != 1 {
		t.Fatalf("got %d gaps, want 1", len(gaps))
	}
	if want := (LineGap{From: 2080, To: 10000, Size: 7920 * 7}); gaps[0] != want {
		t.Errorf("gap = %+v, want %+v", gaps[0], want)
	}

	split := s.EnsureLineGaps(nil, nil, Selection{Anchor: 5000, Head: 5000}, nil)
	if len(split) != 2 {
		t.Fatalf("got %d gaps around the selection, want 2", len(split))
	}
	for _, g := range split {
		if g.From < 5000 && g.To > 5000 {
			t.Errorf("gap %+v covers the selection", g)
		}
	}
	if split[0].To != 4990 || split[1].From != 5010 {
		t.Errorf("gaps %+v do not keep the selection pad", split)
	}

	s.SetVisible(Rect{Bottom: 280, Right: 598.5})
	kept := s.EnsureLineGaps(gaps, nil, Selection{}, nil)
	if len(kept) != 1 || kept[0] != gaps[0] {
		t.Errorf("nearby gap not reused: %+v", kept)
	}
}

func TestShortLinesHaveNoGaps(t *testing.T) {
	s := longLineState(t, strings.Repeat("a", 3999), 560)
	if gaps := s.EnsureLineGaps(nil, nil, Selection{}, nil); len(gaps) != 0 {
		t.Errorf("got gaps %+v for a short line", gaps)
	}
}

func TestLineGapsSnapToGraphemes(t *testing.T) {
	s := longLineState(t, strings.Repeat("é", 5000), 570.5)
	gaps := s.EnsureLineGaps(nil, nil, Selection{}, nil)
	if len(gaps) != 1 || gaps[0].From != 2080 {
		t.Errorf("gaps = %+v, want one starting at 2080", gaps)
	}
}

func TestLineGapDecoration(t *testing.T) {
	d := LineGap{From: 5, To: 50, Size: 315}.Decoration(false)
	if d.Kind() != decoration.KindReplace || d.Block() || !d.Spec().Gap {
		t.Errorf("decoration = %v", d)
	}
	w, ok := d.Widget().(GapWidget)
	if !ok || w.Size != 315 || w.EstimatedHeight() != -1 {
		t.Errorf("widget = %#v", d.Widget())
	}
}

func TestGapDecorationsCoverOutsideViewport(t *testing.T) {
	s, doc := newState(t, 1000, 5000, 20)
	s.SetViewport(s.GetViewport(0, nil))
	decos := s.GapDecorations().All()
	if len(decos) != 2 {
		t.Fatalf("got %d gap decorations, want 2", len(decos))
	}
	tests := []struct {
		from, to int
		height   float64
	}{
		{0, 1604, 321 * 14},
		{2065, doc.Len(), 14000 - 413*14},
	}
	for i, tt := range tests {
		d := decos[i]
		w, _ := d.Widget().(GapWidget)
		if d.From() != tt.from || d.To() != tt.to || w.Size != tt.height || !d.Block() {
			t.Errorf("gap %d = [%d, %d) size %v, want [%d, %d) size %v", i, d.From(), d.To(), w.Size, tt.from, tt.to, tt.height)
		}
	}

	res := content.Build(doc, 0, doc.Len(), []*decoration.Set{s.GapDecorations()}, content.Options{})
	if n := len(res.Content); n != 94 {
		t.Errorf("build has %d blocks, want 94", n)
	}
	if content.Length(res.Content) != doc.Len() {
		t.Errorf("build covers %d positions, want %d", content.Length(res.Content), doc.Len())
	}
	for _, i := range []int{0, len(res.Content) - 1} {
		if b, ok := res.Content[i].(*content.BlockWidget); !ok || !b.Gap {
			t.Errorf("block %d = %#v, want a gap", i, res.Content[i])
		}
	}
}

func TestScalerChunks(t *testing.T) {
	tests := []struct {
		h    float64
		want []float64
	}{
		{5, []float64{5}},
		{7e6, []float64{7e6}},
		{15e6, []float64{7e6, 7e6, 1e6}},
		{14e6, []float64{7e6, 7e6}},
	}
	sc := Scaler{Max: DefaultMaxSurfaceHeight}
	for _, tt := range tests {
		got := sc.Chunks(tt.h)
		if len(got) != len(tt.want) {
			t.Errorf("Chunks(%v) = %v, want %v", tt.h, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Chunks(%v) = %v, want %v", tt.h, got, tt.want)
				break
			}
		}
	}
}

func TestEffectiveMargins(t *testing.T) {
	s, _ := newState(t, 100, 0, 20)
	top, bottom, left, right := s.EffectiveMargins()
	if top != 70 || bottom != 70 || left != 70 || right != 70 {
		t.Errorf("EffectiveMargins = %v %v %v %v", top, bottom, left, right)
	}
	s.SetVisible(Rect{Bottom: 60, Right: 60})
	if top, _, left, _ := s.EffectiveMargins(); top != 20 || left != 20 {
		t.Errorf("clamped margins = %v %v, want 20 20", top, left)
	}
	s.SetMargins(NoMargins())
	if top, _, _, _ := s.EffectiveMargins(); top != 0 {
		t.Errorf("NoMargins top = %v", top)
	}
}

func TestRevealTop(t *testing.T) {
	s, doc := newState(t, 100, 0, 20)
	top, ok := s.RevealTop(doc.Line(30).From)
	if !ok || top != 210 {
		t.Errorf("RevealTop = %v, %v, want 210, true", top, ok)
	}
	if _, ok := s.RevealTop(doc.Line(10).From); ok {
		t.Error("RevealTop scrolled for a visible line")
	}
}
