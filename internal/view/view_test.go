package view

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/dshills/scrivener/internal/change"
	"github.com/dshills/scrivener/internal/config"
	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/docview"
	"github.com/dshills/scrivener/internal/renderer/backend"
	"github.com/dshills/scrivener/internal/text"
	"github.com/dshills/scrivener/internal/viewport"
)

func lines(n int) text.Text {
	return text.Of(strings.TrimSuffix(strings.Repeat("line\n", n), "\n"))
}

func newView(t *testing.T, doc text.Text, sets []*decoration.Set, visible viewport.Rect) *View {
	t.Helper()
	v, err := New(doc, sets, Options{Width: 80, Visible: visible})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

// check verifies that the content tree mirrors a full build of the
// current layers and that every derived structure covers the document.
func check(t *testing.T, v *View) {
	t.Helper()
	res := content.Build(v.doc, 0, v.doc.Len(), v.layers(), content.Options{Registry: v.treeOpts.Registry})
	if got, want := v.tree.Describe(), content.Describe(res.Content); got != want {
		t.Fatalf("tree differs from a full build\ngot:\n%s\nwant:\n%s", got, want)
	}
	if n := v.state.HeightMap().Length(); n != v.doc.Len() {
		t.Fatalf("height map covers %d positions, document %d", n, v.doc.Len())
	}
	if v.tree.DirtyState(v.tree.Root()) != docview.Clean {
		t.Fatal("tree not clean after update")
	}
	if got, want := v.surf.Live(), v.tree.Live(); got != want {
		t.Fatalf("surface has %d live elements, tree %d nodes", got, want)
	}
}

func TestNewRendersViewport(t *testing.T) {
	v := newView(t, lines(1000), nil, viewport.Rect{Bottom: 280, Right: 560})
	check(t, v)

	if vp := v.Viewport(); vp != (viewport.Viewport{From: 0, To: 279}) {
		t.Errorf("Viewport = %+v, want {0 279}", vp)
	}
	if h := v.ContentHeight(); h != 14000 {
		t.Errorf("ContentHeight = %v, want 14000", h)
	}
	if p := v.Stats().Passes; p != 1 {
		t.Errorf("Passes = %d, want 1", p)
	}

	blocks := v.Surface().Root().Children()
	if len(blocks) != 57 {
		t.Fatalf("surface has %d blocks, want 57", len(blocks))
	}
	last := blocks[len(blocks)-1].View()
	if !last.Gap || last.Height != 14000-56*14 {
		t.Errorf("last block = gap %v height %v, want a gap of %v", last.Gap, last.Height, 14000-56*14)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.View.MaxMeasurePasses = 0
	_, err := New(lines(3), nil, Options{Config: &cfg})
	if !errors.Is(err, config.ErrValidationFailed) {
		t.Fatalf("New = %v, want ErrValidationFailed", err)
	}
}

func TestQueries(t *testing.T) {
	v := newView(t, lines(100), nil, viewport.Rect{Bottom: 280, Right: 560})
	line := v.LineAtPos(12)
	if line.From != 10 || line.Length != 4 || line.Top != 28 {
		t.Errorf("LineAtPos(12) = %+v", line)
	}
	if got := v.LineAtHeight(30); got != line {
		t.Errorf("LineAtHeight(30) = %+v, want %+v", got, line)
	}
	if got := v.BlockAtHeight(30); got.From != 10 {
		t.Errorf("BlockAtHeight(30) = %+v", got)
	}
}

func TestDispatchEdits(t *testing.T) {
	v := newView(t, lines(1000), nil, viewport.Rect{Bottom: 280, Right: 560})
	edits := []change.Change{
		{From: 0, Insert: "head\n"},
		{From: 12, To: 14},
		{From: 100, To: 100, Insert: "a\nb\nc"},
		{From: 3000, To: 3100},
		{From: 40, To: 60, Insert: "x"},
	}
	for i, c := range edits {
		ch := change.Must(v.Doc().Len(), c)
		if err := v.Dispatch(Transaction{Changes: ch}); err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
		check(t, v)
	}
	if v.Stats().Tree.Reused == 0 {
		t.Error("last edit reused no nodes")
	}
}

func TestDispatchDecorations(t *testing.T) {
	v := newView(t, text.Of("alpha beta\ngamma delta\nepsilon"), nil, viewport.Rect{Bottom: 140, Right: 560})
	em := v.NewSet(
		decoration.Must(decoration.NewMark(0, 5, decoration.Spec{Tag: "em"})),
		decoration.Must(decoration.NewLine(11, decoration.Spec{Class: "current"})),
	)
	if err := v.Dispatch(Transaction{Decorations: []*decoration.Set{em}}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	check(t, v)
	if !strings.Contains(v.Describe(), "<em|") {
		t.Errorf("Describe lacks the mark:\n%s", v.Describe())
	}

	ch := change.Must(v.Doc().Len(), change.Change{From: 2, To: 2, Insert: "ph"})
	if err := v.Dispatch(Transaction{Changes: ch}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	check(t, v)
	if d := v.Decorations()[0].All()[0]; d.From() != 0 || d.To() != 7 {
		t.Errorf("mapped mark = [%d, %d), want [0, 7)", d.From(), d.To())
	}
}

func TestDispatchLengthMismatch(t *testing.T) {
	v := newView(t, lines(2), nil, viewport.Rect{Bottom: 140})
	err := v.Dispatch(Transaction{Changes: change.Must(3, change.Change{From: 0, Insert: "x"})})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("Dispatch = %v, want ErrLengthMismatch", err)
	}
}

func TestDispatchMapsSelection(t *testing.T) {
	v := newView(t, lines(5), nil, viewport.Rect{Bottom: 140})
	sel := viewport.Selection{Anchor: 6, Head: 8}
	if err := v.Dispatch(Transaction{Selection: &sel}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	ch := change.Must(v.Doc().Len(), change.Change{From: 0, Insert: "ab"})
	if err := v.Dispatch(Transaction{Changes: ch}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := v.Selection(); got != (viewport.Selection{Anchor: 8, Head: 10}) {
		t.Errorf("Selection = %+v, want {8 10}", got)
	}
}

func TestAbortKeepsState(t *testing.T) {
	v := newView(t, lines(10), nil, viewport.Rect{Bottom: 280, Right: 560})
	doc := v.Doc()
	before := v.Describe()

	// A tree describing another document fails the length check of the
	// next update.
	v.tree.Reset(text.Of("xy"), nil)
	old := v.surf

	ch := change.Must(doc.Len(), change.Change{From: 3, To: 3, Insert: "z"})
	err := v.Dispatch(Transaction{Changes: ch})
	if n := old.Live(); n != 0 {
		t.Errorf("discarded surface keeps %d live elements", n)
	}
	var abort *AbortError
	if !errors.As(err, &abort) {
		t.Fatalf("Dispatch = %v, want *AbortError", err)
	}
	var ie *docview.InvariantError
	if !errors.As(err, &ie) {
		t.Fatalf("Dispatch = %v, want a wrapped *docview.InvariantError", err)
	}
	if !v.Doc().Eq(doc) {
		t.Errorf("document changed to %q", v.Doc().String())
	}
	if got := v.Describe(); got != before {
		t.Errorf("content after abort:\n%s\nwant:\n%s", got, before)
	}
	check(t, v)

	if err := v.Dispatch(Transaction{Changes: ch}); err != nil {
		t.Fatalf("Dispatch after abort: %v", err)
	}
	check(t, v)
}

func TestScrollTo(t *testing.T) {
	v := newView(t, lines(1000), nil, viewport.Rect{Bottom: 280, Right: 560})
	if err := v.ScrollTo(5000); err != nil {
		t.Fatalf("ScrollTo: %v", err)
	}
	check(t, v)
	if vis := v.Visible(); vis.Top != 5000 || vis.Bottom != 5280 {
		t.Errorf("Visible = %+v", vis)
	}
	if vp := v.Viewport(); vp != (viewport.Viewport{From: 1785, To: 2244}) {
		t.Errorf("Viewport = %+v, want {1785 2244}", vp)
	}
	first := v.Surface().Root().Children()[0].View()
	if !first.Gap || first.Height != 357*14 {
		t.Errorf("first block = gap %v height %v, want a gap of %v", first.Gap, first.Height, 357*14)
	}
}

func TestFarBlockReplaceFoldsIntoGap(t *testing.T) {
	long := strings.Repeat("x", 1000)
	doc := text.Of(strings.Repeat("line\n", 10) + long + "\n" + strings.TrimSuffix(strings.Repeat("line\n", 989), "\n"))
	fold := decoration.Of(decoration.Must(decoration.NewReplace(50, 1050, decoration.Spec{
		Block:  true,
		Widget: decoration.TextWidget{Content: "fold", Height: 30},
	})))
	v := newView(t, doc, []*decoration.Set{fold}, viewport.Rect{Bottom: 280, Right: 560})
	check(t, v)
	head := content.Describe(v.tree.Blocks()[:12])
	if !strings.Contains(head, `block{"fold" len=1000} +br`) {
		t.Fatalf("fold not rendered near the top:\n%s", head)
	}

	if err := v.ScrollTo(v.ContentHeight() - 280); err != nil {
		t.Fatalf("ScrollTo: %v", err)
	}
	check(t, v)
	vp := v.Viewport()
	if vp.From <= 1051 {
		t.Fatalf("Viewport = %+v, want it past the fold", vp)
	}
	gap, ok := v.tree.Blocks()[0].(*content.BlockWidget)
	if !ok || !gap.Gap || gap.Len != vp.From-1 {
		t.Fatalf("first block = %s, want one gap over [0, %d)", content.Describe(v.tree.Blocks()[:1]), vp.From-1)
	}
	if top := v.LineAtPos(vp.From).Top; gap.Height != top {
		t.Errorf("gap height = %v, want the estimated height %v above the viewport", gap.Height, top)
	}
	if d := v.Describe(); strings.Contains(d, "fold") || strings.Contains(d, "xxx") {
		t.Error("folded line still rendered while scrolled away")
	}

	if err := v.ScrollTo(0); err != nil {
		t.Fatalf("ScrollTo(0): %v", err)
	}
	check(t, v)
	if got := content.Describe(v.tree.Blocks()[:12]); got != head {
		t.Errorf("content after scrolling back:\n%s\nwant:\n%s", got, head)
	}
	if got := v.Doc().Slice(50, 1050); got != long {
		t.Errorf("folded text changed to %q", got)
	}
}

func TestScrollTargetMovesViewport(t *testing.T) {
	v := newView(t, lines(1000), nil, viewport.Rect{Bottom: 280, Right: 560})
	target := viewport.ScrollTarget{Pos: 4495, Y: viewport.AlignStart}
	if err := v.Dispatch(Transaction{ScrollTarget: &target}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	check(t, v)
	if vp := v.Viewport(); !vp.Contains(4495) {
		t.Errorf("Viewport %+v does not include the target", vp)
	}
}

func TestLineGapsFollowSelection(t *testing.T) {
	v := newView(t, text.Of(strings.Repeat("a", 10000)), nil, viewport.Rect{Bottom: 140, Right: 563.5})
	check(t, v)
	want := []viewport.LineGap{{From: 2080, To: 10000, Size: 55440}}
	if got := v.LineGaps(); len(got) != 1 || got[0] != want[0] {
		t.Fatalf("LineGaps = %v, want %v", got, want)
	}

	sel := viewport.Selection{Anchor: 5000, Head: 5000}
	if err := v.Dispatch(Transaction{Selection: &sel}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	check(t, v)
	gaps := v.LineGaps()
	if len(gaps) != 2 || gaps[0].To != 4990 || gaps[1].From != 5010 {
		t.Errorf("LineGaps = %v, want a split around 5000", gaps)
	}
}

func TestResizeReestimates(t *testing.T) {
	doc := text.Of(strings.Repeat("a", 25) + "\nb")
	v := newView(t, doc, nil, viewport.Rect{Bottom: 140, Right: 70})
	if h := v.ContentHeight(); h != 28 {
		t.Fatalf("ContentHeight = %v, want 28", h)
	}
	if err := v.Resize(10, true); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	check(t, v)
	if h := v.ContentHeight(); h != 56 {
		t.Errorf("ContentHeight after wrapping = %v, want 56", h)
	}
	if top := v.LineAtPos(26).Top; top != 42 {
		t.Errorf("second line top = %v, want 42", top)
	}
}

func TestPaint(t *testing.T) {
	v := newView(t, text.Of("hello\nworld"), nil, viewport.Rect{Bottom: 42, Right: 70})
	if _, err := v.Paint(nil); !errors.Is(err, ErrNilBackend) {
		t.Errorf("Paint(nil) = %v, want ErrNilBackend", err)
	}
	b := backend.NewNullBackend(10, 3)
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	n, err := v.Paint(b)
	if err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if n != 2 || b.Row(0) != "hello" || b.Row(1) != "world" {
		t.Errorf("Paint drew %d rows: %q %q", n, b.Row(0), b.Row(1))
	}
}

func TestPaintBufferedFlushesChangedCells(t *testing.T) {
	v := newView(t, text.Of("hello\nworld"), nil, viewport.Rect{Bottom: 42, Right: 70})
	screen := backend.NewNullBackend(10, 3)
	b := backend.NewBufferedBackend(screen)
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := v.Paint(b); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if n := b.Flushed(); n != 30 {
		t.Errorf("first paint flushed %d cells, want 30", n)
	}
	if _, err := v.Paint(b); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if n := b.Flushed(); n != 0 {
		t.Errorf("unchanged paint flushed %d cells", n)
	}

	ch := change.Must(v.Doc().Len(), change.Change{From: 1, To: 2, Insert: "a"})
	if err := v.Dispatch(Transaction{Changes: ch}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, err := v.Paint(b); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if n := b.Flushed(); n != 1 {
		t.Errorf("edit flushed %d cells, want 1", n)
	}
	if screen.Row(0) != "hallo" || screen.Row(1) != "world" {
		t.Errorf("screen rows = %q %q", screen.Row(0), screen.Row(1))
	}
}

func randomInsert(rng *rand.Rand) string {
	const alphabet = "abc \n"
	var sb strings.Builder
	for k := rng.Intn(6); k > 0; k-- {
		sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
	}
	return sb.String()
}

func TestDispatchMatchesBuild(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		rng := rand.New(rand.NewSource(seed))
		v := newView(t, lines(200), nil, viewport.Rect{Bottom: 280, Right: 560})
		for step := 0; step < 80; step++ {
			var tx Transaction
			n := v.Doc().Len()
			switch rng.Intn(4) {
			case 0:
				from := rng.Intn(n)
				to := min(n, from+1+rng.Intn(8))
				set := v.NewSet(decoration.Must(decoration.NewMark(from, to, decoration.Spec{Class: "hl"})))
				tx.Decorations = []*decoration.Set{set}
			case 1:
				if err := v.ScrollTo(rng.Float64() * v.ContentHeight()); err != nil {
					t.Fatalf("seed %d step %d: ScrollTo: %v", seed, step, err)
				}
				check(t, v)
				continue
			default:
				from := rng.Intn(n + 1)
				to := min(n, from+rng.Intn(5))
				tx.Changes = change.Must(n, change.Change{From: from, To: to, Insert: randomInsert(rng)})
			}
			if err := v.Dispatch(tx); err != nil {
				t.Fatalf("seed %d step %d: %v", seed, step, err)
			}
			check(t, v)
		}
	}
}

func BenchmarkTyping(b *testing.B) {
	v, err := New(lines(100000), nil, Options{Width: 80, Visible: viewport.Rect{Bottom: 700, Right: 560}})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ch := change.Must(v.Doc().Len(), change.Change{From: 102, To: 102, Insert: "x"})
		if err := v.Dispatch(Transaction{Changes: ch}); err != nil {
			b.Fatal(err)
		}
	}
}
