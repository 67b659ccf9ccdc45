package surface

import (
	"testing"

	"github.com/dshills/scrivener/internal/change"
	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/docview"
	"github.com/dshills/scrivener/internal/renderer/backend"
	"github.com/dshills/scrivener/internal/renderer/core"
	"github.com/dshills/scrivener/internal/text"
	"github.com/dshills/scrivener/internal/viewport"
)

type fixture struct {
	doc  text.Text
	sets []*decoration.Set
	tree *docview.Tree
	surf *Surface
}

func newFixture(t *testing.T, doc string, opts Options, decos ...decoration.Decoration) *fixture {
	t.Helper()
	if opts.Registry == nil {
		opts.Registry = content.NewRegistry()
	}
	f := &fixture{
		doc:  text.Of(doc),
		sets: []*decoration.Set{decoration.Of(decos...)},
		tree: docview.New(docview.Options{Registry: opts.Registry}),
		surf: New(opts),
	}
	f.tree.Reset(f.doc, f.sets)
	f.tree.Sync(f.surf)
	return f
}

func (f *fixture) edit(t *testing.T, c change.Change) {
	t.Helper()
	ch := change.Must(f.doc.Len(), c)
	next, err := ch.Apply(f.doc)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i, s := range f.sets {
		f.sets[i] = s.Map(ch)
	}
	oldLen := f.doc.Len()
	f.doc = next
	f.tree.Update(f.doc, ch.ChangedRanges(), f.sets, oldLen)
	f.tree.Sync(f.surf)
}

func equalHeights(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		opts  Options
		decos []decoration.Decoration
		from  int
		want  []float64
	}{
		{
			name: "plain lines",
			doc:  "one\ntwo\n\nfour",
			want: []float64{14, 14, 14, 14},
		},
		{
			name: "wrapped line",
			doc:  "aaaaaaaaaaaaaaaaaaaaaaaaa\nb",
			opts: Options{Width: 10, Wrap: true},
			want: []float64{42, 14},
		},
		{
			name: "unwrapped long line",
			doc:  "aaaaaaaaaaaaaaaaaaaaaaaaa",
			opts: Options{Width: 10},
			want: []float64{14},
		},
		{
			name: "tab expansion wraps",
			doc:  "\t\tabc",
			opts: Options{Width: 10, Wrap: true},
			want: []float64{28},
		},
		{
			name: "block widget with height",
			doc:  "one\ntwo",
			decos: []decoration.Decoration{
				decoration.Must(decoration.NewWidget(4, decoration.Spec{
					Widget: decoration.TextWidget{Content: "note", Height: 20},
					Block:  true,
					Side:   -1,
				})),
			},
			want: []float64{14, 20, 14},
		},
		{
			name: "block widget measured by its text",
			doc:  "one",
			decos: []decoration.Decoration{
				decoration.Must(decoration.NewWidget(3, decoration.Spec{
					Widget: decoration.TextWidget{Content: "abc"},
					Block:  true,
					Side:   1,
				})),
			},
			want: []float64{14, 14},
		},
		{
			name: "stops at gap",
			doc:  "one\ntwo\nthree\nfour",
			decos: []decoration.Decoration{
				decoration.Must(decoration.NewReplace(8, 18, decoration.Spec{
					Widget: viewport.GapWidget{Size: 28, Vertical: true},
					Block:  true,
					Gap:    true,
				})),
			},
			want: []float64{14, 14},
		},
		{
			name: "vertical line gap adds height",
			doc:  "abcdefghij",
			opts: Options{Width: 5, Wrap: true},
			decos: []decoration.Decoration{
				viewport.LineGap{From: 5, To: 10, Size: 70}.Decoration(true),
			},
			want: []float64{84},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.doc, tt.opts, tt.decos...)
			got := f.surf.Measure(tt.from)
			if got.From != tt.from || !equalHeights(got.Heights, tt.want) {
				t.Errorf("Measure(%d) = %+v, want heights %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestMeasureAfterLeadingGap(t *testing.T) {
	gap := decoration.Must(decoration.NewReplace(0, 7, decoration.Spec{
		Widget: viewport.GapWidget{Size: 28, Vertical: true},
		Block:  true,
		Gap:    true,
	}))
	f := newFixture(t, "one\ntwo\nthree\nfour", Options{}, gap)
	if got := f.surf.Measure(8); !equalHeights(got.Heights, []float64{14, 14}) {
		t.Errorf("Measure(8) = %v", got.Heights)
	}
	if got := f.surf.Measure(0); len(got.Heights) != 0 {
		t.Errorf("Measure(0) = %v, want nothing for a gap", got.Heights)
	}
	if got := f.surf.Measure(5); len(got.Heights) != 0 {
		t.Errorf("Measure(5) = %v, want nothing mid-line", got.Heights)
	}
}

func TestGapChunks(t *testing.T) {
	gap := decoration.Must(decoration.NewReplace(4, 7, decoration.Spec{
		Widget: viewport.GapWidget{Size: 15e6, Vertical: true},
		Block:  true,
		Gap:    true,
	}))
	f := newFixture(t, "one\ntwo", Options{}, gap)
	var el *Element
	for _, c := range f.surf.Root().Children() {
		if c.View().Gap {
			el = c
		}
	}
	if el == nil {
		t.Fatal("no gap element")
	}
	chunks := el.Chunks()
	if len(chunks) != 3 {
		t.Fatalf("chunks = %v, want 3", chunks)
	}
	if h := f.surf.blockHeight(el); h != 15e6 {
		t.Errorf("gap height = %v, want 15e6", h)
	}
}

func TestElementsFollowTree(t *testing.T) {
	f := newFixture(t, "alpha\nbeta\ngamma\ndelta", Options{},
		decoration.Must(decoration.NewMark(6, 10, decoration.Spec{Class: "kw"})))
	if f.surf.Live() != f.tree.Live() {
		t.Fatalf("surface holds %d elements, tree %d nodes", f.surf.Live(), f.tree.Live())
	}
	edits := []change.Change{
		{From: 6, To: 11},
		{From: 0, Insert: "new\n"},
		{From: 3, To: 9, Insert: "x"},
	}
	for i, c := range edits {
		f.edit(t, c)
		if f.surf.Live() != f.tree.Live() {
			t.Errorf("edit %d: surface holds %d elements, tree %d nodes", i, f.surf.Live(), f.tree.Live())
		}
	}
	if f.surf.Stats().Released == 0 {
		t.Error("no element was released")
	}
	for _, c := range f.surf.Root().Children() {
		if c.Released() {
			t.Error("released element still attached to the root")
		}
	}
}

func TestReleaseTwicePanics(t *testing.T) {
	s := New(Options{})
	h := s.Create(docview.KindText)
	h.Release()
	defer func() {
		if recover() == nil {
			t.Error("second Release did not panic")
		}
	}()
	h.Release()
}

func TestPaint(t *testing.T) {
	reg := content.NewRegistry()
	bold := core.DefaultStyle().WithAttributes(core.AttrBold)
	reg.DefineClass("kw", bold)
	f := newFixture(t, "hello\nworld\n世界", Options{Registry: reg},
		decoration.Must(decoration.NewMark(0, 5, decoration.Spec{Class: "kw"})))

	b := backend.NewNullBackend(10, 3)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if n := f.surf.Paint(b, 0); n != 3 {
		t.Errorf("Paint drew %d rows, want 3", n)
	}
	want := []string{"hello", "world", "世界"}
	for y, w := range want {
		if got := b.Row(y); got != w {
			t.Errorf("row %d = %q, want %q", y, got, w)
		}
	}
	if !b.GetCell(0, 0).Style.Equals(bold) {
		t.Errorf("marked cell style = %+v", b.GetCell(0, 0).Style)
	}
	if b.GetCell(0, 1).Style.Attributes.Has(core.AttrBold) {
		t.Error("unmarked cell is bold")
	}

	if n := f.surf.Paint(b, 14); n != 2 {
		t.Errorf("scrolled Paint drew %d rows, want 2", n)
	}
	if got := b.Row(0); got != "world" {
		t.Errorf("scrolled row 0 = %q", got)
	}
	if got := b.Row(2); got != "" {
		t.Errorf("scrolled row 2 = %q, want cleared", got)
	}
}

func TestPaintClipsAndWraps(t *testing.T) {
	f := newFixture(t, "abcdefghij\nk", Options{Width: 4, Wrap: true})
	b := backend.NewNullBackend(4, 5)
	_ = b.Init()
	f.surf.Paint(b, 0)
	want := []string{"abcd", "efgh", "ij", "k", ""}
	for y, w := range want {
		if got := b.Row(y); got != w {
			t.Errorf("row %d = %q, want %q", y, got, w)
		}
	}
}
