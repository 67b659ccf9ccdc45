package content

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/renderer/core"
	"github.com/dshills/scrivener/internal/text"
)

func mark(from, to int, tag string) decoration.Decoration {
	return decoration.Must(decoration.NewMark(from, to, decoration.Spec{Tag: tag}))
}

func widget(text string) decoration.Widget {
	return decoration.TextWidget{Content: text}
}

func build(doc string, from, to int, decos ...decoration.Decoration) Result {
	d := text.Of(doc)
	return Build(d, from, to, []*decoration.Set{decoration.Of(decos...)}, Options{})
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		decos []decoration.Decoration
		want  string
	}{
		{
			name: "plain lines",
			doc:  "ab\ncd",
			want: "line(\"ab\") +br\nline(\"cd\")\n",
		},
		{
			name: "trailing break",
			doc:  "ab\n",
			want: "line(\"ab\") +br\nline()\n",
		},
		{
			name: "empty document",
			doc:  "",
			want: "line()\n",
		},
		{
			name:  "nested marks",
			doc:   "hello",
			decos: []decoration.Decoration{mark(0, 5, "em"), mark(2, 3, "strong")},
			want:  "line(<em|>(\"he\" <strong|>(\"l\") \"lo\"))\n",
		},
		{
			name:  "mark across lines",
			doc:   "ab\ncd",
			decos: []decoration.Decoration{mark(1, 4, "em")},
			want:  "line(\"a\" <em|>(\"b\")) +br\nline(<em|>(\"c\") \"d\")\n",
		},
		{
			name: "inline widget inside mark",
			doc:  "abcd",
			decos: []decoration.Decoration{
				mark(0, 4, "em"),
				decoration.Must(decoration.NewWidget(2, decoration.Spec{Widget: widget("W")})),
			},
			want: "line(<em|>(\"ab\" {\"W\" len=0} \"cd\"))\n",
		},
		{
			name: "inline replace across a break",
			doc:  "ab\ncd",
			decos: []decoration.Decoration{
				decoration.Must(decoration.NewReplace(1, 4, decoration.Spec{Widget: widget("…")})),
			},
			want: "line(\"a\" {\"…\" len=3} \"d\")\n",
		},
		{
			name: "block replace over a line",
			doc:  "a\nxxxx\nb",
			decos: []decoration.Decoration{
				decoration.Must(decoration.NewReplace(2, 6, decoration.Spec{Block: true, Widget: widget("fold")})),
			},
			want: "line(\"a\") +br\nblock{\"fold\" len=4} +br\nline(\"b\")\n",
		},
		{
			name: "block widget before a line",
			doc:  "abc",
			decos: []decoration.Decoration{
				decoration.Must(decoration.NewWidget(0, decoration.Spec{Block: true, Side: -1, Widget: widget("hdr")})),
			},
			want: "block{\"hdr\" len=0}\nline(\"abc\")\n",
		},
		{
			name: "block widget after a line",
			doc:  "abc\nd",
			decos: []decoration.Decoration{
				decoration.Must(decoration.NewWidget(3, decoration.Spec{Block: true, Side: 1, Widget: widget("ftr")})),
			},
			want: "line(\"abc\")\nblock{\"ftr\" len=0} +br\nline(\"d\")\n",
		},
		{
			name: "line decorations combine",
			doc:  "ab\ncd",
			decos: []decoration.Decoration{
				decoration.Must(decoration.NewLine(3, decoration.Spec{Class: "one"})),
				decoration.Must(decoration.NewLine(3, decoration.Spec{Class: "two", Attrs: map[string]string{"title": "t"}})),
			},
			want: "line(\"ab\") +br\nline[class=one two title=t](\"cd\")\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(build(tt.doc, 0, len(tt.doc), tt.decos...).Content)
			if got != tt.want {
				t.Errorf("Describe =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestBuildEmptyRange(t *testing.T) {
	res := build("abc\ndef", 5, 5)
	if len(res.Content) != 1 {
		t.Fatalf("content = %d blocks, want 1", len(res.Content))
	}
	line, ok := res.Content[0].(*Line)
	if !ok || len(line.Children) != 0 {
		t.Errorf("want one empty line, got %s", Describe(res.Content))
	}
}

func TestBuildLengthMatchesRange(t *testing.T) {
	doc := "one\ntwo three\n\nfour"
	res := build(doc, 0, len(doc), mark(2, 9, "m"),
		decoration.Must(decoration.NewReplace(4, 13, decoration.Spec{Block: true, Widget: widget("x")})))
	if got := Length(res.Content); got != len(doc) {
		t.Errorf("Length = %d, want %d", got, len(doc))
	}
}

func TestBuildBreakAtStart(t *testing.T) {
	res := build("ab\ncd", 2, 5)
	if !res.BreakAtStart {
		t.Error("BreakAtStart should be set for a range starting at a line end")
	}
	if got := Describe(res.Content); got != "line(\"cd\")\n" {
		t.Errorf("Describe = %q", got)
	}
	if build("ab\ncd", 0, 5).BreakAtStart {
		t.Error("BreakAtStart set for a range starting at a line start")
	}
}

func TestBuildOpenBits(t *testing.T) {
	res := build("hello world", 2, 8, mark(0, 11, "m"),
		decoration.Must(decoration.NewReplace(7, 10, decoration.Spec{Widget: widget("r")})))
	line := res.Content[0].(*Line)
	m, ok := line.Children[0].(*Mark)
	if !ok {
		t.Fatalf("first child = %T", line.Children[0])
	}
	if m.Open != OpenStart|OpenEnd {
		t.Errorf("mark open = %b, want start|end", m.Open)
	}
	w := m.Children[len(m.Children)-1].(*InlineWidget)
	if w.Open != OpenEnd || w.Len != 1 {
		t.Errorf("clipped widget open = %b len = %d", w.Open, w.Len)
	}
}

func TestBuildCapsTextRuns(t *testing.T) {
	doc := strings.Repeat("abcdefgh", 200)
	res := Build(text.Of(doc), 0, len(doc), nil, Options{MaxTextRun: 100})
	line := res.Content[0].(*Line)
	total := 0
	for _, c := range line.Children {
		tx := c.(*Text)
		if len(tx.Text) > 100 {
			t.Fatalf("text run of %d bytes", len(tx.Text))
		}
		total += len(tx.Text)
	}
	if total != len(doc) || len(line.Children) < 16 {
		t.Errorf("runs = %d covering %d bytes", len(line.Children), total)
	}
}

func TestBuildRunsOutOfText(t *testing.T) {
	defer func() {
		r := recover()
		var ie *InvariantError
		err, _ := r.(error)
		if !errors.As(err, &ie) {
			t.Fatalf("recovered %v, want *InvariantError", r)
		}
	}()
	build("abc", 0, 10)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	a := reg.Mark(&decoration.Spec{Tag: "em", Class: "x"})
	b := reg.Mark(&decoration.Spec{Tag: "em", Attrs: map[string]string{"class": "x"}})
	c := reg.Mark(&decoration.Spec{Tag: "em", Class: "y"})
	if a != b {
		t.Error("equal attribute sets should intern to one pointer")
	}
	if a.Eq(c) || reg.Len() != 2 {
		t.Errorf("distinct sets: eq=%v len=%d", a.Eq(c), reg.Len())
	}
	reg.DefineClass("kw", core.DefaultStyle().WithAttributes(core.AttrBold))
	reg.DefineClass("err", core.DefaultStyle().WithForeground(core.ColorWhite))
	st := reg.Style("kw unknown err")
	if !st.Attributes.Has(core.AttrBold) || !st.Foreground.Equals(core.ColorWhite) {
		t.Errorf("Style = %+v", st)
	}
}

func TestCombine(t *testing.T) {
	got := Combine(Attrs{"class": "a", "style": "color:red;", "id": "1"}, Attrs{"class": "b", "style": "x:y", "id": "2"})
	if got["class"] != "a b" || got["style"] != "color:red;x:y" || got["id"] != "2" {
		t.Errorf("Combine = %v", got)
	}
}
