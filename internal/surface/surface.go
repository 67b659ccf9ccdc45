package surface

import (
	"math"
	"strings"
	"sync"

	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/docview"
	"github.com/dshills/scrivener/internal/heightmap"
	"github.com/dshills/scrivener/internal/viewport"
)

// Options configures a Surface.
type Options struct {
	// Width is the number of columns lines wrap at when Wrap is set.
	Width int
	Wrap  bool
	// LineHeight is the height of one row in pixels.
	LineHeight float64
	// TabWidth is the tab stop distance. Zero means DefaultTabWidth.
	TabWidth int
	// Registry resolves mark and line classes to styles.
	Registry *content.Registry
	// Scaler splits gap heights the surface cannot hold in one element.
	Scaler viewport.Scaler
}

// Stats counts element operations since the surface was created.
type Stats struct {
	Created  int
	Released int
	Writes   int
}

// Element is the surface counterpart of one content node.
type Element struct {
	s        *Surface
	kind     docview.Kind
	view     docview.NodeView
	children []*Element
	parent   *Element
	released bool
	chunks   []float64
}

// Release implements docview.Handle.
func (e *Element) Release() {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if e.released {
		panic("surface: element released twice")
	}
	e.released = true
	e.parent, e.children = nil, nil
	e.s.stats.Released++
}

// Kind returns the node kind e was created for.
func (e *Element) Kind() docview.Kind { return e.kind }

// View returns the node state last written to e.
func (e *Element) View() docview.NodeView { return e.view }

// Children returns the child elements in order.
func (e *Element) Children() []*Element { return e.children }

// Released reports whether the tree freed e.
func (e *Element) Released() bool { return e.released }

// Chunks returns the pieces a gap element is held in, summing to its
// height. It is nil for other elements.
func (e *Element) Chunks() []float64 { return e.chunks }

// Surface is a retained rendering surface. It implements docview.Surface.
type Surface struct {
	mu    sync.Mutex
	opts  Options
	root  *Element
	stats Stats
}

// New creates an empty surface.
func New(opts Options) *Surface {
	if opts.LineHeight <= 0 {
		opts.LineHeight = heightmap.DefaultLineHeight
	}
	if opts.Registry == nil {
		opts.Registry = content.NewRegistry()
	}
	if opts.Scaler.Max <= 0 {
		opts.Scaler.Max = viewport.DefaultMaxSurfaceHeight
	}
	return &Surface{opts: opts}
}

// SetWidth changes the wrap width. Measurements taken afterwards use it.
func (s *Surface) SetWidth(width int, wrap bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Width, s.opts.Wrap = width, wrap
}

// Stats returns the element counters.
func (s *Surface) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Live returns the number of elements not yet released.
func (s *Surface) Live() int {
	st := s.Stats()
	return st.Created - st.Released
}

// Root returns the document element, or nil before the first Sync.
func (s *Surface) Root() *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Create implements docview.Surface.
func (s *Surface) Create(kind docview.Kind) docview.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &Element{s: s, kind: kind}
	s.stats.Created++
	if kind == docview.KindDoc {
		s.root = e
	}
	return e
}

// Write implements docview.Surface.
func (s *Surface) Write(h docview.Handle, n docview.NodeView, children []docview.Handle) {
	e := h.(*Element)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.released {
		panic("surface: write to released element")
	}
	s.stats.Writes++
	e.view = n
	e.children = make([]*Element, len(children))
	for i, c := range children {
		child := c.(*Element)
		child.parent = e
		e.children[i] = child
	}
	e.chunks = nil
	if n.Kind == docview.KindBlock && n.Gap {
		e.chunks = s.opts.Scaler.Chunks(n.Height)
	}
}

// Measure returns the heights of the blocks from the one starting at
// from up to the next gap. It returns an empty measurement when no block
// starts at from.
func (s *Surface) Measure(from int) heightmap.MeasuredHeights {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := heightmap.MeasuredHeights{From: from}
	if s.root == nil {
		return out
	}
	pos := 0
	started := false
	for _, b := range s.root.children {
		if pos == from {
			started = true
		}
		if started {
			if b.view.Gap {
				if len(out.Heights) > 0 {
					break
				}
				started = false
			} else {
				out.Heights = append(out.Heights, s.blockHeight(b))
			}
		}
		pos += b.view.Length
		if b.view.BreakAfter {
			pos++
		}
	}
	return out
}

// blockHeight is the rendered height of a root child.
func (s *Surface) blockHeight(b *Element) float64 {
	lh := s.opts.LineHeight
	switch b.kind {
	case docview.KindBlock:
		if b.view.Gap {
			var h float64
			for _, c := range b.chunks {
				h += c
			}
			return h
		}
		if b.view.Widget == nil {
			return 0
		}
		if h := b.view.Widget.EstimatedHeight(); h >= 0 {
			return h
		}
		l := newLayout(s.wrapWidth(), s.opts.TabWidth)
		l.put(b.view.Widget.Text(), s.opts.Registry.Style(""))
		return float64(len(l.rows)) * lh
	case docview.KindLine:
		l, extra, tallest := s.layoutLine(b)
		return math.Max(float64(len(l.rows))*lh+extra, tallest)
	default:
		return 0
	}
}

func (s *Surface) wrapWidth() int {
	if s.opts.Wrap {
		return s.opts.Width
	}
	return 0
}

// layoutLine lays out a line element. extra is the height of vertical
// gaps inside the line and tallest the largest widget height.
func (s *Surface) layoutLine(line *Element) (l *layout, extra, tallest float64) {
	l = newLayout(s.wrapWidth(), s.opts.TabWidth)
	classes := line.view.Attrs["class"]
	var walk func(e *Element, classes string)
	walk = func(e *Element, classes string) {
		switch e.kind {
		case docview.KindText:
			l.put(e.view.Text, s.opts.Registry.Style(classes))
		case docview.KindMark:
			if e.view.Mark != nil {
				classes = joinClasses(classes, e.view.Mark.Class())
			}
			for _, c := range e.children {
				walk(c, classes)
			}
		case docview.KindWidget:
			w := e.view.Widget
			if w == nil {
				return
			}
			if g, ok := w.(viewport.GapWidget); ok {
				if g.Vertical {
					extra += g.Size
				}
				return
			}
			if h := w.EstimatedHeight(); h > tallest {
				tallest = h
			}
			l.put(w.Text(), s.opts.Registry.Style(joinClasses(classes, widgetClass)))
		}
	}
	for _, c := range line.children {
		walk(c, classes)
	}
	return l, extra, tallest
}

// widgetClass is the class inline widgets are styled with.
const widgetClass = "widget"

func joinClasses(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return strings.Join([]string{a, b}, " ")
}

var _ docview.Surface = (*Surface)(nil)
