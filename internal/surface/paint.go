package surface

import (
	"math"

	"github.com/dshills/scrivener/internal/docview"
	"github.com/dshills/scrivener/internal/renderer/backend"
	"github.com/dshills/scrivener/internal/renderer/core"
)

// Paint draws the document rows starting at pixel offset top onto b and
// shows them. Rows not covered by content are cleared. It returns the
// number of rows drawn.
func (s *Surface) Paint(b backend.Backend, top float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	width, height := b.Size()
	b.Clear()
	defer b.Show()
	if s.root == nil {
		return 0
	}
	lh := s.opts.LineHeight
	bottom := top + float64(height)*lh
	drawn := 0
	y := 0.0
	for _, blk := range s.root.children {
		h := s.blockHeight(blk)
		if y >= bottom {
			break
		}
		if y+h > top {
			row0 := int(math.Floor((y - top) / lh))
			for i, cells := range s.blockRows(blk) {
				if r := row0 + i; r >= 0 && r < height {
					drawRow(b, r, width, cells)
					drawn++
				}
			}
		}
		y += h
	}
	return drawn
}

// blockRows returns the laid out rows of a root child. Gaps have none.
func (s *Surface) blockRows(blk *Element) [][]core.Cell {
	switch blk.kind {
	case docview.KindLine:
		l, _, _ := s.layoutLine(blk)
		return l.rows
	case docview.KindBlock:
		if blk.view.Gap || blk.view.Widget == nil {
			return nil
		}
		l := newLayout(s.wrapWidth(), s.opts.TabWidth)
		l.put(blk.view.Widget.Text(), s.opts.Registry.Style(widgetClass))
		return l.rows
	}
	return nil
}

func drawRow(b backend.Backend, y, width int, cells []core.Cell) {
	for x, c := range cells {
		if x >= width {
			return
		}
		b.SetCell(x, y, c)
	}
}
