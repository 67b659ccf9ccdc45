package surface

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/scrivener/internal/renderer/core"
)

// DefaultTabWidth is the tab stop distance in columns.
const DefaultTabWidth = 4

// layout places text in rows of cells, wrapping at width when width is
// positive.
type layout struct {
	width int
	tab   int
	rows  [][]core.Cell
	col   int
}

func newLayout(width, tab int) *layout {
	if tab < 1 {
		tab = DefaultTabWidth
	}
	return &layout{width: width, tab: tab, rows: [][]core.Cell{nil}}
}

func (l *layout) newRow() {
	l.rows = append(l.rows, nil)
	l.col = 0
}

func (l *layout) cell(c core.Cell) {
	i := len(l.rows) - 1
	l.rows[i] = append(l.rows[i], c)
	l.col++
}

// put appends s one grapheme cluster at a time. Tabs expand to the next
// tab stop. Clusters without width are dropped.
func (l *layout) put(s string, style core.Style) {
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		w := g.Width()
		if cluster == "\t" {
			w = l.tab - l.col%l.tab
		}
		if w == 0 {
			continue
		}
		if l.width > 0 && l.col > 0 && l.col+w > l.width {
			l.newRow()
		}
		if cluster == "\t" {
			for range w {
				l.cell(core.Cell{Rune: ' ', Width: 1, Style: style})
			}
			continue
		}
		l.cell(core.Cell{Rune: g.Runes()[0], Width: w, Style: style})
		for range w - 1 {
			l.cell(core.ContinuationCell())
		}
	}
}
