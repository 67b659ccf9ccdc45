package viewport

import (
	"github.com/dshills/scrivener/internal/decoration"
)

// GapDecorations returns the placeholders for the current viewport: one
// block gap for the lines above it, one for the lines below it, and the
// line gaps. Gap heights come from the height map.
func (s *State) GapDecorations() *decoration.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, o := s.heights, s.oracle
	vp := s.viewport
	var decos []decoration.Decoration
	if vp.From > 1 {
		top := m.LineAtPos(vp.From, o).Top
		decos = append(decos, blockGap(0, vp.From-1, top))
	}
	if end := m.Length(); vp.To+1 < end {
		bottom := m.LineAtPos(vp.To, o).Bottom()
		decos = append(decos, blockGap(vp.To+1, end, m.Height()-bottom))
	}
	vertical := o.LineWrapping
	for _, g := range s.lineGaps {
		if g.From >= vp.From && g.To <= vp.To {
			decos = append(decos, g.Decoration(vertical))
		}
	}
	return decoration.Of(decos...)
}

func blockGap(from, to int, height float64) decoration.Decoration {
	return decoration.Must(decoration.NewReplace(from, to, decoration.Spec{
		Widget: GapWidget{Size: max(0, height), Vertical: true},
		Block:  true,
		Gap:    true,
	}))
}

// Scaler splits heights the surface cannot represent in one element.
type Scaler struct {
	Max float64
}

// Chunks returns heights, each at most s.Max, summing to h. Heights that
// fit are returned as is.
func (s Scaler) Chunks(h float64) []float64 {
	if h <= s.Max || s.Max <= 0 {
		return []float64{h}
	}
	n := int(h / s.Max)
	out := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, s.Max)
	}
	if rest := h - float64(n)*s.Max; rest > 0 {
		out = append(out, rest)
	}
	return out
}

// Scaler returns the scaler for the configured surface limit.
func (s *State) Scaler() Scaler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Scaler{Max: s.cfg.MaxSurfaceHeight}
}
