package viewport

// MarginConfig holds scroll margin configuration.
type MarginConfig struct {
	Top    int // Rows to keep above the cursor
	Bottom int // Rows to keep below the cursor
	Left   int // Columns to keep left of the cursor
	Right  int // Columns to keep right of the cursor
}

// DefaultMargins returns sensible default margins.
func DefaultMargins() MarginConfig {
	return MarginConfig{Top: 5, Bottom: 5, Left: 10, Right: 10}
}

// CompactMargins returns smaller margins for compact views.
func CompactMargins() MarginConfig {
	return MarginConfig{Top: 2, Bottom: 2, Left: 5, Right: 5}
}

// NoMargins returns zero margins (cursor can go to edge).
func NoMargins() MarginConfig {
	return MarginConfig{}
}

// SetMargins sets the scroll margins.
func (s *State) SetMargins(m MarginConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.margins = m
}

// Margins returns the configured scroll margins.
func (s *State) Margins() MarginConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.margins
}

// maxMarginRatio limits margins to 1/3 of the visible size so there is
// always usable space in the center.
const maxMarginRatio = 3

// EffectiveMargins returns the margins in pixels, clamped to the visible
// area.
func (s *State) EffectiveMargins() (top, bottom, left, right float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effectiveMargins()
}

func (s *State) effectiveMargins() (top, bottom, left, right float64) {
	lh, cw := s.oracle.LineHeight, s.oracle.CharWidth
	maxV := s.visible.Height() / maxMarginRatio
	maxH := s.visible.Width() / maxMarginRatio
	return min(float64(s.margins.Top)*lh, maxV), min(float64(s.margins.Bottom)*lh, maxV),
		min(float64(s.margins.Left)*cw, maxH), min(float64(s.margins.Right)*cw, maxH)
}
