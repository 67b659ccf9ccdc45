package viewport

import "math"

// ScrollDirection represents the scroll direction.
type ScrollDirection uint8

const (
	ScrollNone ScrollDirection = iota
	ScrollUp
	ScrollDown
)

func (d ScrollDirection) String() string {
	switch d {
	case ScrollUp:
		return "up"
	case ScrollDown:
		return "down"
	default:
		return "none"
	}
}

// SetVisible sets the visible rectangle and returns the resulting bias.
// The bias follows the larger edge movement when both edges move the
// same way, and is zero otherwise.
func (s *State) SetVisible(r Rect) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	dTop, dBottom := r.Top-s.visible.Top, r.Bottom-s.visible.Bottom
	s.bias = 0
	switch {
	case dTop > 0 && dBottom > 0:
		s.bias = math.Max(dTop, dBottom)
	case dTop < 0 && dBottom < 0:
		s.bias = math.Min(dTop, dBottom)
	}
	s.visible = r
	return s.bias
}

// ScrollTo moves the visible area so it starts at top, keeping its size.
// top is clamped to the content height.
func (s *State) ScrollTo(top float64) float64 {
	s.mu.RLock()
	r := s.visible
	limit := math.Max(0, s.heights.Height()-r.Height())
	s.mu.RUnlock()

	top = math.Max(0, math.Min(top, limit))
	h := r.Height()
	r.Top, r.Bottom = top, top+h
	return s.SetVisible(r)
}

// ScrollingDirection returns the direction of the last scroll.
func (s *State) ScrollingDirection() ScrollDirection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.bias > 0:
		return ScrollDown
	case s.bias < 0:
		return ScrollUp
	default:
		return ScrollNone
	}
}

// ScrollPercent returns how far through the content the visible area is,
// from 0 to 1.
func (s *State) ScrollPercent() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit := s.heights.Height() - s.visible.Height()
	if limit <= 0 {
		return 0
	}
	return math.Min(1, s.visible.Top/limit)
}

// RevealTop returns the visible top that brings the line at pos into
// view with the scroll margins kept, and whether scrolling is needed.
func (s *State) RevealTop(pos int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line := s.heights.LineAtPos(pos, s.oracle)
	mTop, mBottom, _, _ := s.effectiveMargins()
	switch {
	case line.Top < s.visible.Top+mTop:
		return math.Max(0, line.Top-mTop), true
	case line.Bottom() > s.visible.Bottom-mBottom:
		return line.Bottom() + mBottom - s.visible.Height(), true
	}
	return s.visible.Top, false
}
