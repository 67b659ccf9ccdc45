// Package viewport decides which part of the document is materialized.
//
// A State combines the visible pixel rectangle with the height map to
// compute a Viewport, the document range the content tree renders in
// full. Content outside the viewport is stood in for by gap
// placeholders, and so are the far parts of lines too long to render
// whole.
package viewport

import (
	"math"
	"sync"

	"github.com/dshills/scrivener/internal/change"
	"github.com/dshills/scrivener/internal/heightmap"
)

// Viewport is a materialized document range. Both ends fall on line
// boundaries.
type Viewport struct {
	From int
	To   int
}

// Contains reports whether pos lies in the viewport.
func (v Viewport) Contains(pos int) bool { return pos >= v.From && pos <= v.To }

// Rect is the visible area in content pixels.
type Rect struct {
	Top, Bottom float64
	Left, Right float64
}

// Height returns the height of r.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Width returns the width of r.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Align places a scroll target in the visible area.
type Align uint8

const (
	AlignNearest Align = iota
	AlignStart
	AlignCenter
	AlignEnd
)

// ScrollTarget is a position that must end up materialized.
type ScrollTarget struct {
	Pos int
	Y   Align
}

// State is the viewport state of one editing surface. It is written by
// the update cycle and may be read concurrently.
type State struct {
	mu sync.RWMutex

	cfg     Config
	heights *heightmap.Map
	oracle  *heightmap.Oracle
	visible Rect
	bias    float64

	viewport Viewport
	lineGaps []LineGap
	margins  MarginConfig
}

// NewState creates a state over the given height map.
func NewState(cfg Config, heights *heightmap.Map, oracle *heightmap.Oracle) *State {
	s := &State{
		cfg:     cfg.withDefaults(),
		heights: heights,
		oracle:  oracle,
		margins: DefaultMargins(),
	}
	s.viewport = s.getViewport(0, nil)
	return s
}

// Config returns the tuning constants in use.
func (s *State) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetHeightMap replaces the height map, after edits or measurement.
func (s *State) SetHeightMap(m *heightmap.Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heights = m
}

// HeightMap returns the current height map.
func (s *State) HeightMap() *heightmap.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heights
}

// Visible returns the visible rectangle.
func (s *State) Visible() Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

// Viewport returns the current viewport.
func (s *State) Viewport() Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// LineGaps returns the current line gaps.
func (s *State) LineGaps() []LineGap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lineGaps
}

// SetLineGaps replaces the current line gaps.
func (s *State) SetLineGaps(gaps []LineGap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lineGaps = gaps
}

// Bias returns the direction of the last visible area change: positive
// when it moved down, negative when it moved up.
func (s *State) Bias() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bias
}

// GetViewport computes the viewport for the visible area, extending the
// margin in the direction given by bias, and moving it to include target
// when target falls outside.
func (s *State) GetViewport(bias float64, target *ScrollTarget) Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getViewport(bias, target)
}

func (s *State) getViewport(bias float64, target *ScrollTarget) Viewport {
	margin := s.cfg.Margin
	marginTop := math.Max(0, math.Min(1, s.cfg.MarginSplit-bias/margin/2))
	m, o := s.heights, s.oracle
	vp := Viewport{
		From: m.LineAtHeight(s.visible.Top-marginTop*margin, o).From,
		To:   m.LineAtHeight(s.visible.Bottom+(1-marginTop)*margin, o).To(),
	}
	if target == nil || vp.Contains(target.Pos) {
		return vp
	}
	viewHeight := s.visible.Height()
	block := m.LineAtPos(target.Pos, o)
	var top float64
	switch {
	case target.Y == AlignCenter:
		top = (block.Top+block.Bottom())/2 - viewHeight/2
	case target.Y == AlignStart || target.Y == AlignNearest && target.Pos < vp.From:
		top = block.Top
	default:
		top = block.Bottom() - viewHeight
	}
	return Viewport{
		From: m.LineAtHeight(top-margin/2, o).From,
		To:   m.LineAtHeight(top+viewHeight+margin/2, o).To(),
	}
}

// IsCovering reports whether vp still covers the visible area with enough
// margin on both sides, and not so much that it renders far more than
// needed.
func (s *State) IsCovering(vp Viewport, bias float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isCovering(vp, bias)
}

func (s *State) isCovering(vp Viewport, bias float64) bool {
	m, o := s.heights, s.oracle
	top := m.LineAtPos(vp.From, o).Top
	bottom := m.LineAtPos(vp.To, o).Bottom()
	minC, maxC := s.cfg.MinCoverMargin, s.cfg.MaxCoverMargin
	return (vp.From == 0 || top <= s.visible.Top-math.Max(minC, math.Min(-bias, maxC))) &&
		(vp.To == m.Length() || bottom >= s.visible.Bottom+math.Max(minC, math.Min(bias, maxC))) &&
		top > s.visible.Top-2*s.cfg.Margin && bottom < s.visible.Bottom+2*s.cfg.Margin
}

// MapViewport moves vp through changes. The height map must already
// describe the new document. Large changes re-derive the viewport from
// the height map, since offset mapping compounds estimation error.
func (s *State) MapViewport(vp Viewport, changes *change.Set) Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d := changes.LengthB() - changes.LengthA(); d > s.cfg.RemapThreshold || -d > s.cfg.RemapThreshold {
		return s.getViewport(0, nil)
	}
	from := changes.MapPos(vp.From, -1)
	to := changes.MapPos(vp.To, 1)
	return Viewport{
		From: s.heights.LineAtPos(from, s.oracle).From,
		To:   s.heights.LineAtPos(to, s.oracle).To(),
	}
}

// Update recomputes the viewport when the current one no longer covers
// the visible area, or when target falls outside it. It reports whether
// the viewport changed.
func (s *State) Update(target *ScrollTarget) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	vp := s.viewport
	if vp.To > s.heights.Length() || !s.isCovering(vp, s.bias) || target != nil && !vp.Contains(target.Pos) {
		vp = s.getViewport(s.bias, target)
	}
	if vp == s.viewport {
		return false
	}
	s.viewport = vp
	return true
}

// SetViewport sets the viewport, typically to the result of MapViewport.
func (s *State) SetViewport(vp Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = vp
}
