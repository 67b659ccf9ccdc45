package viewport

// Default tuning constants.
const (
	DefaultMargin           = 1000
	DefaultMinCoverMargin   = 10
	DefaultMaxCoverMargin   = DefaultMargin / 4
	DefaultGapMargin        = 2000
	DefaultGapMarginWrap    = 10000
	DefaultGapSelectionPad  = 10
	DefaultRemapThreshold   = 1000
	DefaultMaxSurfaceHeight = 7e6
	DefaultMarginSplit      = 0.5
)

// Config holds the viewport tuning constants. Zero fields take their
// defaults.
type Config struct {
	// Margin is the extra height rendered around the visible area, in
	// pixels.
	Margin float64
	// MinCoverMargin and MaxCoverMargin bound the margin a viewport must
	// keep beyond the visible area to stay in use.
	MinCoverMargin float64
	MaxCoverMargin float64
	// GapMargin is the number of characters rendered past the visible
	// part of a long line. Lines shorter than twice the margin are never
	// gapped. GapMarginWrap applies when lines wrap.
	GapMargin     int
	GapMarginWrap int
	// GapSelectionPad is the distance gaps keep from selection endpoints.
	GapSelectionPad int
	// RemapThreshold is the document size change above which MapViewport
	// recomputes the viewport instead of mapping it.
	RemapThreshold int
	// MaxSurfaceHeight is the tallest element the surface represents
	// faithfully.
	MaxSurfaceHeight float64
	// MarginSplit is the share of Margin placed above the visible area
	// when not scrolling. Scrolling shifts it towards the scroll
	// direction.
	MarginSplit float64
}

// DefaultConfig returns the default tuning constants.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Margin <= 0 {
		c.Margin = DefaultMargin
	}
	if c.MinCoverMargin <= 0 {
		c.MinCoverMargin = DefaultMinCoverMargin
	}
	if c.MaxCoverMargin <= 0 {
		c.MaxCoverMargin = c.Margin / 4
	}
	if c.MarginSplit <= 0 || c.MarginSplit > 1 {
		c.MarginSplit = DefaultMarginSplit
	}
	if c.GapMargin <= 0 {
		c.GapMargin = DefaultGapMargin
	}
	if c.GapMarginWrap <= 0 {
		c.GapMarginWrap = DefaultGapMarginWrap
	}
	if c.GapSelectionPad <= 0 {
		c.GapSelectionPad = DefaultGapSelectionPad
	}
	if c.RemapThreshold <= 0 {
		c.RemapThreshold = DefaultRemapThreshold
	}
	if c.MaxSurfaceHeight <= 0 {
		c.MaxSurfaceHeight = DefaultMaxSurfaceHeight
	}
	return c
}
