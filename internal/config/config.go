package config

import (
	"errors"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Config holds every tuning constant of the engine.
type Config struct {
	Decorations DecorationConfig `toml:"decorations" yaml:"decorations"`
	Content     ContentConfig    `toml:"content" yaml:"content"`
	Viewport    ViewportConfig   `toml:"viewport" yaml:"viewport"`
	Heights     HeightConfig     `toml:"heights" yaml:"heights"`
	Surface     SurfaceConfig    `toml:"surface" yaml:"surface"`
	View        ViewConfig       `toml:"view" yaml:"view"`
	Log         LogConfig        `toml:"log" yaml:"log"`
}

// DecorationConfig configures decoration sets.
type DecorationConfig struct {
	// LeafSize is the branching factor of decoration set nodes.
	LeafSize int `toml:"leaf_size" yaml:"leaf_size"`
}

// ContentConfig configures content building and reconciliation.
type ContentConfig struct {
	MaxTextRun    int `toml:"max_text_run" yaml:"max_text_run"`
	MaxJoinLength int `toml:"max_join_length" yaml:"max_join_length"`
}

// ViewportConfig configures viewport computation and line gaps.
type ViewportConfig struct {
	Margin           float64 `toml:"margin" yaml:"margin"`
	MinCoverMargin   float64 `toml:"min_cover_margin" yaml:"min_cover_margin"`
	MaxCoverMargin   float64 `toml:"max_cover_margin" yaml:"max_cover_margin"`
	GapMargin        int     `toml:"gap_margin" yaml:"gap_margin"`
	GapMarginWrap    int     `toml:"gap_margin_wrap" yaml:"gap_margin_wrap"`
	GapSelectionPad  int     `toml:"gap_selection_pad" yaml:"gap_selection_pad"`
	RemapThreshold   int     `toml:"remap_threshold" yaml:"remap_threshold"`
	MaxSurfaceHeight float64 `toml:"max_surface_height" yaml:"max_surface_height"`
	// MarginSplit is the share of the margin kept above the visible area.
	MarginSplit float64 `toml:"margin_split" yaml:"margin_split"`
}

// HeightConfig configures the height estimates.
type HeightConfig struct {
	LineHeight   float64 `toml:"line_height" yaml:"line_height"`
	CharWidth    float64 `toml:"char_width" yaml:"char_width"`
	LineLength   float64 `toml:"line_length" yaml:"line_length"`
	LineWrapping bool    `toml:"line_wrapping" yaml:"line_wrapping"`
}

// SurfaceConfig configures the rendering surface.
type SurfaceConfig struct {
	TabWidth int `toml:"tab_width" yaml:"tab_width"`
}

// ViewConfig configures the update cycle.
type ViewConfig struct {
	// MaxMeasurePasses bounds the measure and rewrite passes of one update.
	MaxMeasurePasses int `toml:"max_measure_passes" yaml:"max_measure_passes"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zerolog level name. Empty disables logging.
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Decorations: DecorationConfig{LeafSize: 8},
		Content:     ContentConfig{MaxTextRun: 512, MaxJoinLength: 256},
		Viewport: ViewportConfig{
			Margin:           1000,
			MinCoverMargin:   10,
			MaxCoverMargin:   250,
			GapMargin:        2000,
			GapMarginWrap:    10000,
			GapSelectionPad:  10,
			RemapThreshold:   1000,
			MaxSurfaceHeight: 7e6,
			MarginSplit:      0.5,
		},
		Heights: HeightConfig{LineHeight: 14, CharWidth: 7, LineLength: 30},
		Surface: SurfaceConfig{TabWidth: 4},
		View:    ViewConfig{MaxMeasurePasses: 5},
	}
}

// LogLevel returns the configured level, zerolog.Disabled when unset.
func (c Config) LogLevel() zerolog.Level {
	if c.Log.Level == "" {
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.Disabled
	}
	return lvl
}

// Validate checks every setting and returns the failures joined. Each
// failure matches ErrValidationFailed.
func (c Config) Validate() error {
	var errs []error
	positive := func(path string, v float64) {
		if v <= 0 {
			errs = append(errs, &ValidationError{Path: path, Message: "must be positive", Value: v})
		}
	}
	positive("decorations.leaf_size", float64(c.Decorations.LeafSize))
	positive("content.max_text_run", float64(c.Content.MaxTextRun))
	positive("content.max_join_length", float64(c.Content.MaxJoinLength))
	positive("viewport.margin", c.Viewport.Margin)
	positive("viewport.min_cover_margin", c.Viewport.MinCoverMargin)
	positive("viewport.max_cover_margin", c.Viewport.MaxCoverMargin)
	positive("viewport.gap_margin", float64(c.Viewport.GapMargin))
	positive("viewport.gap_margin_wrap", float64(c.Viewport.GapMarginWrap))
	positive("viewport.gap_selection_pad", float64(c.Viewport.GapSelectionPad))
	positive("viewport.remap_threshold", float64(c.Viewport.RemapThreshold))
	positive("viewport.max_surface_height", c.Viewport.MaxSurfaceHeight)
	positive("heights.line_height", c.Heights.LineHeight)
	positive("heights.char_width", c.Heights.CharWidth)
	positive("surface.tab_width", float64(c.Surface.TabWidth))
	positive("view.max_measure_passes", float64(c.View.MaxMeasurePasses))

	if c.Decorations.LeafSize == 1 {
		errs = append(errs, &ValidationError{Path: "decorations.leaf_size", Message: "must be at least 2", Value: 1})
	}
	if c.Viewport.MinCoverMargin > c.Viewport.MaxCoverMargin {
		errs = append(errs, &ValidationError{
			Path:    "viewport.min_cover_margin",
			Message: "exceeds max_cover_margin",
			Value:   c.Viewport.MinCoverMargin,
		})
	}
	if c.Viewport.MaxCoverMargin > c.Viewport.Margin {
		errs = append(errs, &ValidationError{
			Path:    "viewport.max_cover_margin",
			Message: "exceeds margin",
			Value:   c.Viewport.MaxCoverMargin,
		})
	}
	if s := c.Viewport.MarginSplit; s <= 0 || s > 1 {
		errs = append(errs, &ValidationError{Path: "viewport.margin_split", Message: "must be in (0, 1]", Value: s})
	}
	if c.Heights.LineLength <= 5 {
		errs = append(errs, &ValidationError{Path: "heights.line_length", Message: "must exceed 5", Value: c.Heights.LineLength})
	}
	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, &ValidationError{Path: "log.level", Message: "unknown level", Value: c.Log.Level})
		}
	}
	return errors.Join(errs...)
}

// WriteTOML writes c as a TOML document.
func (c Config) WriteTOML(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}
