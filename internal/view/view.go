package view

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/scrivener/internal/config"
	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/docview"
	"github.com/dshills/scrivener/internal/heightmap"
	"github.com/dshills/scrivener/internal/surface"
	"github.com/dshills/scrivener/internal/text"
	"github.com/dshills/scrivener/internal/viewport"
)

// Options configures a View.
type Options struct {
	// Config supplies the tuning constants. Nil means config.Default().
	Config *config.Config
	// Logger receives the view's log events. Nil disables logging.
	Logger *zerolog.Logger
	// Registry resolves decoration classes to styles. Nil creates one.
	Registry *content.Registry
	// Width is the surface width in columns.
	Width int
	// Visible is the initial visible rectangle, in pixels.
	Visible viewport.Rect
	// Selection is the initial selection.
	Selection viewport.Selection
}

// Stats describes the last update.
type Stats struct {
	// Tree holds the node counters of the last reconciliation.
	Tree docview.Stats
	// Written is the number of nodes synced to the surface.
	Written int
	// Passes is the number of measure passes run.
	Passes int
}

// View is one editing surface over a document. It is safe for
// concurrent use; operations are serialized.
type View struct {
	mu  sync.Mutex
	id  uuid.UUID
	log zerolog.Logger
	cfg config.Config

	doc  text.Text
	sets []*decoration.Set
	gap  *decoration.Set
	sel  viewport.Selection

	oracle *heightmap.Oracle
	state  *viewport.State

	treeOpts docview.Options
	tree     *docview.Tree
	surfOpts surface.Options
	surf     *surface.Surface

	stats Stats
}

// New creates a view of doc decorated by sets, renders its viewport and
// measures it.
func New(doc text.Text, sets []*decoration.Set, opts Options) (*View, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("view config: %w", err)
	}
	reg := opts.Registry
	if reg == nil {
		reg = content.NewRegistry()
	}

	v := &View{
		id:   uuid.New(),
		cfg:  cfg,
		doc:  doc,
		sets: sets,
		sel:  opts.Selection,
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	v.log = log.With().Str("view", v.id.String()).Logger()

	h := cfg.Heights
	v.oracle = heightmap.NewOracle(doc)
	v.oracle.Refresh(h.LineWrapping, h.LineHeight, h.CharWidth, lineLength(h, opts.Width), nil)

	v.treeOpts = docview.Options{
		MaxJoinLength: cfg.Content.MaxJoinLength,
		MaxTextRun:    cfg.Content.MaxTextRun,
		Registry:      reg,
	}
	v.surfOpts = surface.Options{
		Width:      opts.Width,
		Wrap:       h.LineWrapping,
		LineHeight: h.LineHeight,
		TabWidth:   cfg.Surface.TabWidth,
		Registry:   reg,
		Scaler:     viewport.Scaler{Max: cfg.Viewport.MaxSurfaceHeight},
	}
	v.tree = docview.New(v.treeOpts)
	v.surf = surface.New(v.surfOpts)

	v.state = viewport.NewState(viewportConfig(cfg), heightmap.New(sets, v.oracle), v.oracle)
	v.state.SetVisible(opts.Visible)
	v.state.SetViewport(v.state.GetViewport(0, nil))

	err := v.guard("create", func() error {
		v.state.EnsureLineGaps(nil, sets, v.sel, nil)
		v.gap = v.state.GapDecorations()
		v.tree.Reset(doc, v.layers())
		v.stats = Stats{Tree: v.tree.Stats(), Written: v.tree.Sync(v.surf)}
		v.stats.Passes = v.measure(nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	v.log.Debug().
		Int("length", doc.Len()).
		Int("layers", len(sets)).
		Float64("height", v.state.HeightMap().Height()).
		Msg("view created")
	return v, nil
}

func viewportConfig(cfg config.Config) viewport.Config {
	c := cfg.Viewport
	return viewport.Config{
		Margin:           c.Margin,
		MinCoverMargin:   c.MinCoverMargin,
		MaxCoverMargin:   c.MaxCoverMargin,
		GapMargin:        c.GapMargin,
		GapMarginWrap:    c.GapMarginWrap,
		GapSelectionPad:  c.GapSelectionPad,
		RemapThreshold:   c.RemapThreshold,
		MaxSurfaceHeight: c.MaxSurfaceHeight,
		MarginSplit:      c.MarginSplit,
	}
}

// lineLength is the number of characters per visual line the oracle
// assumes when wrapping.
func lineLength(h config.HeightConfig, width int) float64 {
	if h.LineWrapping && width > 0 {
		return float64(width)
	}
	return h.LineLength
}

// layers returns the decoration layers the content tree is built from:
// the gap placeholders first, then the document's layers.
func (v *View) layers() []*decoration.Set {
	return append([]*decoration.Set{v.gap}, v.sets...)
}

// ID returns the view's identifier.
func (v *View) ID() uuid.UUID { return v.id }

// NewSet builds a decoration set with the configured leaf size.
func (v *View) NewSet(decos ...decoration.Decoration) *decoration.Set {
	return decoration.OfSized(v.cfg.Decorations.LeafSize, decos...)
}

// Doc returns the current document.
func (v *View) Doc() text.Text {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc
}

// Decorations returns the current decoration layers.
func (v *View) Decorations() []*decoration.Set {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sets
}

// Selection returns the current selection.
func (v *View) Selection() viewport.Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sel
}

// Stats returns the counters of the last update.
func (v *View) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}

// Viewport returns the rendered document range.
func (v *View) Viewport() viewport.Viewport {
	return v.state.Viewport()
}

// Visible returns the visible rectangle.
func (v *View) Visible() viewport.Rect {
	return v.state.Visible()
}

// LineGaps returns the line gaps currently rendered.
func (v *View) LineGaps() []viewport.LineGap {
	return v.state.LineGaps()
}

// ContentHeight returns the height of the whole document.
func (v *View) ContentHeight() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.HeightMap().Height()
}

// LineAtPos returns the line holding pos.
func (v *View) LineAtPos(pos int) heightmap.BlockInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.HeightMap().LineAtPos(pos, v.oracle)
}

// LineAtHeight returns the line at vertical offset h.
func (v *View) LineAtHeight(h float64) heightmap.BlockInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.HeightMap().LineAtHeight(h, v.oracle)
}

// BlockAtHeight returns the block at vertical offset h.
func (v *View) BlockAtHeight(h float64) heightmap.BlockInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.HeightMap().BlockAt(h, v.oracle)
}

// Describe returns a textual form of the rendered content.
func (v *View) Describe() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree.Describe()
}

// Surface returns the surface the content is synced to.
func (v *View) Surface() *surface.Surface {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.surf
}
