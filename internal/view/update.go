package view

import (
	"fmt"

	"github.com/dshills/scrivener/internal/change"
	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/docview"
	"github.com/dshills/scrivener/internal/heightmap"
	"github.com/dshills/scrivener/internal/renderer/backend"
	"github.com/dshills/scrivener/internal/surface"
	"github.com/dshills/scrivener/internal/text"
	"github.com/dshills/scrivener/internal/viewport"
)

// Transaction describes one update of a View.
type Transaction struct {
	// Changes edits the document. Nil leaves it unchanged.
	Changes *change.Set
	// Decorations replaces the decoration layers. Nil maps the current
	// layers through Changes.
	Decorations []*decoration.Set
	// Selection replaces the selection. Nil maps the current one.
	Selection *viewport.Selection
	// ScrollTarget is a position the viewport must include afterwards.
	ScrollTarget *viewport.ScrollTarget
}

// Dispatch applies tx. When an engine invariant fails the view keeps its
// previous state and Dispatch returns an *AbortError.
func (v *View) Dispatch(tx Transaction) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if tx.Changes != nil && tx.Changes.LengthA() != v.doc.Len() {
		return fmt.Errorf("%w: changes start from %d, document has %d",
			ErrLengthMismatch, tx.Changes.LengthA(), v.doc.Len())
	}
	return v.guard("dispatch", func() error { return v.apply(tx) })
}

// ScrollTo moves the visible area to start at top and renders the
// viewport that covers it.
func (v *View) ScrollTo(top float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	bias := v.state.ScrollTo(top)
	return v.guard("scroll", func() error {
		if v.state.Update(nil) {
			v.log.Debug().Float64("bias", bias).Msg("viewport recomputed")
		}
		v.refresh(nil)
		return nil
	})
}

// SetVisible replaces the visible rectangle.
func (v *View) SetVisible(r viewport.Rect) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.SetVisible(r)
	return v.guard("visible", func() error {
		v.state.Update(nil)
		v.refresh(nil)
		return nil
	})
}

// Reveal scrolls, when needed, so the line at pos is visible with the
// scroll margins kept. It reports whether the view scrolled.
func (v *View) Reveal(pos int) (bool, error) {
	v.mu.Lock()
	top, need := v.state.RevealTop(pos)
	v.mu.Unlock()
	if !need {
		return false, nil
	}
	return true, v.ScrollTo(top)
}

// Resize sets the surface width and line wrapping. Height estimates are
// recomputed when the metrics they depend on change.
func (v *View) Resize(width int, wrap bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.guard("resize", func() error {
		h := v.cfg.Heights
		h.LineWrapping = wrap
		oldLength := v.oracle.LineLength
		force := v.oracle.Refresh(wrap, h.LineHeight, h.CharWidth, lineLength(h, width), nil)
		force = force || wrap && v.oracle.LineLength != oldLength
		v.surfOpts.Width, v.surfOpts.Wrap = width, wrap
		v.surf.SetWidth(width, wrap)
		if force {
			v.state.SetHeightMap(v.state.HeightMap().UpdateHeight(v.oracle, true, nil))
		}
		v.state.Update(nil)
		v.refresh(nil)
		v.log.Debug().Int("width", width).Bool("wrap", wrap).Bool("reestimated", force).Msg("resized")
		return nil
	})
}

// Paint draws the visible rows onto b and returns how many were drawn.
func (v *View) Paint(b backend.Backend) (int, error) {
	if b == nil {
		return 0, ErrNilBackend
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.surf.Paint(b, v.state.Visible().Top), nil
}

// guard runs fn, turning engine invariant panics into an *AbortError
// after restoring the state from before fn.
func (v *View) guard(op string, fn func() error) (err error) {
	snap := v.snapshot()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ierr, ok := invariantError(r)
		if !ok {
			panic(r)
		}
		v.log.Error().Err(ierr).Str("op", op).Msg("update aborted")
		v.restore(snap)
		err = &AbortError{Op: op, Err: ierr}
	}()
	return fn()
}

type snapshot struct {
	doc      text.Text
	sets     []*decoration.Set
	gap      *decoration.Set
	sel      viewport.Selection
	heights  *heightmap.Map
	vp       viewport.Viewport
	lineGaps []viewport.LineGap
}

func (v *View) snapshot() snapshot {
	return snapshot{
		doc:      v.doc,
		sets:     v.sets,
		gap:      v.gap,
		sel:      v.sel,
		heights:  v.state.HeightMap(),
		vp:       v.state.Viewport(),
		lineGaps: v.state.LineGaps(),
	}
}

// restore returns to s with a content tree and surface built from
// scratch, since the failed update may have left the tree half merged.
func (v *View) restore(s snapshot) {
	v.doc, v.sets, v.gap, v.sel = s.doc, s.sets, s.gap, s.sel
	v.oracle.SetDoc(s.doc)
	v.state.SetHeightMap(s.heights)
	v.state.SetViewport(s.vp)
	v.state.SetLineGaps(s.lineGaps)

	v.tree.Close()
	v.tree = docview.New(v.treeOpts)
	v.surf = surface.New(v.surfOpts)
	if v.gap == nil {
		return
	}
	v.tree.Reset(v.doc, v.layers())
	v.stats = Stats{Tree: v.tree.Stats(), Written: v.tree.Sync(v.surf)}
}

// apply runs the write phase for tx and then the measure phase.
func (v *View) apply(tx Transaction) error {
	ch := tx.Changes
	if ch == nil {
		ch = change.Empty(v.doc.Len())
	}
	oldDoc, oldSets, oldGap := v.doc, v.sets, v.gap
	doc, err := ch.Apply(oldDoc)
	if err != nil {
		return fmt.Errorf("apply changes: %w", err)
	}
	sets := tx.Decorations
	if sets == nil {
		sets = mapSets(oldSets, ch)
	}
	sel := v.sel
	if tx.Selection != nil {
		sel = *tx.Selection
	} else if !ch.Empty() {
		sel = viewport.Selection{Anchor: ch.MapPos(sel.Anchor, 1), Head: ch.MapPos(sel.Head, 1)}
	}

	// Heights follow the document and its own layers only.
	changed := change.ExtendWithRanges(ch.ChangedRanges(), decoration.Diff(oldSets, sets, ch))
	v.oracle.SetDoc(doc)
	v.state.SetHeightMap(v.state.HeightMap().ApplyChanges(sets, oldDoc, v.oracle, changed))

	if !ch.Empty() {
		v.state.SetViewport(v.state.MapViewport(v.state.Viewport(), ch))
	}
	if v.state.Update(tx.ScrollTarget) {
		v.log.Debug().Int("from", v.state.Viewport().From).Int("to", v.state.Viewport().To).Msg("viewport recomputed")
	}
	v.state.EnsureLineGaps(mapGaps(v.state.LineGaps(), ch), sets, sel, tx.ScrollTarget)
	gap := v.state.GapDecorations()

	prev := append([]*decoration.Set{oldGap}, oldSets...)
	next := append([]*decoration.Set{gap}, sets...)
	treeChanged := change.ExtendWithRanges(ch.ChangedRanges(), decoration.Diff(prev, next, ch))
	v.tree.Update(doc, treeChanged, next, oldDoc.Len())

	v.doc, v.sets, v.gap, v.sel = doc, sets, gap, sel
	v.stats = Stats{Tree: v.tree.Stats(), Written: v.tree.Sync(v.surf)}
	v.stats.Passes = v.measure(tx.ScrollTarget)

	v.log.Debug().
		Int("changes", len(ch.Changes())).
		Int("ranges", len(treeChanged)).
		Int("created", v.stats.Tree.Created).
		Int("reused", v.stats.Tree.Reused).
		Int("freed", v.stats.Tree.Freed).
		Int("passes", v.stats.Passes).
		Msg("transaction applied")
	return nil
}

// measure reads rendered heights back into the height map. While they
// change stored heights, the viewport and placeholders are brought up to
// date and measured again, at most MaxMeasurePasses times. It returns the
// number of passes run.
func (v *View) measure(target *viewport.ScrollTarget) int {
	passes := 0
	for passes < v.cfg.View.MaxMeasurePasses {
		passes++
		measured := v.surf.Measure(v.state.Viewport().From)
		v.oracle.HeightChanged = false
		v.state.SetHeightMap(v.state.HeightMap().UpdateHeight(v.oracle, false, &measured))
		if !v.oracle.HeightChanged {
			break
		}
		v.state.Update(target)
		v.rewrite(target)
	}
	if passes == v.cfg.View.MaxMeasurePasses {
		v.log.Debug().Int("passes", passes).Msg("measure passes exhausted")
	}
	return passes
}

// rewrite brings the placeholders and the content tree up to date with
// the viewport for an unchanged document.
func (v *View) rewrite(target *viewport.ScrollTarget) {
	v.state.EnsureLineGaps(v.state.LineGaps(), v.sets, v.sel, target)
	gap := v.state.GapDecorations()
	ranges := change.ExtendWithRanges(nil, decoration.Diff([]*decoration.Set{v.gap}, []*decoration.Set{gap}, nil))
	v.gap = gap
	if len(ranges) == 0 {
		return
	}
	v.tree.Update(v.doc, ranges, v.layers(), v.doc.Len())
	v.stats.Written += v.tree.Sync(v.surf)
}

// refresh rewrites and measures after a viewport move.
func (v *View) refresh(target *viewport.ScrollTarget) {
	v.rewrite(target)
	v.stats.Passes = v.measure(target)
}

func mapSets(sets []*decoration.Set, ch *change.Set) []*decoration.Set {
	if ch.Empty() {
		return sets
	}
	out := make([]*decoration.Set, len(sets))
	for i, s := range sets {
		if s != nil {
			out[i] = s.Map(ch)
		}
	}
	return out
}

// mapGaps moves line gaps through ch, dropping those that collapse. The
// results are candidates only; EnsureLineGaps checks them against the new
// lines.
func mapGaps(gaps []viewport.LineGap, ch *change.Set) []viewport.LineGap {
	if ch.Empty() {
		return gaps
	}
	out := make([]viewport.LineGap, 0, len(gaps))
	for _, g := range gaps {
		from, to := ch.MapPos(g.From, 1), ch.MapPos(g.To, -1)
		if from < to {
			out = append(out, viewport.LineGap{From: from, To: to, Size: g.Size})
		}
	}
	return out
}
