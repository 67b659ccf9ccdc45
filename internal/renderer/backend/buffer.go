package backend

import (
	"github.com/dshills/scrivener/internal/renderer/core"
)

// ScreenBuffer provides double-buffered rendering with change tracking.
// Cells are drawn into the back buffer. ComputeDiff lists the cells that
// differ from the front buffer, restricted to the rows touched since the
// last Sync.
type ScreenBuffer struct {
	width, height int
	front         []core.Cell
	back          []core.Cell
	dirtyRows     []bool
	fullRedraw    bool
}

// NewScreenBuffer creates a screen buffer with the given dimensions.
func NewScreenBuffer(width, height int) *ScreenBuffer {
	sb := &ScreenBuffer{width: max(0, width), height: max(0, height)}
	sb.allocate()
	return sb
}

func (sb *ScreenBuffer) allocate() {
	n := sb.width * sb.height
	sb.front = make([]core.Cell, n)
	sb.back = make([]core.Cell, n)
	sb.dirtyRows = make([]bool, sb.height)
	empty := core.EmptyCell()
	for i := range sb.back {
		sb.front[i] = empty
		sb.back[i] = empty
	}
	sb.fullRedraw = true
}

// Resize resizes the buffer, preserving content where possible.
func (sb *ScreenBuffer) Resize(width, height int) {
	width, height = max(0, width), max(0, height)
	if width == sb.width && height == sb.height {
		return
	}
	old, oldWidth := sb.back, sb.width
	copyHeight := min(sb.height, height)
	copyWidth := min(oldWidth, width)

	sb.width, sb.height = width, height
	sb.allocate()
	for y := 0; y < copyHeight; y++ {
		copy(sb.back[y*width:y*width+copyWidth], old[y*oldWidth:y*oldWidth+copyWidth])
	}
}

// Size returns the buffer dimensions.
func (sb *ScreenBuffer) Size() (width, height int) {
	return sb.width, sb.height
}

func (sb *ScreenBuffer) index(x, y int) (int, bool) {
	if x < 0 || x >= sb.width || y < 0 || y >= sb.height {
		return 0, false
	}
	return y*sb.width + x, true
}

// SetCell sets a cell in the back buffer.
func (sb *ScreenBuffer) SetCell(x, y int, cell core.Cell) {
	if i, ok := sb.index(x, y); ok {
		sb.back[i] = cell
		sb.dirtyRows[y] = true
	}
}

// GetCell returns a cell from the back buffer.
func (sb *ScreenBuffer) GetCell(x, y int) core.Cell {
	if i, ok := sb.index(x, y); ok {
		return sb.back[i]
	}
	return core.EmptyCell()
}

// GetFrontCell returns a cell from the front buffer (currently displayed).
func (sb *ScreenBuffer) GetFrontCell(x, y int) core.Cell {
	if i, ok := sb.index(x, y); ok {
		return sb.front[i]
	}
	return core.EmptyCell()
}

// Fill fills a rectangle with the given cell.
func (sb *ScreenBuffer) Fill(rect core.ScreenRect, cell core.Cell) {
	r := rect.Intersection(core.RectFromSize(0, 0, sb.height, sb.width))
	for y := r.Top; y < r.Bottom; y++ {
		for x := r.Left; x < r.Right; x++ {
			sb.back[y*sb.width+x] = cell
		}
		sb.dirtyRows[y] = true
	}
}

// Clear clears the back buffer with empty cells.
func (sb *ScreenBuffer) Clear() {
	sb.Fill(core.RectFromSize(0, 0, sb.height, sb.width), core.EmptyCell())
}

// SetString writes s with the given style starting at (x, y) and returns
// the column after the last cell written.
func (sb *ScreenBuffer) SetString(x, y int, s string, style core.Style) int {
	for _, c := range core.CellsFromString(s, style) {
		sb.SetCell(x, y, c)
		x++
	}
	return x
}

// DiffChange represents a cell change for synchronization.
type DiffChange struct {
	X, Y int
	Cell core.Cell
}

// ComputeDiff returns the changes needed to update the display, or nil
// when nothing changed.
func (sb *ScreenBuffer) ComputeDiff() []DiffChange {
	var changes []DiffChange
	for y := 0; y < sb.height; y++ {
		if !sb.fullRedraw && !sb.dirtyRows[y] {
			continue
		}
		for x := 0; x < sb.width; x++ {
			i := y*sb.width + x
			if sb.fullRedraw || !sb.back[i].Equals(sb.front[i]) {
				changes = append(changes, DiffChange{X: x, Y: y, Cell: sb.back[i]})
			}
		}
	}
	return changes
}

// Sync copies the back buffer to the front buffer and clears dirty flags.
// Call this after applying changes to the backend.
func (sb *ScreenBuffer) Sync() {
	copy(sb.front, sb.back)
	clear(sb.dirtyRows)
	sb.fullRedraw = false
}

// MarkFullRedraw forces a complete redraw on next sync.
func (sb *ScreenBuffer) MarkFullRedraw() {
	sb.fullRedraw = true
}

// IsDirty returns true if there are pending changes.
func (sb *ScreenBuffer) IsDirty() bool {
	if sb.fullRedraw {
		return true
	}
	for _, d := range sb.dirtyRows {
		if d {
			return true
		}
	}
	return false
}

// BufferedBackend wraps a Backend with double-buffered rendering.
type BufferedBackend struct {
	backend Backend
	buffer  *ScreenBuffer
	flushed int
}

// NewBufferedBackend creates a buffered wrapper around a backend.
func NewBufferedBackend(backend Backend) *BufferedBackend {
	width, height := backend.Size()
	return &BufferedBackend{
		backend: backend,
		buffer:  NewScreenBuffer(width, height),
	}
}

func (b *BufferedBackend) Init() error {
	if err := b.backend.Init(); err != nil {
		return err
	}
	b.buffer.Resize(b.backend.Size())
	b.backend.OnResize(func(w, h int) {
		b.buffer.Resize(w, h)
	})
	return nil
}

func (b *BufferedBackend) Shutdown() { b.backend.Shutdown() }

func (b *BufferedBackend) Size() (int, int) { return b.buffer.Size() }

func (b *BufferedBackend) OnResize(callback func(width, height int)) {
	b.backend.OnResize(func(w, h int) {
		b.buffer.Resize(w, h)
		callback(w, h)
	})
}

func (b *BufferedBackend) SetCell(x, y int, cell core.Cell) { b.buffer.SetCell(x, y, cell) }

func (b *BufferedBackend) GetCell(x, y int) core.Cell { return b.buffer.GetCell(x, y) }

func (b *BufferedBackend) Fill(rect core.ScreenRect, cell core.Cell) { b.buffer.Fill(rect, cell) }

func (b *BufferedBackend) Clear() { b.buffer.Clear() }

// Show applies only the changed cells to the wrapped backend.
func (b *BufferedBackend) Show() {
	changes := b.buffer.ComputeDiff()
	for _, ch := range changes {
		b.backend.SetCell(ch.X, ch.Y, ch.Cell)
	}
	b.flushed = len(changes)
	b.buffer.Sync()
	b.backend.Show()
}

func (b *BufferedBackend) ShowCursor(x, y int) { b.backend.ShowCursor(x, y) }

func (b *BufferedBackend) HideCursor() { b.backend.HideCursor() }

func (b *BufferedBackend) SetCursorStyle(style CursorStyle) { b.backend.SetCursorStyle(style) }

func (b *BufferedBackend) HasTrueColor() bool { return b.backend.HasTrueColor() }

// Flushed returns the number of cells the last Show wrote.
func (b *BufferedBackend) Flushed() int { return b.flushed }

// Buffer returns the underlying screen buffer for direct access.
func (b *BufferedBackend) Buffer() *ScreenBuffer { return b.buffer }
