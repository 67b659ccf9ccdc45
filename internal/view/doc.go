// Package view ties the rendering engine together for one editing
// surface.
//
// A View owns a document, its decoration layers and every derived
// structure: the height map with its oracle, the viewport state, the
// content tree and the surface it is synced to. Dispatch applies a
// Transaction in two phases. The write phase updates the height map,
// moves the viewport, recomputes the gap placeholders, reconciles the
// content tree and syncs it. The measure phase reads the rendered heights
// back into the height map and, when they moved the layout enough that
// the viewport no longer covers the visible area, runs the write phase
// again, up to a bounded number of passes.
//
// Internal consistency failures panic inside the engine packages. View is
// the boundary where they are recovered: the transaction is rejected with
// an *AbortError, the previous state is kept and the content tree is
// rebuilt from scratch.
package view
