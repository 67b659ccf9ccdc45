// Package heightmap tracks the vertical extent of a document.
//
// A Map is a balanced tree whose leaves mirror the blocks a content build
// produces: one leaf per line or block widget, with runs of undecorated
// lines collapsed into gap leaves carrying an estimated height. Heights
// start out as estimates from an Oracle and are replaced by measured
// values as the surface reports them. Maps are immutable; every update
// returns a new Map sharing untouched subtrees with the old one.
package heightmap
