// Package surface is a retained rendering surface for the content tree.
//
// A Surface keeps one Element per content node. The tree writes dirty
// nodes to it during Sync and releases elements of freed nodes. The
// surface lays elements out in terminal cells, reports measured block
// heights back to the height map, and paints the visible rows onto a
// backend.
package surface
