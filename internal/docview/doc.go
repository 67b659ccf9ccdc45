// Package docview holds the retained content tree of an editing surface.
//
// The tree mirrors the output of content.Build over the whole document.
// Tree.Update patches it after an edit or decoration change, reusing as
// many existing nodes as possible, and Tree.Sync writes the nodes that
// changed onto a rendering Surface. Nodes live in an arena and are
// addressed by NodeID; a node's parent is stored as an index only.
package docview
