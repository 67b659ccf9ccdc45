// Package text provides the immutable document model consumed by the view.
//
// A Text is a balanced B+ tree whose leaves hold bounded chunks of the
// document. Internal nodes carry the byte length and line break count of
// their subtree, so position and line lookups are O(log n).
//
// Positions are byte offsets. A line break occupies exactly one position.
// Line numbers are 1-based.
//
// Basic usage:
//
//	doc := text.Of("hello\nworld")
//	line := doc.LineAt(7)           // Line{From: 6, To: 11, Number: 2}
//	doc = doc.Replace(0, 5, "howdy") // "howdy\nworld"
//
// Replace returns a new Text; the original is never modified and shares
// every untouched subtree with the result.
package text
