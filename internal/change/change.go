// Package change describes edits to a document and maps positions through them.
//
// A Set is an ordered list of non-overlapping changes, all expressed in the
// coordinates of the document before the edit ("A" coordinates). Positions
// in the edited document are "B" coordinates.
package change

import (
	"fmt"

	"github.com/dshills/scrivener/internal/text"
)

// Change replaces [From, To) of the old document with Insert.
type Change struct {
	From   int
	To     int
	Insert string
}

// Set is an immutable, validated list of changes against a document of
// length LengthA.
type Set struct {
	lenA    int
	lenB    int
	changes []Change
}

// New validates changes against a document of length lenA. Changes must be
// sorted by position and must not overlap; touching changes are allowed.
func New(lenA int, changes ...Change) (*Set, error) {
	s := &Set{lenA: lenA, lenB: lenA}
	prev := 0
	for i, c := range changes {
		if c.From < 0 || c.To < c.From {
			return nil, fmt.Errorf("change %d [%d, %d): %w", i, c.From, c.To, ErrRangeInvalid)
		}
		if c.To > lenA {
			return nil, fmt.Errorf("change %d [%d, %d) in length %d: %w", i, c.From, c.To, lenA, ErrOutOfRange)
		}
		if c.From < prev {
			return nil, fmt.Errorf("change %d at %d: %w", i, c.From, ErrChangesOverlap)
		}
		prev = c.To
		if c.From == c.To && c.Insert == "" {
			continue
		}
		s.lenB += len(c.Insert) - (c.To - c.From)
		s.changes = append(s.changes, c)
	}
	return s, nil
}

// Empty returns a set with no changes for a document of length n.
func Empty(n int) *Set {
	return &Set{lenA: n, lenB: n}
}

// Must is like New but panics on error. It is intended for literals in tests.
func Must(lenA int, changes ...Change) *Set {
	s, err := New(lenA, changes...)
	if err != nil {
		panic(err)
	}
	return s
}

// LengthA returns the length of the document before the changes.
func (s *Set) LengthA() int { return s.lenA }

// LengthB returns the length of the document after the changes.
func (s *Set) LengthB() int { return s.lenB }

// Empty reports whether the set changes nothing.
func (s *Set) Empty() bool { return len(s.changes) == 0 }

// Changes returns the changes in ascending order. The slice must not be modified.
func (s *Set) Changes() []Change { return s.changes }

// Apply applies the set to doc.
func (s *Set) Apply(doc text.Text) (text.Text, error) {
	if doc.Len() != s.lenA {
		return doc, fmt.Errorf("apply to length %d, want %d: %w", doc.Len(), s.lenA, ErrLengthMismatch)
	}
	// Apply back to front so earlier positions stay valid.
	for i := len(s.changes) - 1; i >= 0; i-- {
		c := s.changes[i]
		doc = doc.Replace(c.From, c.To, c.Insert)
	}
	return doc, nil
}

// Touches reports whether any change touches [from, to] in A coordinates.
func (s *Set) Touches(from, to int) bool {
	for _, c := range s.changes {
		if c.From > to {
			return false
		}
		if c.To >= from {
			return true
		}
	}
	return false
}
