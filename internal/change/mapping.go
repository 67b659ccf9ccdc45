package change

// MapMode controls how MapPosMode treats positions inside deleted ranges.
type MapMode int

const (
	// Simple always maps a position, moving deleted positions to the edge of
	// the replacement.
	Simple MapMode = iota

	// TrackDel reports a deletion when the text on both sides of the
	// position was deleted.
	TrackDel

	// TrackBefore reports a deletion when the character before the
	// position was deleted.
	TrackBefore

	// TrackAfter reports a deletion when the character after the position
	// was deleted.
	TrackAfter
)

// Deleted is returned by MapPosMode for positions that were deleted.
const Deleted = -1

// MapPos maps pos from A to B coordinates. When an insertion happens exactly
// at pos, assoc < 0 keeps the position before it and assoc >= 0 moves it
// after. A position inside a replaced range moves to the start of the
// replacement for assoc < 0 and to its end otherwise.
func (s *Set) MapPos(pos, assoc int) int {
	return s.MapPosMode(pos, assoc, Simple)
}

// MapPosMode maps pos like MapPos, returning Deleted when mode considers
// the position deleted.
func (s *Set) MapPosMode(pos, assoc int, mode MapMode) int {
	delta := 0
	for _, c := range s.changes {
		if c.From > pos {
			break
		}
		if c.To == pos && c.From < c.To && mode == TrackBefore {
			return Deleted
		}
		if c.To < pos || (c.To == pos && (c.From < c.To || assoc >= 0)) {
			delta += len(c.Insert) - (c.To - c.From)
			continue
		}
		// pos is in [c.From, c.To], and either strictly inside a replaced
		// range, at its start, or at a pure insertion with assoc < 0.
		if mode != Simple && c.From < c.To {
			switch {
			case mode == TrackDel && c.From < pos && c.To > pos,
				mode == TrackBefore && c.From < pos,
				mode == TrackAfter && c.To > pos:
				return Deleted
			}
		}
		start := c.From + delta
		if pos == c.From || assoc < 0 {
			return start
		}
		return start + len(c.Insert)
	}
	return pos + delta
}
