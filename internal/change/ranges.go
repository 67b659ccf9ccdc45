package change

// ChangedRange is a region touched by an update, in both coordinate
// systems: [FromA, ToA) of the old document became [FromB, ToB) of the new.
type ChangedRange struct {
	FromA int
	ToA   int
	FromB int
	ToB   int
}

// Join returns the smallest range covering r and o.
func (r ChangedRange) Join(o ChangedRange) ChangedRange {
	return ChangedRange{
		FromA: min(r.FromA, o.FromA),
		ToA:   max(r.ToA, o.ToA),
		FromB: min(r.FromB, o.FromB),
		ToB:   max(r.ToB, o.ToB),
	}
}

// ChangedRanges returns the ranges touched by the set. Changes that touch
// are reported as one range.
func (s *Set) ChangedRanges() []ChangedRange {
	var out []ChangedRange
	delta := 0
	for _, c := range s.changes {
		r := ChangedRange{FromA: c.From, ToA: c.To, FromB: c.From + delta, ToB: c.From + delta + len(c.Insert)}
		delta += len(c.Insert) - (c.To - c.From)
		if n := len(out); n > 0 && out[n-1].ToA >= r.FromA {
			out[n-1] = out[n-1].Join(r)
			continue
		}
		out = append(out, r)
	}
	return out
}

// AddRange inserts r into the sorted list ranges, joining it with every
// range it overlaps or touches in A coordinates.
func AddRange(ranges []ChangedRange, r ChangedRange) []ChangedRange {
	i := len(ranges)
	for ; i > 0; i-- {
		prev := ranges[i-1]
		if prev.FromA > r.ToA {
			continue
		}
		if prev.ToA < r.FromA {
			break
		}
		r = r.Join(prev)
		ranges = append(ranges[:i-1], ranges[i:]...)
	}
	ranges = append(ranges, ChangedRange{})
	copy(ranges[i+1:], ranges[i:])
	ranges[i] = r
	return ranges
}

// ExtendWithRanges folds extra ranges, given as [from, to) pairs in B
// coordinates, into the changed ranges diff. Extra ranges are translated to
// A coordinates through the unchanged stretches between diff entries.
func ExtendWithRanges(diff []ChangedRange, extra [][2]int) []ChangedRange {
	if len(extra) == 0 {
		return diff
	}
	var out []ChangedRange
	posA, posB := 0, 0
	ri := 0
	for di := 0; ; di++ {
		var next *ChangedRange
		end := int(^uint(0) >> 1)
		if di < len(diff) {
			next = &diff[di]
			end = next.FromB
		}
		off := posA - posB
		for ri < len(extra) && extra[ri][0] < end {
			from, to := extra[ri][0], extra[ri][1]
			fromB, toB := max(posB, from), min(end, to)
			if fromB <= toB {
				out = AddRange(out, ChangedRange{FromA: fromB + off, ToA: toB + off, FromB: fromB, ToB: toB})
			}
			if to > end {
				break
			}
			ri++
		}
		if next == nil {
			return out
		}
		out = AddRange(out, *next)
		posA, posB = next.ToA, next.ToB
	}
}

// JoinRanges merges two sorted changed range lists that describe the same
// update.
func JoinRanges(a, b []ChangedRange) []ChangedRange {
	out := append([]ChangedRange(nil), a...)
	for _, r := range b {
		out = AddRange(out, r)
	}
	return out
}
