package decoration

import (
	"container/heap"
	"math"
	"slices"
)

// SpanVisitor receives the decorated structure of a range.
type SpanVisitor interface {
	// Span is called for plain text in [from, to) with the marks active
	// over it, outermost first.
	Span(from, to int, active []Decoration)
	// Point is called for widget, line and replace decorations. For
	// replace decorations [from, to) is the covered range clipped to the
	// iterated range; openStart and openEnd report whether the
	// decoration continues past the start or end of that range.
	Point(from, to int, d Decoration, active []Decoration, openStart, openEnd bool)
}

type eventKind uint8

const (
	eventEnd eventKind = iota
	eventStart
	eventPoint
)

type event struct {
	pos   int
	side  int
	set   int
	kind  eventKind
	seq   int
	deco  Decoration
	layer *layer
}

func compareEvents(a, b event) int {
	if a.pos != b.pos {
		return a.pos - b.pos
	}
	if a.side != b.side {
		if a.side < b.side {
			return -1
		}
		return 1
	}
	if a.set != b.set {
		return a.set - b.set
	}
	if a.kind != b.kind {
		return int(a.kind) - int(b.kind)
	}
	return a.seq - b.seq
}

// eventQueue is a min-heap of events.
type eventQueue []event

func (q eventQueue) Len() int           { return len(q) }
func (q eventQueue) Less(i, j int) bool { return compareEvents(q[i], q[j]) < 0 }
func (q eventQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)        { *q = append(*q, x.(event)) }

func (q *eventQueue) Pop() any {
	old := *q
	e := old[len(old)-1]
	*q = old[:len(old)-1]
	return e
}

// layer is the walk state of one set. At most one batch of its start and
// point events is queued at a time; the next batch is read when the last
// one has been handled.
type layer struct {
	cur     *cursor
	set     int
	seq     int
	pending int
}

type walker struct {
	from, to int
	queue    eventQueue
	active   []Decoration
	// Points before coverTo, or at it with a side below coverSide, are
	// hidden by a replace decoration.
	coverTo, coverSide int
	// Points at to with a side above cutSide are hidden by a replace
	// decoration starting there.
	cutSide int
}

// Spans walks [from, to] across several layered sets in one pass, calling
// v in document order. Each set is read in order through its own cursor
// and the sets are merged as they are walked. Decorations at the same
// position are ordered by side, then by set order. Widgets at from and to
// are included, and the marks and replace decorations that end at from or
// start at to apply to them as they would in a walk over a larger range.
// Replace decorations hide the text, mark boundaries and widgets they
// cover.
func Spans(sets []*Set, from, to int, v SpanVisitor) {
	w := &walker{from: from, to: to, coverTo: -1, cutSide: math.MaxInt}
	var open []event
	for si, s := range sets {
		if s == nil {
			continue
		}
		l := &layer{cur: s.cursor(from, to), set: si}
		b := l.cur.batch()
		for len(b) > 0 && b[0].from < from {
			for _, d := range b {
				open = w.enterOpen(l, d, open)
			}
			b = l.cur.batch()
		}
		w.push(l, b)
	}
	slices.SortFunc(open, compareEvents)
	for _, e := range open {
		w.active = append(w.active, e.deco)
	}

	pos := from
	for w.queue.Len() > 0 {
		e := heap.Pop(&w.queue).(event)
		if l := e.layer; l != nil && e.kind != eventEnd {
			l.pending--
			if l.pending == 0 {
				w.push(l, l.cur.batch())
			}
		}
		if e.pos > pos {
			v.Span(pos, e.pos, slices.Clone(w.active))
			pos = e.pos
		}
		switch e.kind {
		case eventEnd:
			w.active = removeDecoration(w.active, e.deco)
		case eventStart:
			w.active = append(w.active, e.deco)
			if e.deco.to <= to {
				heap.Push(&w.queue, event{pos: e.deco.to, side: e.deco.endSide, set: e.set, kind: eventEnd, seq: e.seq, deco: e.deco})
			}
		case eventPoint:
			if e.pos < w.coverTo || (e.pos == w.coverTo && e.side < w.coverSide) {
				continue
			}
			if e.pos == to && e.side > w.cutSide {
				continue
			}
			d := e.deco
			end := min(d.to, to)
			v.Point(e.pos, end, d, slices.Clone(w.active), d.from < from, d.to > to)
			if end > e.pos {
				w.coverTo, w.coverSide = end, d.endSide
				if d.to > to {
					w.coverSide = math.MaxInt
				}
				pos = end
			}
		}
	}
	if pos < to {
		v.Span(pos, to, slices.Clone(w.active))
	}
}

// enterOpen handles a decoration starting before from. Marks reaching
// from become active, replace decorations still covering from become a
// point at from, and those ending at from hide what their end side covers.
func (w *walker) enterOpen(l *layer, d Decoration, open []event) []event {
	l.seq++
	switch {
	case d.kind == KindMark:
		open = append(open, event{pos: d.from, side: d.startSide, set: l.set, seq: l.seq, deco: d})
		if d.to <= w.to {
			heap.Push(&w.queue, event{pos: d.to, side: d.endSide, set: l.set, kind: eventEnd, seq: l.seq, deco: d})
		}
	case d.to > w.from:
		heap.Push(&w.queue, event{pos: w.from, side: math.MinInt, set: l.set, kind: eventPoint, seq: l.seq, deco: d})
	default:
		if w.coverTo < w.from || d.endSide > w.coverSide {
			w.coverTo, w.coverSide = w.from, d.endSide
		}
	}
	return open
}

// push queues the events of a batch of decorations starting at or after
// from. When the batch yields no events it reads the next one.
func (w *walker) push(l *layer, batch []Decoration) {
	for len(batch) > 0 {
		for _, d := range batch {
			l.seq++
			e := event{pos: d.from, side: d.startSide, set: l.set, seq: l.seq, deco: d, layer: l}
			switch {
			case d.kind == KindMark:
				if d.from == d.to {
					continue
				}
				e.kind = eventStart
			case d.from == d.to:
				e.kind = eventPoint
			case d.from == w.to:
				w.cutSide = min(w.cutSide, d.startSide)
				continue
			default:
				e.kind = eventPoint
			}
			l.pending++
			heap.Push(&w.queue, e)
		}
		if l.pending > 0 {
			return
		}
		batch = l.cur.batch()
	}
}

func removeDecoration(active []Decoration, d Decoration) []Decoration {
	for i := len(active) - 1; i >= 0; i-- {
		if active[i].Eq(d) {
			return slices.Delete(active, i, i+1)
		}
	}
	return active
}
