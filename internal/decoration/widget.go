package decoration

import "reflect"

// Widget is content rendered in place of (or in addition to) document text.
type Widget interface {
	// Eq reports whether the widget renders identically to other. It is
	// only called with widgets of the same dynamic type.
	Eq(other Widget) bool
	// Text returns the widget's textual rendering.
	Text() string
	// EstimatedHeight returns the expected height in pixels for block
	// widgets, or a negative value when unknown.
	EstimatedHeight() float64
}

// Compatible reports whether a and b have the same dynamic type, and so
// may be compared with Eq.
func Compatible(a, b Widget) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// SameWidget reports whether a and b are compatible and equal.
func SameWidget(a, b Widget) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Compatible(a, b) && a.Eq(b)
}

// TextWidget is a simple widget showing fixed text.
type TextWidget struct {
	Content string
	Height  float64
}

// Eq implements Widget.
func (w TextWidget) Eq(other Widget) bool {
	o, ok := other.(TextWidget)
	return ok && o == w
}

// Text implements Widget.
func (w TextWidget) Text() string { return w.Content }

// EstimatedHeight implements Widget.
func (w TextWidget) EstimatedHeight() float64 {
	if w.Height == 0 {
		return -1
	}
	return w.Height
}
