package core

import "testing"

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b uint8
		wantErr bool
	}{
		{"#FF8040", 255, 128, 64, false},
		{"#ff8040", 255, 128, 64, false},
		{"FF8040", 255, 128, 64, false},
		{"#FFF", 255, 255, 255, false},
		{"#000", 0, 0, 0, false},
		{"invalid", 0, 0, 0, true},
		{"#GGG", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := ColorFromHex(tt.hex)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ColorFromHex(%q) error = %v, wantErr %v", tt.hex, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if c.R != tt.r || c.G != tt.g || c.B != tt.b {
				t.Errorf("ColorFromHex(%q) = %v", tt.hex, c)
			}
		})
	}
}

func TestColorBlend(t *testing.T) {
	black, white := ColorBlack, ColorWhite
	if got := black.Blend(white, 0); !got.Equals(black) {
		t.Errorf("Blend(0) = %v, want black", got)
	}
	if got := black.Blend(white, 1); !got.Equals(white) {
		t.Errorf("Blend(1) = %v, want white", got)
	}
	mid := black.Blend(white, 0.5)
	if mid.R < 50 || mid.R > 200 || absDiff(mid.R, mid.G) > 1 || absDiff(mid.G, mid.B) > 1 {
		t.Errorf("Blend(0.5) = %v, want a gray", mid)
	}
	idx := ColorFromIndex(3)
	if got := idx.Blend(white, 0.2); !got.Equals(idx) {
		t.Errorf("indexed blend should pick the nearer color, got %v", got)
	}
}

func TestColorEquals(t *testing.T) {
	if !ColorDefault.Equals(Color{Default: true, R: 9}) {
		t.Error("default colors should be equal regardless of components")
	}
	if ColorFromIndex(1).Equals(ColorFromRGB(1, 0, 0)) {
		t.Error("indexed and RGB colors should differ")
	}
}

func TestStyleMerge(t *testing.T) {
	base := DefaultStyle().WithForeground(ColorWhite).WithAttributes(AttrBold)
	over := DefaultStyle().WithBackground(ColorGray).WithAttributes(AttrItalic)
	got := base.Merge(over)
	if !got.Foreground.Equals(ColorWhite) || !got.Background.Equals(ColorGray) {
		t.Errorf("Merge colors = %v/%v", got.Foreground, got.Background)
	}
	if !got.Attributes.Has(AttrBold) || !got.Attributes.Has(AttrItalic) {
		t.Errorf("Merge attributes = %b", got.Attributes)
	}
	if !DefaultStyle().IsDefault() || got.IsDefault() {
		t.Error("IsDefault mismatch")
	}
}

func TestRuneWidth(t *testing.T) {
	tests := []struct {
		r    rune
		want int
	}{
		{'a', 1}, {'世', 2}, {'\t', 0}, {0x7F, 0},
	}
	for _, tt := range tests {
		if got := RuneWidth(tt.r); got != tt.want {
			t.Errorf("RuneWidth(%q) = %d, want %d", tt.r, got, tt.want)
		}
	}
	if got := StringWidth("a世b"); got != 4 {
		t.Errorf("StringWidth = %d, want 4", got)
	}
}

func TestCellsFromString(t *testing.T) {
	cells := CellsFromString("a世", DefaultStyle())
	if len(cells) != 3 {
		t.Fatalf("len = %d, want 3", len(cells))
	}
	if !cells[2].IsContinuation() {
		t.Error("wide rune should be followed by a continuation cell")
	}
}

func TestScreenRect(t *testing.T) {
	r := RectFromSize(2, 3, 10, 20)
	if r.Width() != 20 || r.Height() != 10 {
		t.Errorf("size = %dx%d", r.Width(), r.Height())
	}
	if !r.Contains(2, 3) || r.Contains(12, 3) {
		t.Error("Contains edges wrong")
	}
	in := r.Intersection(RectFromSize(0, 0, 5, 5))
	if in != (ScreenRect{Top: 2, Left: 3, Bottom: 5, Right: 5}) {
		t.Errorf("Intersection = %+v", in)
	}
	if !r.Intersection(RectFromSize(50, 50, 1, 1)).IsEmpty() {
		t.Error("disjoint rectangles should not intersect")
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
