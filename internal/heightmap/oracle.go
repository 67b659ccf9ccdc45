package heightmap

import (
	"math"

	"github.com/dshills/scrivener/internal/text"
)

// Default metrics of a terminal cell grid, in pixels.
const (
	DefaultLineHeight = 14
	DefaultCharWidth  = 7
	DefaultLineLength = 30
)

// Oracle estimates the height of content that has not been measured.
type Oracle struct {
	doc text.Text

	LineWrapping bool
	LineHeight   float64
	CharWidth    float64
	// LineLength is the number of characters that fit on one visual line
	// when wrapping.
	LineLength float64

	// HeightChanged is set by UpdateHeight when a measured height differs
	// from the height stored for it. Callers reset it.
	HeightChanged bool

	samples map[int]bool
}

// NewOracle creates an oracle with the default metrics.
func NewOracle(doc text.Text) *Oracle {
	return &Oracle{
		doc:        doc,
		LineHeight: DefaultLineHeight,
		CharWidth:  DefaultCharWidth,
		LineLength: DefaultLineLength,
		samples:    make(map[int]bool),
	}
}

// SetDoc sets the document estimates are computed for.
func (o *Oracle) SetDoc(doc text.Text) *Oracle {
	o.doc = doc
	return o
}

// Doc returns the current document.
func (o *Oracle) Doc() text.Text { return o.doc }

// HeightForGap estimates the height of the lines in [from, to].
func (o *Oracle) HeightForGap(from, to int) float64 {
	lines := float64(o.doc.LineAt(to).Number - o.doc.LineAt(from).Number + 1)
	if o.LineWrapping {
		lines += math.Max(0, math.Ceil((float64(to-from)-lines*o.LineLength*0.5)/o.LineLength))
	}
	return o.LineHeight * lines
}

// HeightForLine estimates the height of a line of the given length.
func (o *Oracle) HeightForLine(length int) float64 {
	if !o.LineWrapping {
		return o.LineHeight
	}
	lines := 1 + math.Max(0, math.Ceil((float64(length)-o.LineLength)/math.Max(1, o.LineLength-5)))
	return lines * o.LineHeight
}

func sampleKey(h float64) int { return int(math.Floor(h * 10)) }

// MustRefreshForWrapping reports whether switching wrapping invalidates
// the estimates.
func (o *Oracle) MustRefreshForWrapping(wrapping bool) bool {
	return o.LineWrapping != wrapping
}

// MustRefreshForHeights records measured line heights and reports whether
// any of them had not been seen before.
func (o *Oracle) MustRefreshForHeights(heights []float64) bool {
	fresh := false
	for _, h := range heights {
		if h < 0 {
			continue
		}
		if k := sampleKey(h); !o.samples[k] {
			o.samples[k] = true
			fresh = true
		}
	}
	return fresh
}

// Refresh updates the metrics and reports whether estimates changed. When
// they did, the known heights become the new sample set.
func (o *Oracle) Refresh(wrapping bool, lineHeight, charWidth, lineLength float64, known []float64) bool {
	changed := math.Round(lineHeight) != math.Round(o.LineHeight) || o.LineWrapping != wrapping
	o.LineWrapping = wrapping
	o.LineHeight = lineHeight
	o.CharWidth = charWidth
	o.LineLength = lineLength
	if changed {
		o.samples = make(map[int]bool)
		for _, h := range known {
			if h >= 0 {
				o.samples[sampleKey(h)] = true
			}
		}
	}
	return changed
}
