package content

import (
	"fmt"
	"strconv"
	"strings"
)

// Describe returns a canonical dump of blocks: one block per line, with
// adjacent text nodes joined and open bits omitted. Two block lists with
// the same description render identically.
func Describe(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		describeBlock(&sb, b)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func describeBlock(sb *strings.Builder, b Block) {
	switch b := b.(type) {
	case *Line:
		sb.WriteString("line")
		if len(b.Attrs) > 0 {
			fmt.Fprintf(sb, "[%s]", b.Attrs.key())
		}
		sb.WriteByte('(')
		describeInlines(sb, b.Children)
		sb.WriteByte(')')
	case *BlockWidget:
		fmt.Fprintf(sb, "block{%s len=%d}", widgetText(b.Widget), b.Len)
	default:
		panic(fmt.Sprintf("content: unknown block %T", b))
	}
	if b.Break() {
		sb.WriteString(" +br")
	}
}

func describeInlines(sb *strings.Builder, children []Inline) {
	var pending strings.Builder
	hasText := false
	first := true
	sep := func() {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
	}
	flush := func() {
		if hasText {
			sep()
			sb.WriteString(strconv.Quote(pending.String()))
			pending.Reset()
			hasText = false
		}
	}
	for _, c := range children {
		switch c := c.(type) {
		case *Text:
			pending.WriteString(c.Text)
			hasText = true
		case *InlineWidget:
			flush()
			sep()
			fmt.Fprintf(sb, "{%s len=%d}", widgetText(c.Widget), c.Len)
		case *Mark:
			flush()
			sep()
			fmt.Fprintf(sb, "<%s>(", c.Attrs)
			describeInlines(sb, c.Children)
			sb.WriteByte(')')
		default:
			panic(fmt.Sprintf("content: unknown inline %T", c))
		}
	}
	flush()
}

func widgetText(w interface{ Text() string }) string {
	if w == nil {
		return ""
	}
	return strconv.Quote(w.Text())
}
