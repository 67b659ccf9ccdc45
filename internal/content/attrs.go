package content

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/renderer/core"
)

// Attrs is a set of element attributes. The "class" and "style" keys are
// lists that accumulate when attribute sets are combined.
type Attrs map[string]string

// Combine returns the union of a and b. Values from b win, except for
// "class" and "style", which are concatenated.
func Combine(a, b Attrs) Attrs {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return maps.Clone(b)
	}
	out := maps.Clone(a)
	for k, v := range b {
		switch {
		case k == "class" && out[k] != "":
			out[k] += " " + v
		case k == "style" && out[k] != "":
			out[k] = strings.TrimSuffix(out[k], ";") + ";" + v
		default:
			out[k] = v
		}
	}
	return out
}

// SpecAttrs returns the attributes of a mark or line decoration, with its
// class folded in.
func SpecAttrs(s *decoration.Spec) Attrs {
	attrs := Attrs(s.Attrs)
	if s.Class != "" {
		attrs = Combine(attrs, Attrs{"class": s.Class})
	}
	return attrs
}

func (a Attrs) key() string {
	if len(a) == 0 {
		return ""
	}
	keys := slices.Sorted(maps.Keys(a))
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(a[k])
	}
	return sb.String()
}

// MarkAttrs is the interned description of a mark element.
type MarkAttrs struct {
	Tag   string
	Attrs Attrs
	key   string
}

// Class returns the mark's class list.
func (m *MarkAttrs) Class() string {
	return m.Attrs["class"]
}

// Eq reports whether both describe the same element.
func (m *MarkAttrs) Eq(o *MarkAttrs) bool {
	return m == o || (m != nil && o != nil && m.key == o.key)
}

func (m *MarkAttrs) String() string {
	return m.key
}

// Registry interns mark attribute sets and maps class names to styles.
// One registry serves one editing surface.
type Registry struct {
	mu      sync.RWMutex
	marks   map[string]*MarkAttrs
	classes map[string]core.Style
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		marks:   make(map[string]*MarkAttrs),
		classes: make(map[string]core.Style),
	}
}

// Mark returns the interned attributes for a mark decoration spec.
func (r *Registry) Mark(s *decoration.Spec) *MarkAttrs {
	attrs := SpecAttrs(s)
	key := s.Tag + "|" + attrs.key()

	r.mu.RLock()
	m, ok := r.marks[key]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.marks[key]; ok {
		return m
	}
	m = &MarkAttrs{Tag: s.Tag, Attrs: attrs, key: key}
	r.marks[key] = m
	return m
}

// Len returns the number of interned mark attribute sets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.marks)
}

// DefineClass associates a style with a class name.
func (r *Registry) DefineClass(name string, style core.Style) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[name] = style
}

// Style returns the style for a space-separated class list, merging the
// styles of each known class in order.
func (r *Registry) Style(classes string) core.Style {
	r.mu.RLock()
	defer r.mu.RUnlock()
	style := core.DefaultStyle()
	for _, name := range strings.Fields(classes) {
		if s, ok := r.classes[name]; ok {
			style = style.Merge(s)
		}
	}
	return style
}
