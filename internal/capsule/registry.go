package capsule

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for registry configuration and use.
var (
	ErrNilFilter      = errors.New("capsule filter cannot be nil")
	ErrInvalidType    = errors.New("invalid capsule type tag")
	ErrDuplicateType  = errors.New("capsule type already registered")
	ErrInvalidPattern = errors.New("invalid capsule pattern")
	ErrUnknownType    = errors.New("no filter registered for capsule type")
)

// Registry is an ordered set of filters. Registration order is precedence:
// during Encode an earlier filter claims a span before later ones see it.
//
// Register all filters before the first conversion. After that the Registry
// is read-only and may be shared between goroutines.
type Registry struct {
	filters []Filter
	byType  map[string]Filter
}

// NewRegistry returns a Registry holding the given filters, in order.
func NewRegistry(filters ...Filter) (*Registry, error) {
	r := &Registry{byType: make(map[string]Filter, len(filters))}
	for _, f := range filters {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends f to the registry.
func (r *Registry) Register(f Filter) error {
	if f == nil {
		return ErrNilFilter
	}
	typ := f.Type()
	if !ValidType(typ) {
		return fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	if _, exists := r.byType[typ]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, typ)
	}
	p := f.Pattern()
	if p == nil {
		return fmt.Errorf("%w: %q has no pattern", ErrInvalidPattern, typ)
	}
	if p.NumSubexp() < 3 {
		return fmt.Errorf("%w: %q needs prefix, body and suffix groups, has %d", ErrInvalidPattern, typ, p.NumSubexp())
	}
	if r.byType == nil {
		r.byType = make(map[string]Filter)
	}
	r.filters = append(r.filters, f)
	r.byType[typ] = f
	return nil
}

// Lookup returns the filter registered for typ.
func (r *Registry) Lookup(typ string) (Filter, bool) {
	f, ok := r.byType[typ]
	return f, ok
}

// Filters returns the registered filters in precedence order.
func (r *Registry) Filters() []Filter {
	return append([]Filter(nil), r.filters...)
}

// Len returns the number of registered filters.
func (r *Registry) Len() int {
	return len(r.filters)
}

// Encode replaces every block matched by a registered filter with a
// placeholder. Text outside the body group is kept in place, so recovering
// the placeholder with its Source reproduces the input exactly.
//
// Delimiter runes already in text are escaped first; recovered text and
// sources stay escaped until passed to Unescape.
func (r *Registry) Encode(text string) (string, error) {
	text = Escape(text)
	for _, f := range r.filters {
		var err error
		text, err = encodeFilter(f, text)
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

func encodeFilter(f Filter, text string) (string, error) {
	matches := f.Pattern().FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		bodyStart, bodyEnd := m[4], m[5]
		if start == end || bodyStart < 0 || bodyStart == bodyEnd {
			continue
		}
		// Spans already holding a placeholder belong to an earlier filter.
		if hasDelim(text[start:end]) {
			continue
		}

		d := Descriptor{
			Type:   f.Type(),
			Prefix: group(text, m, 1),
			Source: text[bodyStart:bodyEnd],
			Suffix: group(text, m, 3),
		}
		ph, err := Placeholder(d)
		if err != nil {
			return "", err
		}

		b.WriteString(text[last:bodyStart])
		b.WriteString(f.Enclose(ph, d))
		last = bodyEnd
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func group(text string, m []int, i int) string {
	if m[2*i] < 0 {
		return ""
	}
	return text[m[2*i]:m[2*i+1]]
}

// RecoverText runs every filter's text recovery over fragment.
// Placeholders of unknown types are left in place; see Unrecovered.
func (r *Registry) RecoverText(fragment string) string {
	if !strings.Contains(fragment, OpenDelim) {
		return fragment
	}
	for _, f := range r.filters {
		fragment = f.RecoverText(fragment)
	}
	return fragment
}

// RecoverToken asks each filter, in order, whether tok is one of its
// placeholders.
func (r *Registry) RecoverToken(tok Token) (Descriptor, Filter, bool) {
	if !strings.Contains(tok.Text, OpenDelim) {
		return Descriptor{}, nil, false
	}
	for _, f := range r.filters {
		if d, ok := f.RecoverToken(tok); ok {
			return d, f, true
		}
	}
	return Descriptor{}, nil, false
}

// Write dispatches d to the filter that owns its type.
func (r *Registry) Write(d Descriptor, w Writer) (Outcome, error) {
	f, ok := r.byType[d.Type]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, d.Type)
	}
	return f.Write(d, w), nil
}
