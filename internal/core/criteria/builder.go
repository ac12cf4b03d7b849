package criteria

import "insightsdb/internal/core/predicate"

// Builder assembles a Criteria fluently; each Build returns an independent copy
type Builder struct{ c Criteria }

// New starts an empty builder
func New() *Builder { return &Builder{} }

// Include adds values to the field's inclusion list
func (b *Builder) Include(field string, values ...string) *Builder {
	if b.c.Include == nil {
		b.c.Include = map[string][]string{}
	}
	b.c.Include[field] = append(b.c.Include[field], values...)
	return b
}

// Exclude adds values to the field's exclusion list
func (b *Builder) Exclude(field string, values ...string) *Builder {
	if b.c.Exclude == nil {
		b.c.Exclude = map[string][]string{}
	}
	b.c.Exclude[field] = append(b.c.Exclude[field], values...)
	return b
}

// Partial sets a partial match on the field
func (b *Builder) Partial(field string, op predicate.MatchOp, value string) *Builder {
	if b.c.Partial == nil {
		b.c.Partial = map[string]map[predicate.MatchOp]string{}
	}
	if b.c.Partial[field] == nil {
		b.c.Partial[field] = map[predicate.MatchOp]string{}
	}
	b.c.Partial[field][op] = value
	return b
}

// Between sets an inclusive range; nil bounds stay open
func (b *Builder) Between(field string, gte, lte *float64) *Builder {
	if b.c.Ranges == nil {
		b.c.Ranges = map[string]Range{}
	}
	b.c.Ranges[field] = Range{Gte: gte, Lte: lte}
	return b
}

// Scope appends a named organization scoped filter set
func (b *Builder) Scope(name string, c Criteria) *Builder {
	b.c.Scopes = append(b.c.Scopes, Scope{Name: name, Criteria: c})
	return b
}

// Build returns a deep copy of the accumulated criteria
func (b *Builder) Build() Criteria { return b.c.Clone() }

// Clone deep copies c
func (c Criteria) Clone() Criteria {
	out := Criteria{
		Include: cloneLists(c.Include),
		Exclude: cloneLists(c.Exclude),
	}
	if c.Partial != nil {
		out.Partial = make(map[string]map[predicate.MatchOp]string, len(c.Partial))
		for f, ops := range c.Partial {
			m := make(map[predicate.MatchOp]string, len(ops))
			for op, v := range ops {
				m[op] = v
			}
			out.Partial[f] = m
		}
	}
	if c.Ranges != nil {
		out.Ranges = make(map[string]Range, len(c.Ranges))
		for f, r := range c.Ranges {
			out.Ranges[f] = Range{Gte: clonePtr(r.Gte), Lte: clonePtr(r.Lte)}
		}
	}
	for _, s := range c.Scopes {
		out.Scopes = append(out.Scopes, Scope{Name: s.Name, Criteria: s.Criteria.Clone()})
	}
	return out
}

// F is a shorthand for range bounds
func F(v float64) *float64 { return &v }

func cloneLists(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
