// Package criteria holds the declarative filter model used by every list and
// aggregate query: include and exclude lists, partial string matches,
// inclusive ranges, and an OR union of organization scoped filter sets
package criteria

import (
	"sort"

	"insightsdb/internal/core/predicate"
	perr "insightsdb/internal/platform/errors"
)

// Range is an inclusive numeric or time range; nil bounds are open
// time fields use unix seconds
type Range struct {
	Gte *float64 `json:"gte,omitempty" yaml:"gte,omitempty"`
	Lte *float64 `json:"lte,omitempty" yaml:"lte,omitempty"`
}

// Criteria is an immutable filter value constructed per request
type Criteria struct {
	Include map[string][]string                     `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude map[string][]string                     `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Partial map[string]map[predicate.MatchOp]string `json:"partial_match,omitempty" yaml:"partial_match,omitempty"`
	Ranges  map[string]Range                        `json:"ranges,omitempty" yaml:"ranges,omitempty"`

	// Scopes are organization scoped filter sets; a row passes when it
	// matches any one of them. No scopes means no scope constraint
	Scopes []Scope `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// Scope is one named organization scoped filter set
type Scope struct {
	Name     string   `json:"name" yaml:"name"`
	Criteria Criteria `json:"criteria" yaml:"criteria"`
}

// IsOpen reports whether c constrains nothing, scopes included
func (c Criteria) IsOpen() bool {
	return !c.hasBase() && len(c.Scopes) == 0
}

func (c Criteria) hasBase() bool {
	return nonEmptyLists(c.Include) || nonEmptyLists(c.Exclude) || hasPartial(c.Partial) || hasBounds(c.Ranges)
}

// Validate rejects shapes that cannot be evaluated
func (c Criteria) Validate() error {
	return c.validate(true)
}

func (c Criteria) validate(top bool) error {
	for field, ops := range c.Partial {
		for op := range ops {
			if _, err := predicate.ParseMatchOp(string(op)); err != nil {
				return perr.WithField(perr.Configf("unknown partial match operator %q", op), field)
			}
		}
	}
	if !top && len(c.Scopes) > 0 {
		return perr.Configf("scope filters cannot nest scopes")
	}
	for _, s := range c.Scopes {
		if err := s.Criteria.validate(false); err != nil {
			return err
		}
	}
	return nil
}

// Fields lists every field c constrains, scopes included, sorted
func (c Criteria) Fields() []string {
	seen := map[string]bool{}
	c.collect(seen)
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (c Criteria) collect(seen map[string]bool) {
	for f, v := range c.Include {
		if len(v) > 0 {
			seen[f] = true
		}
	}
	for f, v := range c.Exclude {
		if len(v) > 0 {
			seen[f] = true
		}
	}
	for f, ops := range c.Partial {
		if len(ops) > 0 {
			seen[f] = true
		}
	}
	for f, r := range c.Ranges {
		if r.Gte != nil || r.Lte != nil {
			seen[f] = true
		}
	}
	for _, s := range c.Scopes {
		s.Criteria.collect(seen)
	}
}

// Matches evaluates c against one row
// per field: included = no inclusion list or value in it; excluded = value in
// the exclusion list; the field passes when included and not excluded
func (c Criteria) Matches(g predicate.Getter) bool {
	if !c.matchesBase(g) {
		return false
	}
	if len(c.Scopes) == 0 {
		return true
	}
	for _, s := range c.Scopes {
		// an open scope matches everything
		if s.Criteria.matchesBase(g) {
			return true
		}
	}
	return false
}

func (c Criteria) matchesBase(g predicate.Getter) bool {
	for field, inc := range c.Include {
		if len(inc) > 0 && !anyIn(g.Values(field), inc) {
			return false
		}
	}
	for field, exc := range c.Exclude {
		if len(exc) > 0 && anyIn(g.Values(field), exc) {
			return false
		}
	}
	for field, ops := range c.Partial {
		for op, v := range ops {
			if !(predicate.Match{Field: field, Op: normOp(op), Value: v}).Eval(g) {
				return false
			}
		}
	}
	for field, r := range c.Ranges {
		if r.Gte == nil && r.Lte == nil {
			continue
		}
		v, ok := g.Number(field)
		if !ok {
			return false
		}
		if r.Gte != nil && v < *r.Gte {
			return false
		}
		if r.Lte != nil && v > *r.Lte {
			return false
		}
	}
	return true
}

// ToPredicate compiles c into a predicate tree: base AND (scope1 OR scope2 ...)
// fields are visited in sorted order so equal criteria give equal trees
func (c Criteria) ToPredicate() (predicate.Node, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	base := c.basePredicate()
	if len(c.Scopes) == 0 {
		return base, nil
	}
	scopes := make([]predicate.Node, 0, len(c.Scopes))
	for _, s := range c.Scopes {
		if !s.Criteria.hasBase() {
			// open scope, the union admits every row
			return base, nil
		}
		scopes = append(scopes, s.Criteria.basePredicate())
	}
	return predicate.AllOf(base, predicate.AnyOf(scopes...)), nil
}

// MustPredicate is ToPredicate for criteria known to be valid
func (c Criteria) MustPredicate() predicate.Node {
	n, err := c.ToPredicate()
	if err != nil {
		panic(err)
	}
	return n
}

func (c Criteria) basePredicate() predicate.Node {
	var parts []predicate.Node
	for _, f := range sortedKeys(c.Include) {
		if vs := c.Include[f]; len(vs) > 0 {
			parts = append(parts, predicate.In{Field: f, Values: vs})
		}
	}
	// exclusion is applied after inclusion and always wins
	for _, f := range sortedKeys(c.Exclude) {
		if vs := c.Exclude[f]; len(vs) > 0 {
			parts = append(parts, predicate.Negate(predicate.In{Field: f, Values: vs}))
		}
	}
	for _, f := range sortedKeys(c.Partial) {
		ops := c.Partial[f]
		keys := make([]string, 0, len(ops))
		for op := range ops {
			keys = append(keys, string(op))
		}
		sort.Strings(keys)
		for _, op := range keys {
			parts = append(parts, predicate.Match{Field: f, Op: normOp(predicate.MatchOp(op)), Value: ops[predicate.MatchOp(op)]})
		}
	}
	for _, f := range sortedKeys(c.Ranges) {
		r := c.Ranges[f]
		if r.Gte != nil {
			parts = append(parts, predicate.Cmp{Field: f, Op: predicate.Gte, Value: *r.Gte})
		}
		if r.Lte != nil {
			parts = append(parts, predicate.Cmp{Field: f, Op: predicate.Lte, Value: *r.Lte})
		}
	}
	return predicate.AllOf(parts...)
}

// normOp accepts the $begins spelling used by dashboard filters
func normOp(op predicate.MatchOp) predicate.MatchOp {
	if p, err := predicate.ParseMatchOp(string(op)); err == nil {
		return p
	}
	return op
}

func anyIn(have, set []string) bool {
	for _, v := range have {
		for _, s := range set {
			if v == s {
				return true
			}
		}
	}
	return false
}

func nonEmptyLists(m map[string][]string) bool {
	for _, v := range m {
		if len(v) > 0 {
			return true
		}
	}
	return false
}

func hasPartial(m map[string]map[predicate.MatchOp]string) bool {
	for _, ops := range m {
		if len(ops) > 0 {
			return true
		}
	}
	return false
}

func hasBounds(m map[string]Range) bool {
	for _, r := range m {
		if r.Gte != nil || r.Lte != nil {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
