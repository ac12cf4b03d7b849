// Package categorize classifies records into named, priority ordered,
// mutually exclusive categories. The first matching rule wins and records
// matching no rule fall into Other
package categorize

import (
	"sort"
	"strings"

	"insightsdb/internal/core/criteria"
	"insightsdb/internal/core/predicate"
	perr "insightsdb/internal/platform/errors"
)

// Other is the category of records matching no rule
const Other = "Other"

// Rule is one categorization rule; lower priority is evaluated first
type Rule struct {
	Name     string            `json:"name" yaml:"name" validate:"required"`
	Priority int               `json:"priority" yaml:"priority"`
	Filter   criteria.Criteria `json:"filter" yaml:"filter"`
}

// Scheme is a validated rule list sorted by (priority, name)
type Scheme struct {
	Name  string
	rules []Rule
	preds []predicate.Node
}

// NewScheme validates and orders rules
// names must be unique, non empty and must not shadow Other
func NewScheme(name string, rules []Rule) (*Scheme, error) {
	seen := map[string]bool{}
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	for i := range sorted {
		n := strings.TrimSpace(sorted[i].Name)
		switch {
		case n == "":
			return nil, perr.Configf("scheme %q: rule with empty name", name)
		case strings.EqualFold(n, Other):
			return nil, perr.Configf("scheme %q: rule name %q is reserved", name, Other)
		case seen[n]:
			return nil, perr.Configf("scheme %q: duplicate rule name %q", name, n)
		}
		seen[n] = true
		sorted[i].Name = n
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Name < sorted[j].Name
	})
	preds := make([]predicate.Node, len(sorted))
	for i, r := range sorted {
		p, err := r.Filter.ToPredicate()
		if err != nil {
			return nil, perr.WithOp(err, "scheme "+name+" rule "+r.Name)
		}
		preds[i] = p
	}
	return &Scheme{Name: name, rules: sorted, preds: preds}, nil
}

// Rules returns the rules in evaluation order
func (s *Scheme) Rules() []Rule {
	if s == nil {
		return nil
	}
	return append([]Rule(nil), s.rules...)
}

// Categories lists every category name in evaluation order, Other last
func (s *Scheme) Categories() []string {
	out := make([]string, 0, len(s.Rules())+1)
	for _, r := range s.Rules() {
		out = append(out, r.Name)
	}
	return append(out, Other)
}

// Classify returns the first rule whose filter matches g, or Other
// a nil or empty scheme classifies everything as Other
func (s *Scheme) Classify(g predicate.Getter) string {
	if s == nil {
		return Other
	}
	for i, r := range s.rules {
		if s.preds[i].Eval(g) {
			return r.Name
		}
	}
	return Other
}

// Predicate returns the membership test for one category so a category
// filter can be pushed down to the store: rule_i AND NOT(rule_0 OR ... rule_i-1).
// Other is NOT(any rule). Unknown names are configuration errors
func (s *Scheme) Predicate(category string) (predicate.Node, error) {
	if category == Other {
		if s == nil {
			return predicate.True, nil
		}
		return predicate.Negate(predicate.AnyOf(s.preds...)), nil
	}
	if s != nil {
		for i, r := range s.rules {
			if r.Name == category {
				return predicate.AllOf(s.preds[i], predicate.Negate(predicate.AnyOf(s.preds[:i]...))), nil
			}
		}
	}
	return nil, perr.Configf("unknown category %q", category)
}

// Membership builds the predicate for a category include and exclude filter
// empty include means every category
func (s *Scheme) Membership(include, exclude []string) (predicate.Node, error) {
	var in []predicate.Node
	for _, c := range include {
		p, err := s.Predicate(c)
		if err != nil {
			return nil, err
		}
		in = append(in, p)
	}
	var out []predicate.Node
	for _, c := range exclude {
		p, err := s.Predicate(c)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	inc := predicate.True
	if len(include) > 0 {
		inc = predicate.AnyOf(in...)
	}
	return predicate.AllOf(inc, predicate.Negate(predicate.AnyOf(out...))), nil
}
