// Package aggregate compiles group-by-and-calculate requests into plans that
// partition filtered records by an across dimension, optionally stack one
// level by a second dimension, compute a calculation per group, then sort
// and page the partitions
package aggregate

import (
	"sort"
	"strings"

	"insightsdb/internal/core/categorize"
	"insightsdb/internal/core/criteria"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/predicate"
	"insightsdb/internal/core/record"
	"insightsdb/internal/core/timebucket"
	perr "insightsdb/internal/platform/errors"
)

// Request is a declarative aggregation
type Request struct {
	Filter      criteria.Criteria `json:"filter"`
	Across      string            `json:"across" validate:"required"`
	Stack       string            `json:"stack,omitempty"`
	Calculation string            `json:"calculation,omitempty"`
	Interval    string            `json:"interval,omitempty"`
	// Scheme names the categorization scheme; resolved by the caller
	Scheme string `json:"categorization_scheme,omitempty"`

	// ValueField overrides the numeric field of duration and story point calculations
	ValueField string `json:"value_field,omitempty"`
	// DistinctField is the listed field of distinct calculations
	DistinctField string `json:"distinct_field,omitempty"`

	Page page.Request `json:"page"`
}

// Result is one partition; Stacks nest exactly one level
type Result struct {
	Key           *string `json:"key"`
	AdditionalKey string  `json:"additional_key,omitempty"`
	Count         int64   `json:"count"`

	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Median *float64 `json:"median,omitempty"`
	Sum    *float64 `json:"sum,omitempty"`

	DistinctValues []string `json:"distinct_values,omitempty"`

	TotalStoryPoints *float64 `json:"total_story_points,omitempty"`
	UnestimatedCount *int64   `json:"total_unestimated_tickets,omitempty"`

	Stacks []Result `json:"stacks,omitempty"`
}

// KeyString is the key or empty for the null partition
func (r Result) KeyString() string {
	if r.Key == nil {
		return ""
	}
	return *r.Key
}

// Options are engine wide aggregation settings
type Options struct {
	Median MedianPolicy
	// ValueFields are per calculation default numeric fields
	ValueFields map[Calculation]string
	// Scheme categorizes records for Category dimensions; nil is the empty scheme
	Scheme *categorize.Scheme
	// PageSize and MaxPageSize bound partition pages; zero uses the page defaults
	PageSize    int
	MaxPageSize int
}

// sortable lists the partition columns a request may sort by
var sortable = map[string]bool{
	"key": true, "count": true, "sum": true, "median": true, "min": true, "max": true,
	"total_story_points": true, "total_unestimated_tickets": true,
}

// Plan is a compiled, immutable aggregation
type Plan struct {
	req      Request
	calc     Calculation
	across   keyer
	stack    *keyer
	pred     predicate.Node
	opt      Options
	value    string
	sorts    []page.Sort
	interval timebucket.Interval
}

// Compile validates req against the dimension catalog
// unknown across, stack, calculation, interval or sort names and a stack
// equal to across are configuration errors
func Compile(req Request, cat Catalog, opt Options) (*Plan, error) {
	calc, err := ParseCalculation(req.Calculation)
	if err != nil {
		return nil, err
	}
	iv := timebucket.Day
	if strings.TrimSpace(req.Interval) != "" {
		if iv, err = timebucket.Parse(req.Interval); err != nil {
			return nil, err
		}
	}

	across, ok := cat.Dimension(req.Across)
	if !ok {
		return nil, perr.WithField(perr.Configf("unknown across dimension %q", req.Across), "across")
	}
	p := &Plan{
		req:      req,
		calc:     calc,
		opt:      opt,
		interval: iv,
		across:   keyer{dim: across, interval: iv, scheme: opt.Scheme},
	}

	if req.Stack != "" {
		if req.Stack == req.Across {
			return nil, perr.WithField(perr.Configf("stack dimension %q equals across", req.Stack), "stack")
		}
		stack, ok := cat.Dimension(req.Stack)
		if !ok {
			return nil, perr.WithField(perr.Configf("unknown stack dimension %q", req.Stack), "stack")
		}
		if stack.Kind == List {
			// a multi valued stack would count a record in several stacks
			return nil, perr.WithField(perr.Configf("dimension %q cannot be used as a stack", req.Stack), "stack")
		}
		p.stack = &keyer{dim: stack, interval: iv, scheme: opt.Scheme}
	}

	p.value = req.ValueField
	if p.value == "" {
		p.value = opt.ValueFields[calc]
	}
	if (calc == Duration || calc == StoryPoints) && p.value == "" {
		return nil, perr.WithField(perr.Configf("calculation %q needs a value field", calc), "value_field")
	}
	if calc == Distinct && req.DistinctField == "" {
		return nil, perr.WithField(perr.Configf("calculation %q needs a distinct field", calc), "distinct_field")
	}

	for _, s := range req.Page.Sort {
		if !sortable[s.Field] {
			return nil, perr.WithField(perr.Configf("unknown sort field %q", s.Field), "sort")
		}
	}
	p.sorts = append(p.sorts, req.Page.Sort...)
	if len(p.sorts) == 0 {
		p.sorts = []page.Sort{{Field: "key"}}
	}

	if p.pred, err = req.Filter.ToPredicate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Predicate is the compiled filter for store push down
func (p *Plan) Predicate() predicate.Node { return p.pred }

// Calculation is the resolved calculation
func (p *Plan) Calculation() Calculation { return p.calc }

// Across is the resolved across dimension
func (p *Plan) Across() Dimension { return p.across.dim }

// Stack is the resolved stack dimension, if any
func (p *Plan) Stack() (Dimension, bool) {
	if p.stack == nil {
		return Dimension{}, false
	}
	return p.stack.dim, true
}

// Fields lists the record fields the plan reads, filter excluded
func (p *Plan) Fields() []string {
	seen := map[string]bool{}
	var out []string
	add := func(fs ...string) {
		for _, f := range fs {
			if f != "" && !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	dims := []Dimension{p.across.dim}
	if p.stack != nil {
		dims = append(dims, p.stack.dim)
	}
	for _, d := range dims {
		add(d.Field)
		add(d.Parts...)
		add(d.AdditionalField)
		if d.Kind == Category && p.opt.Scheme != nil {
			for _, r := range p.opt.Scheme.Rules() {
				add(r.Filter.Fields()...)
			}
		}
	}
	switch p.calc {
	case Duration, StoryPoints:
		add(p.value)
	case Distinct:
		add(p.req.DistinctField)
	}
	return out
}

type partition struct {
	keyed
	acc    *acc
	stacks map[string]*partition
}

const nullKey = "\x00null"

func mapKey(k *string) string {
	if k == nil {
		return nullKey
	}
	return *k
}

// Run aggregates rows that already satisfy the filter and returns every
// partition sorted; Page applies paging
func (p *Plan) Run(rows []*record.Record) []Result {
	parts := map[string]*partition{}
	for _, r := range rows {
		// classification happens once per row, shared by across and stack
		c := &rowCtx{r: r}
		var stackKeys []keyed
		if p.stack != nil {
			stackKeys = p.stack.keys(c)
		}
		for _, k := range p.across.keys(c) {
			mk := mapKey(k.key)
			part, ok := parts[mk]
			if !ok {
				part = &partition{keyed: k, acc: p.newAcc()}
				parts[mk] = part
			}
			part.acc.add(r)
			for _, sk := range stackKeys {
				if part.stacks == nil {
					part.stacks = map[string]*partition{}
				}
				smk := mapKey(sk.key)
				sp, ok := part.stacks[smk]
				if !ok {
					sp = &partition{keyed: sk, acc: p.newAcc()}
					part.stacks[smk] = sp
				}
				sp.acc.add(r)
			}
		}
	}

	out := make([]Result, 0, len(parts))
	for _, part := range parts {
		res := p.result(part)
		if p.stack != nil {
			res.Stacks = make([]Result, 0, len(part.stacks))
			for _, sp := range part.stacks {
				res.Stacks = append(res.Stacks, p.result(sp))
			}
			sortResults(res.Stacks, p.stack.dim, []page.Sort{{Field: "key"}})
		}
		out = append(out, res)
	}
	sortResults(out, p.across.dim, p.sorts)
	return out
}

// Aggregate filters rows in memory, runs the plan and pages the partitions
func (p *Plan) Aggregate(rows []*record.Record) page.Response[Result] {
	kept := make([]*record.Record, 0, len(rows))
	for _, r := range rows {
		if p.pred.Eval(r) {
			kept = append(kept, r)
		}
	}
	return p.Page(p.Run(kept))
}

// Page pages sorted partitions with the request's page settings
func (p *Plan) Page(all []Result) page.Response[Result] {
	return page.Slice(all, p.req.Page.Normalize(p.opt.PageSize, p.opt.MaxPageSize))
}

func (p *Plan) newAcc() *acc { return newAcc(p.calc, p.value, p.req.DistinctField) }

func (p *Plan) result(part *partition) Result {
	res := Result{Key: part.key, AdditionalKey: part.additional}
	part.acc.fill(&res, p.opt.Median)
	return res
}

// sortResults orders by the requested columns, then by key ascending so
// paging is deterministic
func sortResults(rs []Result, dim Dimension, sorts []page.Sort) {
	sort.SliceStable(rs, func(i, j int) bool {
		for _, s := range sorts {
			if c := compareBy(rs[i], rs[j], s.Field, dim, s.Order()); c != 0 {
				return c < 0
			}
		}
		if c := compareKeys(rs[i], rs[j], dim, page.Asc); c != 0 {
			return c < 0
		}
		return rs[i].AdditionalKey < rs[j].AdditionalKey
	})
}

func compareBy(a, b Result, field string, dim Dimension, o page.Order) int {
	switch field {
	case "key":
		return compareKeys(a, b, dim, o)
	case "count":
		x, y := float64(a.Count), float64(b.Count)
		return page.CompareNumber(&x, &y, o)
	case "sum":
		return page.CompareNumber(a.Sum, b.Sum, o)
	case "median":
		return page.CompareNumber(a.Median, b.Median, o)
	case "min":
		return page.CompareNumber(a.Min, b.Min, o)
	case "max":
		return page.CompareNumber(a.Max, b.Max, o)
	case "total_story_points":
		return page.CompareNumber(a.TotalStoryPoints, b.TotalStoryPoints, o)
	case "total_unestimated_tickets":
		var x, y *float64
		if a.UnestimatedCount != nil {
			v := float64(*a.UnestimatedCount)
			x = &v
		}
		if b.UnestimatedCount != nil {
			v := float64(*b.UnestimatedCount)
			y = &v
		}
		return page.CompareNumber(x, y, o)
	}
	return 0
}

func compareKeys(a, b Result, dim Dimension, o page.Order) int {
	if dim.Kind == Time {
		return page.CompareKey(a.Key, b.Key, o)
	}
	return page.CompareText(a.Key, b.Key, o)
}
