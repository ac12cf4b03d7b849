package aggregate

import (
	"strings"
	"time"

	"insightsdb/internal/core/categorize"
	"insightsdb/internal/core/record"
	"insightsdb/internal/core/timebucket"
)

// Kind is how a dimension derives its grouping key
type Kind uint8

const (
	// Categorical groups by a single valued field
	Categorical Kind = iota
	// List groups by each value of a multi valued field; across only
	List
	// Time groups by the calendar bucket of a timestamp field
	Time
	// Category groups by the categorization scheme result
	Category
	// Composite groups by several fields joined, i.e. instance/job
	Composite
)

func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case List:
		return "list"
	case Time:
		return "time"
	case Category:
		return "category"
	case Composite:
		return "composite"
	}
	return "unknown"
}

// Dimension describes one groupable attribute of an entity kind
type Dimension struct {
	Name string
	Kind Kind

	// Field is the source field of categorical, list and time dimensions
	Field string

	// Parts are the source fields of a composite key joined by Separator;
	// null parts are skipped and an all null composite is a null key
	Parts     []string
	Separator string

	// AdditionalField supplies the additional key of composite dimensions
	AdditionalField string
}

// Catalog resolves dimension names for one entity kind
type Catalog interface {
	Dimension(name string) (Dimension, bool)
}

// Dimensions is a map backed Catalog
type Dimensions map[string]Dimension

// Dimension implements Catalog
func (d Dimensions) Dimension(name string) (Dimension, bool) {
	dim, ok := d[name]
	if ok && dim.Name == "" {
		dim.Name = name
	}
	return dim, ok
}

// keyed is one grouping key produced for a row
type keyed struct {
	key        *string
	additional string
}

// rowCtx memoizes per row work shared by the across and stack keyers
type rowCtx struct {
	r        *record.Record
	category *string
}

func (c *rowCtx) classify(s *categorize.Scheme) string {
	if c.category == nil {
		v := s.Classify(c.r)
		c.category = &v
	}
	return *c.category
}

// keyer derives the keys of a row for one dimension
type keyer struct {
	dim      Dimension
	interval timebucket.Interval
	scheme   *categorize.Scheme
}

func (k keyer) keys(c *rowCtx) []keyed {
	switch k.dim.Kind {
	case List:
		vs := c.r.Values(k.dim.Field)
		if len(vs) == 0 {
			return []keyed{{}}
		}
		out := make([]keyed, 0, len(vs))
		seen := make(map[string]bool, len(vs))
		for _, v := range vs {
			if seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, keyed{key: str(v)})
		}
		return out
	case Time:
		t, ok := c.r.Time(k.dim.Field)
		if !ok {
			return []keyed{{}}
		}
		return []keyed{bucketKey(t, k.interval)}
	case Category:
		return []keyed{{key: str(c.classify(k.scheme))}}
	case Composite:
		parts := make([]string, 0, len(k.dim.Parts))
		for _, f := range k.dim.Parts {
			if v, ok := c.r.Value(f); ok && v != "" {
				parts = append(parts, v)
			}
		}
		kd := keyed{}
		if len(parts) > 0 {
			kd.key = str(strings.Join(parts, k.dim.Separator))
		}
		if k.dim.AdditionalField != "" {
			kd.additional, _ = c.r.Value(k.dim.AdditionalField)
		}
		return []keyed{kd}
	default:
		if v, ok := c.r.Value(k.dim.Field); ok {
			return []keyed{{key: str(v)}}
		}
		return []keyed{{}}
	}
}

func bucketKey(t time.Time, iv timebucket.Interval) keyed {
	b, err := timebucket.Of(t, iv)
	if err != nil {
		// interval was validated at compile time
		return keyed{}
	}
	return keyed{key: str(b.KeyString()), additional: b.Label}
}

func str(s string) *string { return &s }
