// Package query is the stateless entry point for list and aggregate queries:
// it resolves the entity schema and categorization scheme, compiles filters
// to predicates, pushes them to a Source and shapes the paged response
package query

import (
	"context"
	"time"

	"insightsdb/internal/core/aggregate"
	"insightsdb/internal/core/categorize"
	"insightsdb/internal/core/criteria"
	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/predicate"
	"insightsdb/internal/core/record"
	perr "insightsdb/internal/platform/errors"
	"insightsdb/internal/platform/logger"
	"insightsdb/internal/platform/metrics"
)

// Source reads tenant rows from a store
// implementations must only return rows of the tenant and kind that satisfy pred
type Source interface {
	// Scan returns every matching row
	Scan(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node) ([]*record.Record, error)
	// Page returns one page of matching rows ordered by req.Sort then id,
	// plus the overall match count
	Page(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node, req page.Request) ([]*record.Record, int, error)
}

// Schemes resolves categorization schemes; an empty name is the default scheme
type Schemes interface {
	Scheme(name string) (*categorize.Scheme, error)
}

// Options tune the engine
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	Median          aggregate.MedianPolicy
	Metrics         *metrics.Collector
}

// ListRequest asks for one page of records
type ListRequest struct {
	Filter criteria.Criteria `json:"filter"`
	Scheme string            `json:"categorization_scheme,omitempty"`
	Page   page.Request      `json:"page"`
}

// Engine answers list and aggregate queries; safe for concurrent use
type Engine struct {
	def     Source
	routes  map[string]Source
	schemes Schemes
	opt     Options
}

// New returns an engine reading from def; schemes may be nil when no kind is categorized
func New(def Source, schemes Schemes, opt Options) *Engine {
	return &Engine{def: def, routes: map[string]Source{}, schemes: schemes, opt: opt}
}

// Route serves kind from src instead of the default source; call before use
func (e *Engine) Route(kind string, src Source) *Engine {
	e.routes[kind] = src
	return e
}

func (e *Engine) source(kind string) Source {
	if s, ok := e.routes[kind]; ok {
		return s
	}
	return e.def
}

// Aggregate groups the matching rows of kind and returns one page of partitions
func (e *Engine) Aggregate(ctx context.Context, tenant, kind string, req aggregate.Request) (page.Response[aggregate.Result], error) {
	defer e.opt.Metrics.ObserveQuery(kind, "aggregate", time.Now())

	s, err := entity.Lookup(kind)
	if err != nil {
		return page.Response[aggregate.Result]{}, err
	}
	scheme, err := e.scheme(s, req.Scheme)
	if err != nil {
		return page.Response[aggregate.Result]{}, err
	}
	filter, member, err := e.filter(s, scheme, req.Filter)
	if err != nil {
		return page.Response[aggregate.Result]{}, err
	}
	req.Filter = filter

	plan, err := aggregate.Compile(req, s.Dimensions, aggregate.Options{
		Median:      e.opt.Median,
		ValueFields: s.ValueFields,
		Scheme:      scheme,
		PageSize:    e.opt.DefaultPageSize,
		MaxPageSize: e.opt.MaxPageSize,
	})
	if err != nil {
		return page.Response[aggregate.Result]{}, err
	}
	pred := predicate.AllOf(plan.Predicate(), member)
	if pred == predicate.False {
		return page.Empty[aggregate.Result](), nil
	}

	rows, err := e.source(kind).Scan(ctx, tenant, s, pred)
	if err != nil {
		return page.Response[aggregate.Result]{}, err
	}
	all := plan.Run(rows)
	e.opt.Metrics.ObservePartitions(len(all))

	logger.C(ctx).Debug().
		Str("component", "query").
		Str("kind", kind).
		Str("across", req.Across).
		Str("stack", req.Stack).
		Str("calculation", string(plan.Calculation())).
		Int("rows", len(rows)).
		Int("partitions", len(all)).
		Msg("aggregate")

	return plan.Page(all), nil
}

// List returns one page of matching rows of kind
// the default order is by id; every order ends with id so paging is stable
func (e *Engine) List(ctx context.Context, tenant, kind string, req ListRequest) (page.Response[record.Record], error) {
	defer e.opt.Metrics.ObserveQuery(kind, "list", time.Now())

	s, err := entity.Lookup(kind)
	if err != nil {
		return page.Response[record.Record]{}, err
	}
	for _, o := range req.Page.Sort {
		if f, ok := s.Field(o.Field); !ok || !f.Sortable {
			return page.Response[record.Record]{}, perr.WithField(perr.Configf("unknown sort field %q for %s", o.Field, kind), "sort")
		}
	}
	scheme, err := e.scheme(s, req.Scheme)
	if err != nil {
		return page.Response[record.Record]{}, err
	}
	filter, member, err := e.filter(s, scheme, req.Filter)
	if err != nil {
		return page.Response[record.Record]{}, err
	}
	base, err := filter.ToPredicate()
	if err != nil {
		return page.Response[record.Record]{}, err
	}
	pred := predicate.AllOf(base, member)
	if pred == predicate.False {
		return page.Empty[record.Record](), nil
	}

	pr := req.Page.Normalize(e.opt.DefaultPageSize, e.opt.MaxPageSize)
	rows, total, err := e.source(kind).Page(ctx, tenant, s, pred, pr)
	if err != nil {
		return page.Response[record.Record]{}, err
	}
	out := make([]record.Record, len(rows))
	for i, r := range rows {
		out[i] = *r
	}

	logger.C(ctx).Debug().
		Str("component", "query").
		Str("kind", kind).
		Int("page", pr.Page).
		Int("count", len(out)).
		Int("total", total).
		Msg("list")

	return page.Of(out, total), nil
}

func (e *Engine) scheme(s *entity.Schema, name string) (*categorize.Scheme, error) {
	if !s.Categorized {
		if name != "" {
			return nil, perr.WithField(perr.Configf("%s records are not categorized", s.Kind), "categorization_scheme")
		}
		return nil, nil
	}
	if e.schemes == nil {
		if name != "" {
			return nil, perr.WithField(perr.Configf("unknown categorization scheme %q", name), "categorization_scheme")
		}
		return nil, nil
	}
	return e.schemes.Scheme(name)
}

// filter validates c against the schema and splits the category pseudo field
// off the base criteria into a membership predicate
func (e *Engine) filter(s *entity.Schema, scheme *categorize.Scheme, c criteria.Criteria) (criteria.Criteria, predicate.Node, error) {
	if err := s.ValidateFields(c.Fields()); err != nil {
		return c, nil, err
	}
	if !s.Categorized {
		return c, predicate.True, nil
	}
	for _, sc := range c.Scopes {
		if usesCategory(sc.Criteria) {
			return c, nil, perr.WithField(perr.Configf("scope %q cannot filter by category", sc.Name), entity.CategoryField)
		}
	}
	if _, ok := c.Partial[entity.CategoryField]; ok {
		return c, nil, perr.WithField(perr.Configf("category supports include and exclude only"), entity.CategoryField)
	}
	if _, ok := c.Ranges[entity.CategoryField]; ok {
		return c, nil, perr.WithField(perr.Configf("category supports include and exclude only"), entity.CategoryField)
	}

	include, exclude := c.Include[entity.CategoryField], c.Exclude[entity.CategoryField]
	if include == nil && exclude == nil {
		return c, predicate.True, nil
	}
	c = c.Clone()
	delete(c.Include, entity.CategoryField)
	delete(c.Exclude, entity.CategoryField)
	member, err := scheme.Membership(include, exclude)
	if err != nil {
		return c, nil, perr.WithField(err, entity.CategoryField)
	}
	return c, member, nil
}

func usesCategory(c criteria.Criteria) bool {
	for _, f := range c.Fields() {
		if f == entity.CategoryField {
			return true
		}
	}
	return false
}
