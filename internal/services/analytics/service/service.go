// Package service contains analytics workflows: tenant scoped list and
// aggregate queries, interval lookups and parent rollups
package service

import (
	"context"

	"insightsdb/internal/core/aggregate"
	"insightsdb/internal/core/catalog"
	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/interval"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/query"
	"insightsdb/internal/core/record"
	"insightsdb/internal/core/rollup"
	"insightsdb/internal/modkit/repokit"
	perr "insightsdb/internal/platform/errors"
	"insightsdb/internal/platform/store"
	"insightsdb/internal/services/analytics/domain"
	"insightsdb/internal/services/analytics/repo"
)

// Service defines the analytics service contract
type Service interface {
	domain.ServicePort
}

// Options tune the service
type Options struct {
	Query query.Options

	RollupPageSize   int
	RollupWriteBatch int

	// Routes serve kinds from a source other than postgres, i.e. job runs
	// from clickhouse
	Routes map[string]query.Source
}

// Svc implements the analytics service
type Svc struct {
	binder  repokit.Binder[repo.Repo]
	db      repokit.TxRunner
	catalog *catalog.Catalog
	opt     Options
}

var _ Service = (*Svc)(nil)

// New constructs an analytics service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], cat *catalog.Catalog, opt Options) *Svc {
	if db == nil {
		panic("analytics.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("analytics.Service requires a non nil Repo binder")
	}
	if cat == nil {
		panic("analytics.Service requires a catalog")
	}
	if opt.RollupPageSize <= 0 {
		opt.RollupPageSize = rollup.DefaultPageSize
	}
	return &Svc{binder: binder, db: db, catalog: cat, opt: opt}
}

// within runs fn with an engine whose postgres source is bound to a tenant
// scoped transaction; routed kinds skip the transaction
func (s *Svc) within(ctx context.Context, tenant, kind string, fn func(ctx context.Context, e *query.Engine) error) error {
	if tenant == "" {
		return perr.WithField(perr.InvalidArgf("tenant is required"), "tenant")
	}
	if src, ok := s.opt.Routes[kind]; ok {
		return fn(ctx, query.New(src, s.catalog, s.opt.Query))
	}
	return s.tx(ctx, tenant, func(ctx context.Context, r repo.Repo) error {
		return fn(ctx, query.New(r, s.catalog, s.opt.Query))
	})
}

// Aggregate groups the tenant's records of kind
func (s *Svc) Aggregate(ctx context.Context, tenant, kind string, in domain.AggregateInput) (page.Response[aggregate.Result], error) {
	req := in.Request
	f, err := s.catalog.Apply(req.Filter, in.OrgScopes)
	if err != nil {
		return page.Response[aggregate.Result]{}, err
	}
	req.Filter = f

	var out page.Response[aggregate.Result]
	err = s.within(ctx, tenant, kind, func(ctx context.Context, e *query.Engine) error {
		var err error
		out, err = e.Aggregate(ctx, tenant, kind, req)
		return err
	})
	return out, err
}

// List pages the tenant's records of kind
func (s *Svc) List(ctx context.Context, tenant, kind string, in domain.ListInput) (page.Response[record.Record], error) {
	req := in.ListRequest
	f, err := s.catalog.Apply(req.Filter, in.OrgScopes)
	if err != nil {
		return page.Response[record.Record]{}, err
	}
	req.Filter = f

	var out page.Response[record.Record]
	err = s.within(ctx, tenant, kind, func(ctx context.Context, e *query.Engine) error {
		var err error
		out, err = e.List(ctx, tenant, kind, req)
		return err
	})
	return out, err
}

// tx runs fn against a repo bound to a tenant scoped transaction
func (s *Svc) tx(ctx context.Context, tenant string, fn func(ctx context.Context, r repo.Repo) error) error {
	if tenant == "" {
		return perr.WithField(perr.InvalidArgf("tenant is required"), "tenant")
	}
	return store.RunInTenant(ctx, s.db, tenant, func(ctx context.Context, q store.RowQuerier) error {
		return fn(ctx, repokit.MustBind(s.binder, q))
	})
}

// AssignmentsAt returns the assignment of history active at in.At per subject
func (s *Svc) AssignmentsAt(ctx context.Context, tenant, history string, in domain.AtInput) ([]interval.Assignment, error) {
	if _, err := entity.LookupHistory(history); err != nil {
		return nil, err
	}
	var out []interval.Assignment
	err := s.tx(ctx, tenant, func(ctx context.Context, r repo.Repo) error {
		var err error
		out, err = r.AssignmentsAt(ctx, tenant, history, in.Subjects, in.At)
		return err
	})
	return out, err
}

// OwnersInRange returns the distinct owners of history during [in.Start, in.End)
func (s *Svc) OwnersInRange(ctx context.Context, tenant, history string, in domain.OverlapInput) (interval.Overlap, error) {
	if _, err := entity.LookupHistory(history); err != nil {
		return interval.Overlap{}, err
	}
	var out interval.Overlap
	err := s.tx(ctx, tenant, func(ctx context.Context, r repo.Repo) error {
		var err error
		out, err = r.OwnersInRange(ctx, tenant, history, in.Start, in.End)
		return err
	})
	return out, err
}

// Describe lists the kinds, schemes, org scopes and histories callers can use
func (s *Svc) Describe() domain.Description {
	return domain.Description{
		Kinds:     entity.Kinds(),
		Schemes:   s.catalog.SchemeNames(),
		OrgScopes: s.catalog.ScopeIDs(),
		Histories: entity.Histories(),
	}
}
