package service

import (
	"context"
	"time"

	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/rollup"
	perr "insightsdb/internal/platform/errors"
	"insightsdb/internal/services/analytics/domain"
	"insightsdb/internal/services/analytics/repo"
)

// tenantStore is a rollup.Store that commits every call in its own tenant
// scoped transaction, so completed write batches survive a later failure
type tenantStore struct{ s *Svc }

func (t tenantStore) ChildSums(ctx context.Context, tg rollup.Target, limit, offset int) ([]rollup.Sum, error) {
	var out []rollup.Sum
	err := t.s.tx(ctx, tg.Tenant, func(ctx context.Context, r repo.Repo) error {
		var err error
		out, err = r.ChildSums(ctx, tg, limit, offset)
		return err
	})
	return out, err
}

// writeAttempts bounds how often a write batch is retried after losing a
// serialization or lock race with a concurrent rollup of the same parents
const writeAttempts = 3

func (t tenantStore) WriteParents(ctx context.Context, tg rollup.Target, sums []rollup.Sum) error {
	var err error
	for range writeAttempts {
		err = t.s.tx(ctx, tg.Tenant, func(ctx context.Context, r repo.Repo) error {
			return r.WriteParents(ctx, tg, sums)
		})
		if !perr.IsRetryable(err) {
			return err
		}
	}
	return err
}

func (s *Svc) aggregator() *rollup.Aggregator {
	return rollup.New(tenantStore{s: s},
		rollup.WithWriteBatch(s.opt.RollupWriteBatch),
		rollup.WithMetrics(s.opt.Query.Metrics),
	)
}

func rollupTarget(tenant, kind, integrationID string, asOf time.Time) (rollup.Target, error) {
	sch, err := entity.Lookup(kind)
	if err != nil {
		return rollup.Target{}, err
	}
	if sch.Rollup == "" {
		return rollup.Target{}, perr.WithField(perr.Configf("%s records have no rollup", kind), "kind")
	}
	return rollup.Target{
		Tenant:        tenant,
		Kind:          kind,
		IntegrationID: integrationID,
		AsOf:          asOf,
		Field:         sch.Rollup,
	}, nil
}

// RollupEpicStoryPoints recomputes one page of epic story points from their
// children for one integration snapshot and reports whether more pages follow
func (s *Svc) RollupEpicStoryPoints(ctx context.Context, tenant, integrationID string, asOf time.Time, pageSize, offset int) (bool, error) {
	t, err := rollupTarget(tenant, entity.Issues, integrationID, asOf)
	if err != nil {
		return false, err
	}
	if pageSize <= 0 {
		pageSize = s.opt.RollupPageSize
	}
	return s.aggregator().RunPage(ctx, t, pageSize, offset)
}

// Rollup runs every page of kind's rollup and returns the pages processed
func (s *Svc) Rollup(ctx context.Context, tenant, kind, integrationID string, asOf time.Time) (int, error) {
	t, err := rollupTarget(tenant, kind, integrationID, asOf)
	if err != nil {
		return 0, err
	}
	return s.aggregator().Run(ctx, t, s.opt.RollupPageSize)
}

// RollupPage runs one epic rollup page and tells the caller where to resume
func (s *Svc) RollupPage(ctx context.Context, tenant string, in domain.RollupInput) (domain.RollupOutput, error) {
	size := in.PageSize
	if size <= 0 {
		size = s.opt.RollupPageSize
	}
	more, err := s.RollupEpicStoryPoints(ctx, tenant, in.IntegrationID, in.AsOf, size, in.Offset)
	if err != nil {
		return domain.RollupOutput{}, err
	}
	out := domain.RollupOutput{HasMore: more, NextOffset: in.Offset}
	if more {
		out.NextOffset = in.Offset + size
	}
	return out, nil
}

// LatestSnapshot returns the newest ingestion snapshot of an integration for
// a rollup kind; ok is false when nothing was ingested
func (s *Svc) LatestSnapshot(ctx context.Context, tenant, kind, integrationID string) (time.Time, bool, error) {
	if _, err := rollupTarget(tenant, kind, integrationID, time.Unix(0, 0)); err != nil {
		return time.Time{}, false, err
	}
	var (
		at time.Time
		ok bool
	)
	err := s.tx(ctx, tenant, func(ctx context.Context, r repo.Repo) error {
		var err error
		at, ok, err = r.LatestSnapshot(ctx, tenant, kind, integrationID)
		return err
	})
	return at, ok, err
}
