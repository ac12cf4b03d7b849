package domain

import (
	"context"
	"time"

	"insightsdb/internal/core/aggregate"
	"insightsdb/internal/core/interval"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/record"
)

// ServicePort is consumed by handlers, the rollup command and other modules
type ServicePort interface {
	Aggregate(ctx context.Context, tenant, kind string, in AggregateInput) (page.Response[aggregate.Result], error)
	List(ctx context.Context, tenant, kind string, in ListInput) (page.Response[record.Record], error)

	AssignmentsAt(ctx context.Context, tenant, history string, in AtInput) ([]interval.Assignment, error)
	OwnersInRange(ctx context.Context, tenant, history string, in OverlapInput) (interval.Overlap, error)

	RollupEpicStoryPoints(ctx context.Context, tenant, integrationID string, asOf time.Time, pageSize, offset int) (bool, error)
	RollupPage(ctx context.Context, tenant string, in RollupInput) (RollupOutput, error)
	Rollup(ctx context.Context, tenant, kind, integrationID string, asOf time.Time) (int, error)
	LatestSnapshot(ctx context.Context, tenant, kind, integrationID string) (time.Time, bool, error)

	Describe() Description
}
