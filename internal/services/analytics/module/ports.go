package module

import (
	"context"
	"time"

	"insightsdb/internal/core/aggregate"
	"insightsdb/internal/core/interval"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/record"
	"insightsdb/internal/services/analytics/domain"
	ansvc "insightsdb/internal/services/analytics/service"
)

// Ports is the analytics port set shared with other modules and binaries
type Ports struct {
	Service domain.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

type adaptServicePort struct{ svc ansvc.Service }

// Aggregate groups records of kind
func (a adaptServicePort) Aggregate(ctx context.Context, tenant, kind string, in domain.AggregateInput) (page.Response[aggregate.Result], error) {
	return a.svc.Aggregate(ctx, tenant, kind, in)
}

// List returns one page of records of kind
func (a adaptServicePort) List(ctx context.Context, tenant, kind string, in domain.ListInput) (page.Response[record.Record], error) {
	return a.svc.List(ctx, tenant, kind, in)
}

// AssignmentsAt returns the active assignment per subject at an instant
func (a adaptServicePort) AssignmentsAt(ctx context.Context, tenant, history string, in domain.AtInput) ([]interval.Assignment, error) {
	return a.svc.AssignmentsAt(ctx, tenant, history, in)
}

// OwnersInRange returns owners and subjects overlapping a window
func (a adaptServicePort) OwnersInRange(ctx context.Context, tenant, history string, in domain.OverlapInput) (interval.Overlap, error) {
	return a.svc.OwnersInRange(ctx, tenant, history, in)
}

// RollupEpicStoryPoints recomputes one page of epic story points
func (a adaptServicePort) RollupEpicStoryPoints(ctx context.Context, tenant, integrationID string, asOf time.Time, pageSize, offset int) (bool, error) {
	return a.svc.RollupEpicStoryPoints(ctx, tenant, integrationID, asOf, pageSize, offset)
}

// RollupPage runs one epic rollup page and reports where to resume
func (a adaptServicePort) RollupPage(ctx context.Context, tenant string, in domain.RollupInput) (domain.RollupOutput, error) {
	return a.svc.RollupPage(ctx, tenant, in)
}

// Rollup runs every page of kind's rollup
func (a adaptServicePort) Rollup(ctx context.Context, tenant, kind, integrationID string, asOf time.Time) (int, error) {
	return a.svc.Rollup(ctx, tenant, kind, integrationID, asOf)
}

// LatestSnapshot returns the newest ingestion snapshot of an integration
func (a adaptServicePort) LatestSnapshot(ctx context.Context, tenant, kind, integrationID string) (time.Time, bool, error) {
	return a.svc.LatestSnapshot(ctx, tenant, kind, integrationID)
}

// Describe lists what a caller can query
func (a adaptServicePort) Describe() domain.Description { return a.svc.Describe() }
