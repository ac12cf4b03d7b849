// Package http provides http transport for analytics
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"insightsdb/internal/modkit/httpkit"
	perr "insightsdb/internal/platform/errors"
	"insightsdb/internal/services/analytics/domain"
	svc "insightsdb/internal/services/analytics/service"
)

// Register mounts analytics endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/describe", h.describe)

	// grouped counts and sums per record kind
	httpkit.PostJSON[domain.AggregateInput](r, "/{kind}/aggregate", h.aggregate)
	httpkit.PostJSON[domain.ListInput](r, "/{kind}/list", h.list)

	// assignment histories
	httpkit.PostJSON[domain.AtInput](r, "/intervals/{history}/at", h.at)
	httpkit.PostJSON[domain.OverlapInput](r, "/intervals/{history}/overlap", h.overlap)

	httpkit.PostJSON[domain.RollupInput](r, "/rollups/epic-story-points", h.rollup)
}

type handlers struct{ svc svc.Service }

// storeError keeps project errors and classifies raw driver errors
func storeError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := perr.As(err); ok {
		return err
	}
	if _, ok := perr.ExtractCHException(err); ok {
		return perr.FromClickhouse(err, msg)
	}
	return perr.FromPostgres(err, msg)
}

// swagger:route GET /analytics/describe Analytics analyticsDescribe
// @Summary Queryable kinds, schemes, org scopes and histories
// @Tags Analytics
// @Produce json
// @Success 200 {object} domain.Description "ok"
// @Router /analytics/describe [get]
func (h *handlers) describe(_ *stdhttp.Request) (any, error) {
	return h.svc.Describe(), nil
}

// swagger:route POST /analytics/{kind}/aggregate Analytics analyticsAggregate
// @Summary Group, count and sum records of a kind
// @Tags Analytics
// @Accept json
// @Produce json
// @Param kind path string true "Record kind" example(issues)
// @Param payload body domain.AggregateInput true "Aggregation"
// @Success 200 {object} page.Response[aggregate.Result] "ok"
// @Router /analytics/{kind}/aggregate [post]
func (h *handlers) aggregate(r *stdhttp.Request, in domain.AggregateInput) (any, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.Aggregate(r.Context(), tenant, chi.URLParam(r, "kind"), in)
	if err != nil {
		return nil, storeError(err, "aggregate")
	}
	return out, nil
}

// swagger:route POST /analytics/{kind}/list Analytics analyticsList
// @Summary Filtered, sorted page of records of a kind
// @Tags Analytics
// @Accept json
// @Produce json
// @Param kind path string true "Record kind" example(issues)
// @Param payload body domain.ListInput true "Listing"
// @Success 200 {object} page.Response[record.Record] "ok"
// @Router /analytics/{kind}/list [post]
func (h *handlers) list(r *stdhttp.Request, in domain.ListInput) (any, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.List(r.Context(), tenant, chi.URLParam(r, "kind"), in)
	if err != nil {
		return nil, storeError(err, "list")
	}
	return out, nil
}

// swagger:route POST /analytics/intervals/{history}/at Analytics analyticsAt
// @Summary Active assignment per subject at an instant
// @Tags Analytics
// @Accept json
// @Produce json
// @Param history path string true "Assignment history" example(sprint)
// @Param payload body domain.AtInput true "Instant"
// @Success 200 {object} domain.AtOutput "ok"
// @Router /analytics/intervals/{history}/at [post]
func (h *handlers) at(r *stdhttp.Request, in domain.AtInput) (any, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	as, err := h.svc.AssignmentsAt(r.Context(), tenant, chi.URLParam(r, "history"), in)
	if err != nil {
		return nil, storeError(err, "assignments at")
	}
	return domain.AtOutput{Assignments: as}, nil
}

// swagger:route POST /analytics/intervals/{history}/overlap Analytics analyticsOverlap
// @Summary Owners and subjects overlapping a half open window
// @Tags Analytics
// @Accept json
// @Produce json
// @Param history path string true "Assignment history" example(owner)
// @Param payload body domain.OverlapInput true "Window"
// @Success 200 {object} interval.Overlap "ok"
// @Router /analytics/intervals/{history}/overlap [post]
func (h *handlers) overlap(r *stdhttp.Request, in domain.OverlapInput) (any, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.OwnersInRange(r.Context(), tenant, chi.URLParam(r, "history"), in)
	if err != nil {
		return nil, storeError(err, "owners in range")
	}
	return out, nil
}

// swagger:route POST /analytics/rollups/epic-story-points Analytics analyticsRollup
// @Summary Recompute one page of epic story points from their children
// @Tags Analytics
// @Accept json
// @Produce json
// @Param payload body domain.RollupInput true "Page"
// @Success 200 {object} domain.RollupOutput "ok"
// @Router /analytics/rollups/epic-story-points [post]
func (h *handlers) rollup(r *stdhttp.Request, in domain.RollupInput) (any, error) {
	tenant, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	out, err := h.svc.RollupPage(r.Context(), tenant, in)
	if err != nil {
		return nil, storeError(err, "rollup")
	}
	return out, nil
}
