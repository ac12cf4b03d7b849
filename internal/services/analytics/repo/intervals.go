package repo

import (
	"context"
	"sort"
	"time"

	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/interval"
	"insightsdb/internal/core/predicate"
	"insightsdb/internal/core/predicate/render"
	"insightsdb/internal/platform/store"
)

var historyRenderer = render.Renderer{Dialect: render.Postgres, Schema: entity.HistoryColumns}

// AssignmentsAt resolves the assignment active at at per subject with the same
// tie break as interval.AtPoint: latest start, then open or later end, then
// lower owner id. nil subjects means every subject
func (r *queries) AssignmentsAt(ctx context.Context, tenant, history string, subjects []string, at time.Time) ([]interval.Assignment, error) {
	pred := entity.HistoryFields.ActiveAtPredicate(at)
	if subjects != nil {
		pred = predicate.AllOf(pred, predicate.In{Field: "subject_id", Values: subjects})
	}
	cond, args, err := historyRenderer.Render(pred, []any{tenant, history})
	if err != nil {
		return nil, err
	}
	sql := `
select distinct on (a.subject_id) a.subject_id, a.owner_id, a.start_time, a.end_time
from assignments a
where a.tenant_id = $1 and a.history = $2 and (` + cond + `)
order by a.subject_id, a.start_time desc, a.end_time desc nulls first, a.owner_id asc
`
	out, err := store.Many(ctx, r.q, scanAssignment, sql, args...)
	if out == nil && err == nil {
		out = []interval.Assignment{}
	}
	return out, err
}

// OwnersInRange is interval.InRange over the assignments table
func (r *queries) OwnersInRange(ctx context.Context, tenant, history string, t0, t1 time.Time) (interval.Overlap, error) {
	out := interval.Overlap{Owners: []string{}}
	pred := entity.HistoryFields.OverlapPredicate(t0, t1)
	if pred == predicate.False {
		return out, nil
	}
	cond, args, err := historyRenderer.Render(pred, []any{tenant, history})
	if err != nil {
		return out, err
	}
	sql := `
select coalesce(array_agg(distinct a.owner_id) filter (where a.owner_id <> ''), '{}'::text[]),
       count(distinct a.subject_id)
from assignments a
where a.tenant_id = $1 and a.history = $2 and (` + cond + `)
`
	got, err := store.One(ctx, r.q, func(row store.Row) (interval.Overlap, error) {
		var (
			o        interval.Overlap
			subjects int64
		)
		err := row.Scan(&o.Owners, &subjects)
		o.Subjects = int(subjects)
		return o, err
	}, sql, args...)
	if err != nil {
		return out, err
	}
	// array_agg distinct orders by the column collation; InRange orders by bytes
	sort.Strings(got.Owners)
	return got, nil
}

// scanAssignment reads one assignment with both bounds in UTC
func scanAssignment(row store.Row) (interval.Assignment, error) {
	var a interval.Assignment
	if err := row.Scan(&a.SubjectID, &a.OwnerID, &a.Start, &a.End); err != nil {
		return a, err
	}
	return a.UTC(), nil
}
