package repo

import (
	"context"
	"time"

	"insightsdb/internal/core/rollup"
	"insightsdb/internal/platform/store"
)

// rollups scope parents and children to one integration and ingestion
// snapshot; children with a null value count as zero
const childSumsSQL = `
select p.id,
       (p.numbers->>$5)::double precision,
       sum(coalesce((c.numbers->>$5)::double precision, 0))
from records p
join records c
  on c.tenant_id = p.tenant_id
 and c.kind = p.kind
 and c.parent_key = p.id
 and c.strings->>'integration_id' = $3
 and (c.times->>'ingested_at')::timestamptz = $4
where p.tenant_id = $1
  and p.kind = $2
  and p.strings->>'integration_id' = $3
  and (p.times->>'ingested_at')::timestamptz = $4
group by p.tenant_id, p.kind, p.id
order by p.id collate "C"
limit $6 offset $7
`

const writeParentsSQL = `
update records r
set numbers = jsonb_set(r.numbers, array[$5::text], to_jsonb(u.v))
from unnest($6::text[], $7::double precision[]) as u(id, v)
where r.tenant_id = $1
  and r.kind = $2
  and r.id = u.id
  and r.strings->>'integration_id' = $3
  and (r.times->>'ingested_at')::timestamptz = $4
  and (r.numbers->>$5)::double precision is distinct from u.v
`

const latestSnapshotSQL = `
select max((r.times->>'ingested_at')::timestamptz)
from records r
where r.tenant_id = $1
  and r.kind = $2
  and r.strings->>'integration_id' = $3
`

// LatestSnapshot returns the newest ingestion snapshot of an integration;
// ok is false when the integration has no records
func (r *queries) LatestSnapshot(ctx context.Context, tenant, kind, integrationID string) (time.Time, bool, error) {
	at, err := store.Scalar[*time.Time](ctx, r.q, latestSnapshotSQL, tenant, kind, integrationID)
	if err != nil || at == nil {
		return time.Time{}, false, err
	}
	return at.UTC(), true, nil
}

func (r *queries) ChildSums(ctx context.Context, t rollup.Target, limit, offset int) ([]rollup.Sum, error) {
	return store.Many(ctx, r.q, func(row store.Row) (rollup.Sum, error) {
		var s rollup.Sum
		err := row.Scan(&s.ParentKey, &s.Current, &s.Computed)
		return s, err
	}, childSumsSQL, t.Tenant, t.Kind, t.IntegrationID, t.AsOf, t.Field, limit, offset)
}

// WriteParents updates every parent in one statement
func (r *queries) WriteParents(ctx context.Context, t rollup.Target, sums []rollup.Sum) error {
	if len(sums) == 0 {
		return nil
	}
	ids := make([]string, len(sums))
	vals := make([]float64, len(sums))
	for i, s := range sums {
		ids[i], vals[i] = s.ParentKey, s.Computed
	}
	_, err := r.q.Exec(ctx, writeParentsSQL, t.Tenant, t.Kind, t.IntegrationID, t.AsOf, t.Field, ids, vals)
	return err
}
