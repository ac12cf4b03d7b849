package repo

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/predicate"
	"insightsdb/internal/core/predicate/render"
	"insightsdb/internal/core/record"
	"insightsdb/internal/platform/store"
)

const recordCols = `r.id, r.kind, r.parent_key, r.strings, r.lists, r.numbers, r.times, r.custom`

// where scopes pred to the tenant and kind; $1 and $2 are tenant and kind
func where(s *entity.Schema, tenant string, pred predicate.Node) (string, []any, error) {
	cond, args, err := render.Renderer{Dialect: render.Postgres, Schema: s}.Render(pred, []any{tenant, s.Kind})
	if err != nil {
		return "", nil, err
	}
	return "r.tenant_id = $1 AND r.kind = $2 AND (" + cond + ")", args, nil
}

func (r *queries) Scan(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node) ([]*record.Record, error) {
	cond, args, err := where(s, tenant, pred)
	if err != nil {
		return nil, err
	}
	return store.Many(ctx, r.q, recordScanner(tenant), "select "+recordCols+" from records r where "+cond, args...)
}

func (r *queries) Page(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node, req page.Request) ([]*record.Record, int, error) {
	cond, args, err := where(s, tenant, pred)
	if err != nil {
		return nil, 0, err
	}

	total, err := store.Scalar[int64](ctx, r.q, "select count(*) from records r where "+cond, args...)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || req.Offset() >= int(total) {
		return nil, int(total), nil
	}

	n := len(args)
	sql := "select " + recordCols + " from records r where " + cond +
		" order by " + orderBy(s, req.Sort) +
		" limit $" + strconv.Itoa(n+1) + " offset $" + strconv.Itoa(n+2)
	out, err := store.Many(ctx, r.q, recordScanner(tenant), sql, append(args, req.PageSize, req.Offset())...)
	return out, int(total), err
}

// orderBy mirrors page.CompareText and page.CompareNumber: case folded text
// with a byte order tie break, nulls first ascending and last descending,
// then id
func orderBy(s *entity.Schema, sorts []page.Sort) string {
	parts := make([]string, 0, 2*len(sorts)+1)
	for _, o := range sorts {
		f, ok := s.Field(o.Field)
		if !ok {
			continue
		}
		col := entity.PGColumn(f)
		dir := " asc nulls first"
		if o.Desc {
			dir = " desc nulls last"
		}
		if col.Kind == render.Text {
			parts = append(parts, "lower("+col.Expr+")"+dir, col.Expr+` collate "C"`+dir)
			continue
		}
		parts = append(parts, col.Expr+dir)
	}
	return strings.Join(append(parts, `r.id collate "C" asc`), ", ")
}

// recordScanner decodes one recordCols row; json columns may be null
func recordScanner(tenant string) func(store.Row) (*record.Record, error) {
	return func(row store.Row) (*record.Record, error) {
		rec := &record.Record{Tenant: tenant}
		var (
			parent                          *string
			strs, lists, nums, times, custm []byte
		)
		if err := row.Scan(&rec.ID, &rec.Kind, &parent, &strs, &lists, &nums, &times, &custm); err != nil {
			return nil, err
		}
		if parent != nil {
			rec.ParentKey = *parent
		}
		for _, d := range []struct {
			raw []byte
			dst any
		}{
			{strs, &rec.Strings},
			{lists, &rec.Lists},
			{nums, &rec.Numbers},
			{times, &rec.Times},
			{custm, &rec.Custom},
		} {
			if len(d.raw) == 0 {
				continue
			}
			if err := json.Unmarshal(d.raw, d.dst); err != nil {
				return nil, err
			}
		}
		return rec, nil
	}
}
