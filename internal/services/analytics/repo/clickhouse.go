package repo

import (
	"context"
	"strings"
	"time"

	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/predicate"
	"insightsdb/internal/core/predicate/render"
	"insightsdb/internal/core/record"
	perr "insightsdb/internal/platform/errors"
	"insightsdb/internal/platform/store"
)

// CH serves kinds that carry a ClickHouse table, i.e. job runs
// tables have a tenant_id column plus one nullable column per field
type CH struct {
	db store.Clickhouse
}

// NewCH returns a ClickHouse source
func NewCH(db store.Clickhouse) *CH { return &CH{db: db} }

type chQuery struct {
	table  string
	fields []entity.Field
	cols   []string
	cond   string
	args   []any
}

func (c *CH) prepare(tenant string, s *entity.Schema, pred predicate.Node) (chQuery, error) {
	sch, ok := s.ClickHouse()
	if !ok {
		return chQuery{}, perr.Configf("kind %s has no clickhouse table", s.Kind)
	}
	cond, args, err := render.Renderer{Dialect: render.ClickHouse, Schema: sch}.Render(pred, []any{tenant})
	if err != nil {
		return chQuery{}, err
	}
	q := chQuery{table: s.CHTable, cond: "tenant_id = ? AND (" + cond + ")", args: args}
	for _, f := range s.Fields {
		if col, ok := sch.Column(f.Name); ok {
			q.fields = append(q.fields, f)
			q.cols = append(q.cols, col.Expr)
		}
	}
	return q, nil
}

func (q chQuery) selectSQL() string {
	return "SELECT id, " + strings.Join(q.cols, ", ") + " FROM " + q.table + " WHERE " + q.cond
}

// Scan implements query.Source
func (c *CH) Scan(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node) ([]*record.Record, error) {
	q, err := c.prepare(tenant, s, pred)
	if err != nil {
		return nil, err
	}
	rows, err := c.db.Query(ctx, q.selectSQL(), q.args...)
	if err != nil {
		return nil, err
	}
	return scanCH(rows, tenant, s.Kind, q.fields)
}

// Page implements query.Source
func (c *CH) Page(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node, req page.Request) ([]*record.Record, int, error) {
	q, err := c.prepare(tenant, s, pred)
	if err != nil {
		return nil, 0, err
	}

	rows, err := c.db.Query(ctx, "SELECT count() FROM "+q.table+" WHERE "+q.cond, q.args...)
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	for rows.Next() {
		if err := rows.Scan(&total); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if total == 0 || uint64(req.Offset()) >= total {
		return nil, int(total), nil
	}

	sch, _ := s.ClickHouse()
	sql := q.selectSQL() + " ORDER BY " + chOrderBy(sch, req.Sort) + " LIMIT ? OFFSET ?"
	rows, err = c.db.Query(ctx, sql, append(q.args, req.PageSize, req.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanCH(rows, tenant, s.Kind, q.fields)
	return out, int(total), err
}

func chOrderBy(sch render.Schema, sorts []page.Sort) string {
	parts := make([]string, 0, 2*len(sorts)+1)
	for _, o := range sorts {
		col, ok := sch.Column(o.Field)
		if !ok {
			continue
		}
		dir := " ASC NULLS FIRST"
		if o.Desc {
			dir = " DESC NULLS LAST"
		}
		if col.Kind == render.Text {
			parts = append(parts, "lowerUTF8("+col.Expr+")"+dir)
		}
		parts = append(parts, col.Expr+dir)
	}
	return strings.Join(append(parts, "id ASC"), ", ")
}

func scanCH(rows store.Rows, tenant, kind string, fields []entity.Field) ([]*record.Record, error) {
	defer rows.Close()
	var out []*record.Record
	for rows.Next() {
		rec := record.New(kind, "")
		rec.Tenant = tenant

		dest := make([]any, 0, len(fields)+1)
		dest = append(dest, &rec.ID)
		for _, f := range fields {
			switch f.Kind {
			case entity.List:
				dest = append(dest, new([]string))
			case entity.Number:
				dest = append(dest, new(*float64))
			case entity.Time:
				dest = append(dest, new(*time.Time))
			default:
				dest = append(dest, new(*string))
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, f := range fields {
			switch v := dest[i+1].(type) {
			case *[]string:
				if len(*v) > 0 {
					rec.SetList(f.Name, *v...)
				}
			case **float64:
				if *v != nil {
					rec.SetNumber(f.Name, **v)
				}
			case **time.Time:
				if *v != nil {
					rec.SetTime(f.Name, **v)
				}
			case **string:
				if *v != nil {
					rec.SetString(f.Name, **v)
				}
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
