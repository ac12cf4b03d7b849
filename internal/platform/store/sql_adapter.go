package store

import (
	"context"
	"time"

	"insightsdb/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the statement surface pgxpool.Pool and pgx.Tx share
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// traced runs statements on db and reports each one through p
type traced struct {
	db pgxQuerier
	p  *pg.PG
}

var _ RowQuerier = traced{}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.db.Exec(ctx, sql, args...)
	t.p.Trace(ctx, sql, args, start, err)
	return ct, err
}

// Query reports when the result set opens, not when it is drained
func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.db.Query(ctx, sql, args...)
	t.p.Trace(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgxRows{rs}, nil
}

// QueryRow reports once the row is scanned, so the scan error is included
func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	return scanned{Row: t.db.QueryRow(ctx, sql, args...), done: func(err error) {
		t.p.Trace(ctx, sql, args, start, err)
	}}
}

type scanned struct {
	pgx.Row
	done func(error)
}

func (s scanned) Scan(dst ...any) error {
	err := s.Row.Scan(dst...)
	s.done(err)
	return err
}

type pgxRows struct{ pgx.Rows }

func (r pgxRows) Columns() []string {
	fds := r.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	return cols
}

// pgAdapter is the TxRunner over a pool. Transactions it opens are scoped to
// the tenant on ctx before fn runs
type pgAdapter struct {
	traced
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{traced: traced{db: p.Pool, p: p}, p: p}
}

func (a *pgAdapter) Ping(ctx context.Context) error { return a.p.Pool.Ping(ctx) }

func (a *pgAdapter) Close() error {
	a.p.Close()
	return nil
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	q := traced{db: tx, p: a.p}
	if err = scopeTx(ctx, q); err == nil {
		err = fn(q)
	}
	if err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// scopeTx publishes the tenant as app.tenant_id and the superadmin flag as
// app.superadmin, both local to the transaction, for row level security
func scopeTx(ctx context.Context, q RowQuerier) error {
	if tid, ok := TenantID(ctx); ok {
		if _, err := q.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tid); err != nil {
			return err
		}
	}
	if !IsSuperadmin(ctx) {
		return nil
	}
	_, err := q.Exec(ctx, "SELECT set_config('app.superadmin', 'on', true)")
	return err
}
