// Package pg opens the postgres pool that holds entity sums and assignment
// history, and reports every statement to an optional tracer
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool
type Config struct {
	URL      string
	MaxConns int32
	// AppName is reported as application_name on every connection
	AppName string
	// Slow marks statements taking at least this long; negative never marks
	Slow time.Duration
}

// PG is a pool plus the tracer its statements report to
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	Slow   time.Duration
}

var newPool = pgxpool.NewWithConfig

// Open builds the pool without waiting for the server; callers ping
func Open(ctx context.Context, cfg Config, tracer QueryTracer) (*PG, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pg: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		pc.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}

	pool, err := newPool(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("pg: pool: %w", err)
	}
	return &PG{Pool: pool, Tracer: tracer, Slow: cfg.Slow}, nil
}

// Trace reports a statement started at start. Nil clients and clients
// without a tracer drop it
func (p *PG) Trace(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if p == nil || p.Tracer == nil {
		return
	}
	took := time.Since(start)
	p.Tracer.OnQuery(ctx, QueryEvent{
		SQL:     sql,
		Args:    args,
		Elapsed: took,
		Err:     err,
		Slow:    p.Slow >= 0 && took >= p.Slow,
	})
}

func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
