package store

import (
	"context"
	"fmt"

	"insightsdb/internal/platform/store/ch"
)

// chClient is what chStore needs of *ch.CH
type chClient interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// chStore puts a clickhouse client behind the Clickhouse seam
type chStore struct{ c chClient }

var (
	_ Clickhouse = chStore{}
	_ Pinger     = chStore{}
)

// Insert takes a batch as [][]any, or one row as []any
func (s chStore) Insert(ctx context.Context, table string, data any) error {
	switch rows := data.(type) {
	case [][]any:
		return s.c.Insert(ctx, table, rows)
	case []any:
		return s.c.Insert(ctx, table, [][]any{rows})
	default:
		return fmt.Errorf("store: insert into %s: want [][]any rows, got %T", table, data)
	}
}

func (s chStore) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := s.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{rs}, nil
}

func (s chStore) Ping(ctx context.Context) error { return s.c.Ping(ctx) }
func (s chStore) Close() error                   { return s.c.Close() }

// chRows drops the close error, which the driver only reports for a
// connection that is already being discarded
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
