// Package store holds the seams the engine persists through: postgres for
// entity sums and assignment history, clickhouse for columnar job runs
package store

import (
	"context"
	"errors"
	"fmt"

	"insightsdb/internal/platform/logger"
)

// Row is a single row to scan
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set; callers must Close it
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the sql surface repos are bound to
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner runs fn in one transaction, rolled back when fn fails
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse takes batched inserts and reads of columnar tables
type Clickhouse interface {
	Insert(ctx context.Context, table string, data any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

type Pinger interface{ Ping(context.Context) error }

// Store carries whichever backends Open enabled. A disabled backend is nil
type Store struct {
	Log logger.Logger
	PG  TxRunner
	CH  Clickhouse
}

type Option func(*Store) error

// WithLogger sets the logger sql tracing writes to
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// Open brings up the backends cfg enables, postgres first. A failing backend
// closes the ones already open
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{} // the zero Log discards
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	if cfg.PG.Enabled {
		db, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = db
	}
	if cfg.CH.Enabled {
		c, err := openCH(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = c
	}
	return s, nil
}

// backends pairs each open backend with its name
func (s *Store) backends() map[string]any {
	out := map[string]any{}
	if s.PG != nil {
		out["pg"] = s.PG
	}
	if s.CH != nil {
		out["ch"] = s.CH
	}
	return out
}

// Guard pings every open backend that can be pinged
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("store: nil")
	}
	var errs []error
	for name, b := range s.backends() {
		if p, ok := b.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every open backend
func (s *Store) Close(context.Context) error {
	var errs []error
	for name, b := range s.backends() {
		if c, ok := b.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
