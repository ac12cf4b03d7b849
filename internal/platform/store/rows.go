package store

import (
	"context"
	"fmt"

	perr "insightsdb/internal/platform/errors"
)

// Scalar scans the only column of the only row into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	err := q.QueryRow(ctx, sql, args...).Scan(&v)
	return v, err
}

// One maps a single row with scan. No row is perr.ErrNotFound, more than one
// is an error
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	out, err := Many(ctx, q, scan, sql, args...)
	switch {
	case err != nil:
		return zero, err
	case len(out) == 0:
		return zero, perr.ErrNotFound
	case len(out) > 1:
		return zero, fmt.Errorf("store: want 1 row, got %d", len(out))
	}
	return out[0], nil
}

// Many maps every row with scan and closes the result set
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
