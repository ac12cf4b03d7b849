package render

import (
	"math"
	"strconv"

	"insightsdb/internal/core/predicate"
)

// Postgres renders for pgx with $n placeholders and native arrays
var Postgres Dialect = postgres{}

// ClickHouse renders for clickhouse-go with ? placeholders
var ClickHouse Dialect = clickhouse{}

type postgres struct{}

func (postgres) Name() string { return "postgres" }

func (postgres) placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgres) in(col Column, ph string) string {
	if col.Kind == TextArray {
		return col.Expr + " && " + ph + "::text[]"
	}
	return col.Expr + " = ANY(" + ph + "::text[])"
}

func (postgres) like(col Column, ph string) string {
	if col.Kind == TextArray {
		return "EXISTS (SELECT 1 FROM unnest(" + col.Expr + ") AS v WHERE v LIKE " + ph + ")"
	}
	return col.Expr + " LIKE " + ph
}

func (postgres) likeArg(op predicate.MatchOp, v string) any { return likePattern(op, v) }

func (postgres) cmp(col Column, op predicate.CmpOp, ph string) string {
	if col.Kind == Time {
		return col.Expr + sqlOp(op) + "to_timestamp(" + ph + ")"
	}
	return col.Expr + sqlOp(op) + ph
}

func (postgres) cmpArg(_ Column, v float64) any { return v }

func (postgres) isNull(col Column) string {
	if col.Kind == TextArray {
		return "(" + col.Expr + " IS NULL OR cardinality(" + col.Expr + ") = 0)"
	}
	return col.Expr + " IS NULL"
}

func (postgres) nullSafe(sql string) string { return "COALESCE(" + sql + ", FALSE)" }

type clickhouse struct{}

func (clickhouse) Name() string { return "clickhouse" }

func (clickhouse) placeholder(int) string { return "?" }

func (clickhouse) in(col Column, ph string) string {
	if col.Kind == TextArray {
		return "hasAny(" + col.Expr + ", " + ph + ")"
	}
	return col.Expr + " IN " + ph
}

func (clickhouse) like(col Column, ph string) string {
	if col.Kind == TextArray {
		return "arrayExists(v -> v LIKE " + ph + ", " + col.Expr + ")"
	}
	return col.Expr + " LIKE " + ph
}

func (clickhouse) likeArg(op predicate.MatchOp, v string) any { return likePattern(op, v) }

func (clickhouse) cmp(col Column, op predicate.CmpOp, ph string) string {
	if col.Kind == Time {
		return col.Expr + sqlOp(op) + "fromUnixTimestamp64Milli(" + ph + ")"
	}
	return col.Expr + sqlOp(op) + ph
}

func (clickhouse) cmpArg(col Column, v float64) any {
	if col.Kind == Time {
		return int64(math.Round(v * 1000))
	}
	return v
}

func (clickhouse) isNull(col Column) string {
	if col.Kind == TextArray {
		return "empty(" + col.Expr + ")"
	}
	return "isNull(" + col.Expr + ")"
}

func (clickhouse) nullSafe(sql string) string { return "ifNull(" + sql + ", 0)" }
