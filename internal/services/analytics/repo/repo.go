// Package repo provides postgres and clickhouse access for analytics
package repo

import (
	"context"
	_ "embed"
	"time"

	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/interval"
	"insightsdb/internal/core/page"
	"insightsdb/internal/core/predicate"
	"insightsdb/internal/core/record"
	"insightsdb/internal/core/rollup"
	"insightsdb/internal/modkit/repokit"
	"insightsdb/internal/platform/store"
)

// Schema is the postgres DDL the repo expects; it is idempotent
//
//go:embed schema.sql
var Schema string

// Repo is the persistence surface for analytics over postgres
// it is a query.Source for records and a rollup.Store for parent sums
type Repo interface {
	Scan(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node) ([]*record.Record, error)
	Page(ctx context.Context, tenant string, s *entity.Schema, pred predicate.Node, req page.Request) ([]*record.Record, int, error)

	AssignmentsAt(ctx context.Context, tenant, history string, subjects []string, at time.Time) ([]interval.Assignment, error)
	OwnersInRange(ctx context.Context, tenant, history string, t0, t1 time.Time) (interval.Overlap, error)

	ChildSums(ctx context.Context, t rollup.Target, limit, offset int) ([]rollup.Sum, error)
	WriteParents(ctx context.Context, t rollup.Target, sums []rollup.Sum) error
	LatestSnapshot(ctx context.Context, tenant, kind, integrationID string) (time.Time, bool, error)
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// Migrate applies Schema in one superadmin transaction
func Migrate(ctx context.Context, tx repokit.TxRunner) error {
	return store.RunAsSuperadmin(ctx, tx, func(ctx context.Context, q store.RowQuerier) error {
		_, err := q.Exec(ctx, Schema)
		return err
	})
}
