// Package rollup recomputes a parent numeric field as the sum of its
// children's values for one ingestion snapshot, in resumable pages
package rollup

import (
	"context"
	"time"

	perr "insightsdb/internal/platform/errors"
	"insightsdb/internal/platform/logger"
	"insightsdb/internal/platform/metrics"
)

const (
	// DefaultPageSize is the number of parents read per page
	DefaultPageSize = 1000
	// DefaultWriteBatch is the number of parents written per store call
	DefaultWriteBatch = 100
)

// Target scopes one rollup run
type Target struct {
	Tenant        string
	Kind          string
	IntegrationID string
	// AsOf is the ingestion snapshot both parents and children belong to
	AsOf time.Time
	// Field is the numeric field summed from children into parents
	Field string
}

// Validate rejects targets missing a scope component
func (t Target) Validate() error {
	switch {
	case t.Tenant == "":
		return perr.WithField(perr.InvalidArgf("tenant is required"), "tenant")
	case t.Kind == "":
		return perr.WithField(perr.InvalidArgf("kind is required"), "kind")
	case t.IntegrationID == "":
		return perr.WithField(perr.InvalidArgf("integration id is required"), "integration_id")
	case t.AsOf.IsZero():
		return perr.WithField(perr.InvalidArgf("as of is required"), "as_of")
	case t.Field == "":
		return perr.WithField(perr.InvalidArgf("field is required"), "field")
	}
	return nil
}

// Sum is one parent with its stored and recomputed values
type Sum struct {
	ParentKey string
	// Current is the stored parent value, nil when unset
	Current *float64
	// Computed is the sum over children, null children counting as zero
	Computed float64
}

// Changed reports whether the parent needs a write
func (s Sum) Changed() bool {
	return s.Current == nil || *s.Current != s.Computed
}

// Store is the storage port of the aggregator
type Store interface {
	// ChildSums returns parents of the target snapshot that have at least one
	// child, ordered by parent key, after skipping offset of them
	ChildSums(ctx context.Context, t Target, limit, offset int) ([]Sum, error)
	// WriteParents stores Computed for each sum in one transaction
	WriteParents(ctx context.Context, t Target, sums []Sum) error
}

// Aggregator drives rollups over a Store
type Aggregator struct {
	store      Store
	writeBatch int
	metrics    *metrics.Collector
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithWriteBatch sets the number of parents written per store call
func WithWriteBatch(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.writeBatch = n
		}
	}
}

// WithMetrics records parents read and written
func WithMetrics(m *metrics.Collector) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// New returns an Aggregator over store
func New(store Store, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, writeBatch: DefaultWriteBatch}
	for _, o := range opts {
		o(a)
	}
	return a
}

// RunPage recomputes one page of parents starting at offset and reports
// whether another page may follow. Only changed parents are written, so
// rerunning a page is a no-op. Parents without children keep their value
func (a *Aggregator) RunPage(ctx context.Context, t Target, pageSize, offset int) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	sums, err := a.store.ChildSums(ctx, t, pageSize, offset)
	if err != nil {
		return false, err
	}

	var changed []Sum
	for _, s := range sums {
		if s.ParentKey != "" && s.Changed() {
			changed = append(changed, s)
		}
	}
	for lo := 0; lo < len(changed); lo += a.writeBatch {
		hi := min(lo+a.writeBatch, len(changed))
		if err := a.store.WriteParents(ctx, t, changed[lo:hi]); err != nil {
			return false, err
		}
	}

	a.metrics.AddRollup(t.IntegrationID, len(sums), len(changed))
	logger.C(ctx).Debug().
		Str("component", "rollup").
		Str("kind", t.Kind).
		Str("integration_id", t.IntegrationID).
		Int("offset", offset).
		Int("read", len(sums)).
		Int("written", len(changed)).
		Msg("rollup page")

	return len(sums) == pageSize, nil
}

// Run drives RunPage until no page remains and returns the pages processed
func (a *Aggregator) Run(ctx context.Context, t Target, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := 0
	for offset, more := 0, true; more; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		var err error
		if more, err = a.RunPage(ctx, t, pageSize, offset); err != nil {
			return pages, err
		}
		pages++
	}
	return pages, nil
}
