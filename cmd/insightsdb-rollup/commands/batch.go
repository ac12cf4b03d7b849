package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	perr "insightsdb/internal/platform/errors"
	"insightsdb/internal/platform/logger"
)

// roller is the slice of the analytics port a batch needs
type roller interface {
	Rollup(ctx context.Context, tenant, kind, integrationID string, asOf time.Time) (int, error)
	LatestSnapshot(ctx context.Context, tenant, kind, integrationID string) (time.Time, bool, error)
}

// batch is one rollup pass over a set of integrations
type batch struct {
	Tenant       string
	Kind         string
	Integrations []string
	// AsOf pins the snapshot; zero means each integration's latest
	AsOf        time.Time
	Concurrency int
}

func (b batch) validate() error {
	switch {
	case strings.TrimSpace(b.Tenant) == "":
		return perr.WithField(perr.InvalidArgf("tenant is required"), "tenant")
	case len(b.Integrations) == 0:
		return perr.WithField(perr.InvalidArgf("at least one integration is required"), "integrations")
	}
	return nil
}

// run rolls every integration up, at most Concurrency at a time, and stops
// at the first failure
func (b batch) run(ctx context.Context, r roller) error {
	if err := b.validate(); err != nil {
		return err
	}
	log := logger.C(ctx).With().
		Str("component", "rollup").
		Str("run_id", uuid.NewString()).
		Str("tenant", b.Tenant).
		Str("kind", b.Kind).
		Logger()

	g, ctx := errgroup.WithContext(ctx)
	if b.Concurrency > 0 {
		g.SetLimit(b.Concurrency)
	}
	for _, id := range b.Integrations {
		id := strings.TrimSpace(id)
		if id == "" {
			continue
		}
		g.Go(func() error {
			asOf := b.AsOf
			if asOf.IsZero() {
				at, ok, err := r.LatestSnapshot(ctx, b.Tenant, b.Kind, id)
				if err != nil {
					return fmt.Errorf("latest snapshot %s: %w", id, err)
				}
				if !ok {
					log.Info().Str("integration_id", id).Msg("no snapshot, skipping")
					return nil
				}
				asOf = at
			}
			start := time.Now()
			pages, err := r.Rollup(ctx, b.Tenant, b.Kind, id, asOf)
			if err != nil {
				return fmt.Errorf("rollup %s: %w", id, err)
			}
			log.Info().
				Str("integration_id", id).
				Time("as_of", asOf).
				Int("pages", pages).
				Dur("took", time.Since(start)).
				Msg("rollup done")
			return nil
		})
	}
	return g.Wait()
}

// parseAsOf accepts RFC3339 or a bare UTC date; empty is the zero time
func parseAsOf(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, perr.WithField(perr.InvalidArgf("bad as-of %q: want RFC3339 or YYYY-MM-DD", s), "as_of")
	}
	return t, nil
}
