package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"insightsdb/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dsn = "postgres://u:p@127.0.0.1:5432/insights?sslmode=disable"

func TestOpenRejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{URL: "://bad"}, nil); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestOpenAppliesConfig(t *testing.T) {
	testkit.Serial(t)

	var got *pgxpool.Config
	testkit.Swap(t, &newPool, func(_ context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
		got = pc
		return &pgxpool.Pool{}, nil
	})

	p, err := Open(context.Background(), Config{URL: dsn, MaxConns: 7, AppName: "insightsdb-rollup", Slow: time.Second}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.MaxConns != 7 {
		t.Fatalf("MaxConns = %d", got.MaxConns)
	}
	if app := got.ConnConfig.RuntimeParams["application_name"]; app != "insightsdb-rollup" {
		t.Fatalf("application_name = %q", app)
	}
	if p.Slow != time.Second || p.Pool == nil {
		t.Fatalf("client = %+v", p)
	}
}

func TestOpenSurfacesPoolErrors(t *testing.T) {
	testkit.Serial(t)

	boom := errors.New("boom")
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) { return nil, boom })

	if _, err := Open(context.Background(), Config{URL: dsn}, nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

type events []QueryEvent

func (e *events) OnQuery(_ context.Context, ev QueryEvent) { *e = append(*e, ev) }

func TestTraceMarksSlowStatements(t *testing.T) {
	t.Parallel()

	var seen events
	p := &PG{Tracer: &seen, Slow: time.Hour}
	p.Trace(context.Background(), "SELECT 1", nil, time.Now(), nil)
	p.Trace(context.Background(), "SELECT 2", nil, time.Now().Add(-2*time.Hour), nil)

	never := &PG{Tracer: &seen, Slow: -1}
	never.Trace(context.Background(), "SELECT 3", nil, time.Now().Add(-2*time.Hour), nil)

	if len(seen) != 3 || seen[0].Slow || !seen[1].Slow || seen[2].Slow {
		t.Fatalf("events = %+v", seen)
	}
}

func TestNilClientIsQuiet(t *testing.T) {
	t.Parallel()

	var p *PG
	p.Trace(context.Background(), "SELECT 1", nil, time.Now(), nil)
	p.Close()
	(&PG{}).Close()
}
