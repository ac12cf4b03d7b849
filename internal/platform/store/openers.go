package store

import (
	"context"
	"fmt"
	"time"

	chx "insightsdb/internal/platform/store/ch"
	"insightsdb/internal/platform/store/pg"
)

const (
	defaultConnectRetries = 20
	defaultPingTimeout    = 3 * time.Second
	firstBackoff          = 150 * time.Millisecond
	maxBackoff            = 2 * time.Second
)

// openPG opens the pool and waits for the server; postgres commonly starts
// alongside the api in compose and k8s
func openPG(ctx context.Context, cfg Config, s *Store) (*pgAdapter, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		AppName:  cfg.AppName,
		Slow:     cfg.PG.SlowQuery,
	}, tracer)
	if err != nil {
		return nil, err
	}

	// boot pings go to the pool so they never reach the tracer
	if err := pingUntil(ctx, p.Pool.Ping, cfg.PG.ConnectRetries, cfg.PG.PingTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return newPGAdapter(p), nil
}

// pingUntil pings up to attempts times with doubling backoff. Zero attempts
// and zero timeout take the defaults
func pingUntil(ctx context.Context, ping func(context.Context) error, attempts int, timeout time.Duration) error {
	if attempts <= 0 {
		attempts = defaultConnectRetries
	}
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	var err error
	wait := firstBackoff
	for i := range attempts {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err = ping(pctx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(2*wait, maxBackoff)
	}
	return fmt.Errorf("ping failed after %d attempts: %w", attempts, err)
}

func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:          cfg.CH.URL,
		MaxOpenConns: cfg.CH.MaxOpenConns,
		ReadTimeout:  cfg.CH.ReadTimeout,
		Role:         cfg.CH.ClientRole,
		Tag:          cfg.CH.ClientTag,
	})
	if err != nil {
		return nil, err
	}
	return chStore{c}, nil
}
