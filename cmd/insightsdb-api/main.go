// @title         Insights API
// @version       0.1.0
// @description   Tenant scoped aggregation, classification and rollups over engineering records

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insightsdb/internal/core/catalog"
	"insightsdb/internal/modkit/repokit"
	"insightsdb/internal/platform/config"
	"insightsdb/internal/platform/logger"
	"insightsdb/internal/platform/metrics"
	phttp "insightsdb/internal/platform/net/http"
	"insightsdb/internal/platform/net/middleware"
	"insightsdb/internal/platform/store"

	anrepo "insightsdb/internal/services/analytics/repo"
	"insightsdb/internal/services/api"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// .env before any config read
	if err := config.LoadEnvFiles(); err != nil {
		logger.Get().Panic().Err(err).Msg("load .env failed")
	}

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	// bring up logging early
	l := logger.Get()

	chURL := chCfg.MayString("DBURL", "")

	// open the platform store (postgres, plus clickhouse when configured)
	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: api.ServiceName,
			PG: store.PGConfig{
				Enabled:        true,
				URL:            pgCfg.MustString("DBURL"),
				MaxConns:       int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQuery:      pgCfg.MayDuration("SLOW_QUERY", 500*time.Millisecond),
				LogSQL:         pgCfg.MayBool("LOG_SQL", true),
				ConnectRetries: pgCfg.MayInt("CONNECT_RETRIES", 20),
				PingTimeout:    pgCfg.MayDuration("PING_TIMEOUT", 3*time.Second),
			},
			CH: store.CHConfig{
				Enabled:      chURL != "",
				URL:          chURL,
				MaxOpenConns: chCfg.MayInt("MAX_CONNS", 8),
				ReadTimeout:  chCfg.MayDuration("READ_TIMEOUT", 30*time.Second),
				ClientRole:   api.ServiceName,
				ClientTag:    "api",
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	repokit.MustGuard(context.Background(), st)

	if pgCfg.MayBool("MIGRATE", true) {
		if err := anrepo.Migrate(context.Background(), st.PG); err != nil {
			l.Panic().Err(err).Msg("analytics schema migration failed")
		}
	}

	cat, err := catalog.LoadFile(root.Prefix("ANALYTICS_").MayString("CATALOG_FILE", ""))
	if err != nil {
		l.Panic().Err(err).Msg("catalog load failed")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// http server (reads CORE_API_PORT / CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	api.Mount(
		srv.Router(),
		api.Options{
			Config:  root,
			Store:   st,
			Logger:  l,
			Catalog: cat,
			Metrics: metrics.New(reg),
			CORS: middleware.CORSOptions{
				AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", nil),
				MaxAge:         apiCfg.MayInt("CORS_MAX_AGE", 300),
			},
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	// run until SIGINT or SIGTERM, then drain
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
