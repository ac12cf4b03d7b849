package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"insightsdb/internal/core/entity"
	"insightsdb/internal/modkit"
	"insightsdb/internal/platform/config"
	"insightsdb/internal/platform/logger"
	"insightsdb/internal/platform/store"
	"insightsdb/internal/services/analytics/domain"
	anmod "insightsdb/internal/services/analytics/module"
)

type runFlags struct {
	tenant       string
	kind         string
	integrations []string
	asOf         string
	concurrency  int
	schedule     string
	timeout      time.Duration
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run rollups once, or on a cron schedule with --schedule",
		Example: `  insightsdb-rollup run --tenant acme --integrations 7,9
  insightsdb-rollup run --tenant acme --integrations 7 --as-of 2024-05-01
  insightsdb-rollup run --tenant acme --schedule "*/30 * * * *"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// env is read here so values from --env-file apply
			f.fill(cmd.Flags(), config.New().Prefix("ROLLUP_"))
			return runRollups(cmd.Context(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.tenant, "tenant", "", "tenant to roll up (ROLLUP_TENANT)")
	fl.StringVar(&f.kind, "kind", entity.Issues, "record kind with a rollup field")
	fl.StringSliceVar(&f.integrations, "integrations", nil, "integration ids (ROLLUP_INTEGRATIONS)")
	fl.StringVar(&f.asOf, "as-of", "", "ingestion snapshot, RFC3339 or YYYY-MM-DD; default is each integration's latest")
	fl.IntVar(&f.concurrency, "concurrency", 2, "integrations rolled up in parallel (ROLLUP_CONCURRENCY)")
	fl.StringVar(&f.schedule, "schedule", "", "cron spec; empty runs once (ROLLUP_SCHEDULE)")
	fl.DurationVar(&f.timeout, "timeout", 30*time.Minute, "deadline of one pass (ROLLUP_TIMEOUT)")
	return cmd
}

// fill takes ROLLUP_* values for flags not given on the command line
func (f *runFlags) fill(fl *pflag.FlagSet, rc config.Conf) {
	if !fl.Changed("tenant") {
		f.tenant = rc.MayString("TENANT", f.tenant)
	}
	if !fl.Changed("integrations") {
		f.integrations = rc.MayCSV("INTEGRATIONS", f.integrations)
	}
	if !fl.Changed("concurrency") {
		f.concurrency = rc.MayInt("CONCURRENCY", f.concurrency)
	}
	if !fl.Changed("schedule") {
		f.schedule = rc.MayString("SCHEDULE", f.schedule)
	}
	if !fl.Changed("timeout") {
		f.timeout = rc.MayDuration("TIMEOUT", f.timeout)
	}
}

func runRollups(parent context.Context, f runFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	asOf, err := parseAsOf(f.asOf)
	if err != nil {
		return err
	}
	b := batch{
		Tenant:       f.tenant,
		Kind:         f.kind,
		Integrations: f.integrations,
		AsOf:         asOf,
		Concurrency:  f.concurrency,
	}
	if err := b.validate(); err != nil {
		return err
	}

	l := logger.Get()
	pgCfg := config.New().Prefix("SERVICE_PGSQL_")
	st, err := store.Open(ctx, store.Config{
		AppName: "insightsdb-rollup",
		PG: store.PGConfig{
			Enabled:        true,
			URL:            pgCfg.MustString("DBURL"),
			MaxConns:       int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQuery:      pgCfg.MayDuration("SLOW_QUERY", 500*time.Millisecond),
			LogSQL:         pgCfg.MayBool("LOG_SQL", false),
			ConnectRetries: pgCfg.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:    pgCfg.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
	}, store.WithLogger(*l))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	m := anmod.New(modkit.Deps{Log: *l, Cfg: config.New(), PG: st.PG}, anmod.Options{})
	svc := modkit.MustPortsOf[domain.ServicePort](m)

	pass := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		return b.run(ctx, svc)
	}

	if f.schedule == "" {
		return pass(ctx)
	}
	return schedule(ctx, f.schedule, pass)
}

// schedule runs pass on spec until ctx ends; a failed pass is logged and the
// next tick retries. Overlapping ticks are skipped
func schedule(ctx context.Context, spec string, pass func(context.Context) error) error {
	log := logger.C(ctx).With().Str("component", "rollup").Str("schedule", spec).Logger()
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if err := pass(ctx); err != nil {
			log.Error().Err(err).Msg("rollup pass failed")
		}
	}); err != nil {
		return err
	}
	log.Info().Msg("rollup scheduler started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("rollup scheduler stopped")
	return nil
}
