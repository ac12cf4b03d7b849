package pg

import (
	"context"
	"strings"
	"time"

	"insightsdb/internal/platform/logger"
)

// QueryEvent is one finished statement
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed time.Duration
	Err     error
	Slow    bool
}

type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs statements through log. Slow and failed statements log at
// warn, the rest at debug
func Tracer(log logger.Logger) QueryTracer {
	return logTracer{log: log.With().Str("component", "pg").Logger()}
}

type logTracer struct{ log logger.Logger }

func (l logTracer) OnQuery(_ context.Context, ev QueryEvent) {
	e := l.log.Debug()
	if ev.Slow || ev.Err != nil {
		e = l.log.Warn()
	}
	e.Dur("took", ev.Elapsed).
		Bool("slow", ev.Slow).
		Str("sql", oneLine(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("sql")
}

// oneLine collapses the whitespace of a multi line statement
func oneLine(sql string) string { return strings.Join(strings.Fields(sql), " ") }
