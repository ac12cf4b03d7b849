// Package logger owns the process wide zerolog logger and the request scope
// (request id and tenant) that handlers, the query engine and the rollup log
// under
package logger

import (
	"cmp"
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"insightsdb/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is zerolog's logger; packages name it through here
type Logger = zerolog.Logger

type Options struct {
	Level     string
	Format    string // "console" or "json"
	Service   string
	Component string
	Writer    io.Writer

	WithCaller  bool
	SampleEvery int

	// StaticFields are stamped on every line, i.e. a deploy region
	StaticFields map[string]string

	// File sends output to a size rotated file instead of stdout
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// FromEnv reads LOG_* through raw, which never logs itself
func FromEnv() Options {
	env := raw.New().Prefix("LOG_")
	return Options{
		Level:       strings.ToLower(env.Get("LEVEL", "debug")),
		Format:      strings.ToLower(env.Get("FORMAT", "console")),
		Service:     env.Get("SERVICE", ""),
		Component:   env.Get("COMPONENT", ""),
		WithCaller:  env.GetBool("CALLER", false),
		SampleEvery: env.GetInt("SAMPLE_EVERY", 0),
		File:        env.Get("FILE", ""),
		MaxSizeMB:   env.GetInt("MAX_MB", 100),
		MaxBackups:  env.GetInt("MAX_BACKUPS", 3),
	}
}

var (
	initOnce sync.Once
	root     atomic.Pointer[Logger]
)

// Get returns the root logger, building it from the environment when Init
// has not run
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger. Only the first call has any effect
func Init(opt Options) {
	initOnce.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := build(opt)
		root.Store(&l)
	})
}

func build(opt Options) Logger {
	w := output(opt)
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	c := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
	if bi, ok := debug.ReadBuildInfo(); ok {
		c = c.Str("go_version", bi.GoVersion)
	}
	for k, v := range map[string]string{"service": opt.Service, "component": opt.Component} {
		if v != "" {
			c = c.Str(k, v)
		}
	}
	for k, v := range opt.StaticFields {
		c = c.Str(k, v)
	}
	if opt.WithCaller {
		c = c.Caller()
	}

	l := c.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return l
}

// output is the explicit writer, else a rotated file, else stdout
func output(opt Options) io.Writer {
	if opt.Writer != nil {
		return opt.Writer
	}
	if strings.TrimSpace(opt.File) == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   opt.File,
		MaxSize:    opt.MaxSizeMB,
		MaxBackups: opt.MaxBackups,
		Compress:   true,
	}
}

// parseLevel takes zerolog level names plus "warning". Anything else is debug
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return lvl
}

type scopeKey struct{}

// scope is what a request contributes to its log lines
type scope struct{ requestID, tenantID string }

// WithRequest adds a request id and tenant to ctx. Empty values keep what ctx
// already carries, so the access log and auth can each fill in their half
func WithRequest(ctx context.Context, reqID, tenantID string) context.Context {
	s, _ := ctx.Value(scopeKey{}).(scope)
	s.requestID = cmp.Or(reqID, s.requestID)
	s.tenantID = cmp.Or(tenantID, s.tenantID)
	return context.WithValue(ctx, scopeKey{}, s)
}

// C is the root logger plus the request scope on ctx
func C(ctx context.Context) *Logger {
	s, _ := ctx.Value(scopeKey{}).(scope)
	c := Get().With()
	if s.requestID != "" {
		c = c.Str("request_id", s.requestID)
	}
	if s.tenantID != "" {
		c = c.Str("tenant_id", s.tenantID)
	}
	l := c.Logger()
	return &l
}

// Named is the root logger tagged with a component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
