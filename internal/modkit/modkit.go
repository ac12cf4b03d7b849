// Package modkit assembles api modules: the deps they share, the options a
// binary can override them with and the mounting every module has in common
package modkit

import (
	"net/http"

	"insightsdb/internal/modkit/httpkit"
	"insightsdb/internal/modkit/repokit"
	"insightsdb/internal/platform/config"
	"insightsdb/internal/platform/logger"
	"insightsdb/internal/platform/store"
	str "insightsdb/internal/platform/strings"
)

// Module is what the api mounts
type Module interface {
	MountRoutes(r httpkit.Router)
	// Ports is the module's port set for other modules and binaries
	Ports() any
	Name() string
}

// Deps are the shared dependencies modules are built from. CH is nil when
// clickhouse is not configured
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// Option overrides part of a module's Base
type Option func(*Base)

func WithName(name string) Option     { return func(b *Base) { b.name = name } }
func WithPrefix(prefix string) Option { return func(b *Base) { b.prefix = prefix } }

// WithMiddlewares appends per module middleware, outermost first
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Base) { b.mw = append(b.mw, mw...) }
}

// WithRoutes adds endpoints after the module's own
func WithRoutes(fn func(httpkit.Router)) Option {
	return func(b *Base) { b.routes = append(b.routes, fn) }
}

// Base carries a module's name, prefix, middleware and route registrations.
// Modules embed it and supply Ports
type Base struct {
	name   string
	prefix string
	mw     []func(http.Handler) http.Handler
	routes []func(httpkit.Router)
}

// Build applies opts in order, so a binary's options land after a module's
// defaults
func Build(opts ...Option) Base {
	var b Base
	for _, o := range opts {
		o(&b)
	}
	return b
}

func (b Base) Name() string   { return str.MustString(b.name, "module name") }
func (b Base) Prefix() string { return str.MustPrefix(b.prefix) }

// Middlewares returns a copy of the module middleware
func (b Base) Middlewares() []func(http.Handler) http.Handler {
	return append([]func(http.Handler) http.Handler(nil), b.mw...)
}

// MountRoutes scopes the module's routes under its prefix behind its
// middleware
func (b Base) MountRoutes(r httpkit.Router) {
	r.Route(b.Prefix(), func(rr httpkit.Router) {
		rr.Use(b.mw...)
		for _, fn := range b.routes {
			fn(rr)
		}
	})
}
