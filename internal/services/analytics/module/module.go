// Package module wires analytics into the API using modkit
package module

import (
	"net/http"

	"insightsdb/internal/core/catalog"
	"insightsdb/internal/core/entity"
	"insightsdb/internal/core/query"
	modkit "insightsdb/internal/modkit"
	"insightsdb/internal/modkit/httpkit"
	"insightsdb/internal/platform/logger"
	"insightsdb/internal/platform/net/middleware"
	anhttp "insightsdb/internal/services/analytics/http"
	anrepo "insightsdb/internal/services/analytics/repo"
	ansvc "insightsdb/internal/services/analytics/service"
)

// Module is the analytics api module
type Module struct {
	modkit.Base
	ports Ports
}

// New builds the analytics module; overrides win over ANALYTICS_ config and
// opts over the module defaults
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	opt := FromConfig(deps.Cfg).merge(overrides)

	mws := []func(http.Handler) http.Handler{
		httpkit.Auth(middleware.TenantHeader{Tenant: opt.TenantHeader}),
		httpkit.Tenancy(httpkit.AllowedTenants(opt.Tenants)),
		// request bodies are json; bodiless GETs pass
		middleware.AllowContentType("application/json"),
	}
	if opt.MaxInFlight > 0 {
		mws = append(mws, middleware.Throttle(opt.MaxInFlight))
	}

	cat := opt.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.LoadFile(opt.CatalogFile); err != nil {
			logger.Get().Panic().Err(err).Str("file", opt.CatalogFile).Msg("analytics: load catalog")
		}
	}

	routes := map[string]query.Source{}
	if deps.CH != nil {
		routes[entity.JobRuns] = anrepo.NewCH(deps.CH)
	}

	svc := ansvc.New(deps.PG, anrepo.NewPG(), cat, ansvc.Options{
		Query: query.Options{
			DefaultPageSize: opt.DefaultPageSize,
			MaxPageSize:     opt.MaxPageSize,
			Median:          opt.median(),
			Metrics:         opt.Metrics,
		},
		RollupPageSize:   opt.RollupPageSize,
		RollupWriteBatch: opt.RollupWriteBatch,
		Routes:           routes,
	})

	base := modkit.Build(append([]modkit.Option{
		modkit.WithName("analytics"),
		modkit.WithPrefix("/analytics"),
		modkit.WithMiddlewares(mws...),
		modkit.WithRoutes(func(r httpkit.Router) { anhttp.Register(r, svc) }),
	}, opts...)...)

	return &Module{Base: base, ports: Ports{Service: adaptServicePort{svc: svc}}}
}
