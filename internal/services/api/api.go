// Package api provides the HTTP API for the application
package api

import (
	"insightsdb/internal/core/catalog"
	"insightsdb/internal/platform/config"
	"insightsdb/internal/platform/logger"
	"insightsdb/internal/platform/metrics"
	phttp "insightsdb/internal/platform/net/http"
	"insightsdb/internal/platform/net/middleware"
	"insightsdb/internal/platform/store"

	"insightsdb/internal/modkit"
	"insightsdb/internal/modkit/httpkit"
	"insightsdb/internal/modkit/swaggerkit"

	analyticsmod "insightsdb/internal/services/analytics/module"
	metamod "insightsdb/internal/services/api/meta/module"
)

// ServiceName identifies the API in meta endpoints and logs
const ServiceName = "insightsdb-api"

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Catalog        *catalog.Catalog
	Metrics        *metrics.Collector
	CORS           middleware.CORSOptions
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	mods := []modkit.Module{
		metamod.New(deps, ServiceName, opt.Catalog),
		analyticsmod.New(deps, analyticsmod.Options{
			Catalog: opt.Catalog,
			Metrics: opt.Metrics,
		}),
	}

	// load balancer health checks and prometheus scrapes sit outside the versioned api
	r.Use(middleware.Heartbeat("/health"))
	r.Handle("/metrics", opt.Metrics.Handler())
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.CORS), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
}
