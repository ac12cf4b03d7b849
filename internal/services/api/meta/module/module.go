// Package module mounts the meta endpoints: health, readiness, build and
// catalog introspection
package module

import (
	"time"

	"insightsdb/internal/core/catalog"
	modkit "insightsdb/internal/modkit"
	"insightsdb/internal/modkit/httpkit"

	metahttp "insightsdb/internal/services/api/meta/http"
)

// Module is the meta api module. It exposes no ports
type Module struct {
	modkit.Base
}

var _ modkit.Module = (*Module)(nil)

// New builds the meta module reporting on service, its stores and cat
func New(deps modkit.Deps, service string, cat *catalog.Catalog, opts ...modkit.Option) *Module {
	started := time.Now()
	base := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
		modkit.WithRoutes(func(r httpkit.Router) {
			metahttp.Register(r, metahttp.Deps{
				ServiceName: service,
				StartedAt:   started,
				Catalog:     cat,
				Backends: []metahttp.Backend{
					{Name: "pg", Required: true, Seam: deps.PG},
					{Name: "ch", Seam: deps.CH},
				},
			})
		}),
	}, opts...)...)
	return &Module{Base: base}
}

func (m *Module) Ports() any { return nil }
