// Package http serves what operators and load balancers read about a running
// api: liveness with uptime, store readiness, build info and the catalog
package http

import (
	"context"
	"net/http"
	"time"

	"insightsdb/internal/core/catalog"
	"insightsdb/internal/core/version"
	"insightsdb/internal/modkit/httpkit"
	"insightsdb/internal/platform/store"

	"golang.org/x/sync/errgroup"
)

// Backend is a store seam readiness reports on. A required backend that is
// down fails readiness, an optional one degrades it
type Backend struct {
	Name     string
	Required bool
	Seam     any
}

type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Backends    []Backend
	Catalog     *catalog.Catalog

	// ReadyTimeout bounds all readiness pings together, 2s when zero
	ReadyTimeout time.Duration
}

type handlers struct{ deps Deps }

func Register(r httpkit.Router, d Deps) {
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	h := &handlers{deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/catalog", h.catalog)
}

type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"insightsdb-api"`
	Started string `json:"started" example:"2026-03-02T09:00:00Z"`
	// Uptime is in whole seconds
	Uptime int64  `json:"uptime" example:"300"`
	Now    string `json:"now"    example:"2026-03-02T09:05:00Z"`
}

// ReadyCheck is one backend. Status is ok, fail, skipped or unknown
type ReadyCheck struct {
	Name     string `json:"name"     example:"pg"`
	Required bool   `json:"required" example:"true"`
	Status   string `json:"status"   example:"ok"`
	Error    string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse is ok, degraded or fail
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-03-02T09:05:00Z"`
}

type CatalogResponse struct {
	Version   int      `json:"version"    example:"1"`
	Schemes   []string `json:"schemes"    example:"default"`
	OrgScopes []string `json:"org_scopes" example:"platform"`
}

// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(*http.Request) (any, error) {
	now := time.Now()
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(now.Sub(h.deps.StartedAt) / time.Second),
		Now:     now.UTC().Format(time.RFC3339),
	}, nil
}

// @Summary Readiness with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyTimeout)
	defer cancel()

	checks := make([]ReadyCheck, len(h.deps.Backends))
	var g errgroup.Group
	for i, b := range h.deps.Backends {
		g.Go(func() error {
			checks[i] = ping(ctx, b)
			return nil
		})
	}
	_ = g.Wait()

	return ReadyResponse{Status: overall(checks), Checks: checks, Now: time.Now().UTC().Format(time.RFC3339)}, nil
}

func ping(ctx context.Context, b Backend) ReadyCheck {
	c := ReadyCheck{Name: b.Name, Required: b.Required}
	p, ok := b.Seam.(store.Pinger)
	switch {
	case b.Seam == nil && b.Required:
		c.Status, c.Error = "fail", "not configured"
	case b.Seam == nil:
		c.Status = "skipped"
	case !ok:
		c.Status = "unknown"
	default:
		c.Status = "ok"
		if err := p.Ping(ctx); err != nil {
			c.Status, c.Error = "fail", err.Error()
		}
	}
	return c
}

// overall fails on a failed required backend and degrades on anything else
// that is neither ok nor skipped
func overall(checks []ReadyCheck) string {
	status := "ok"
	for _, c := range checks {
		switch {
		case c.Status == "fail" && c.Required:
			return "fail"
		case c.Status == "fail" || c.Status == "unknown":
			status = "degraded"
		}
	}
	return status
}

// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(*http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

// @Summary Loaded categorization schemes and org scopes
// @Tags Meta
// @Produce json
// @Success 200 {object} CatalogResponse
// @Router /meta/catalog [get]
func (h *handlers) catalog(*http.Request) (any, error) {
	c := h.deps.Catalog
	if c == nil {
		return CatalogResponse{Schemes: []string{}, OrgScopes: []string{}}, nil
	}
	return CatalogResponse{Version: c.Version, Schemes: c.SchemeNames(), OrgScopes: c.ScopeIDs()}, nil
}
