package http

import (
	stdctx "context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightsdb/internal/core/catalog"
	phttp "insightsdb/internal/platform/net/http"
)

type pinger struct{ err error }

func (p pinger) Ping(stdctx.Context) error { return p.err }

func get(t *testing.T, d Deps, path string, out any) int {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), d)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
	return rec.Code
}

func TestReady(t *testing.T) {
	refused := errors.New("connection refused")
	cases := []struct {
		name     string
		backends []Backend
		status   string
	}{
		{"pg up, ch skipped", []Backend{{Name: "pg", Required: true, Seam: pinger{}}, {Name: "ch"}}, "ok"},
		{"ch down", []Backend{{Name: "pg", Required: true, Seam: pinger{}}, {Name: "ch", Seam: pinger{err: refused}}}, "degraded"},
		{"pg down", []Backend{{Name: "pg", Required: true, Seam: pinger{err: refused}}, {Name: "ch", Seam: pinger{}}}, "fail"},
		{"pg missing", []Backend{{Name: "pg", Required: true}}, "fail"},
		{"cannot ping", []Backend{{Name: "pg", Required: true, Seam: struct{}{}}}, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out ReadyResponse
			code := get(t, Deps{Backends: tc.backends}, "/ready", &out)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, tc.status, out.Status)
			require.Len(t, out.Checks, len(tc.backends))
		})
	}
}

func TestReadyReportsEachBackend(t *testing.T) {
	var out ReadyResponse
	get(t, Deps{Backends: []Backend{
		{Name: "pg", Required: true, Seam: pinger{}},
		{Name: "ch", Seam: pinger{err: errors.New("connection refused")}},
		{Name: "cache"},
	}}, "/ready", &out)

	assert.Equal(t, []ReadyCheck{
		{Name: "pg", Required: true, Status: "ok"},
		{Name: "ch", Status: "fail", Error: "connection refused"},
		{Name: "cache", Status: "skipped"},
	}, out.Checks)
}

// slow blocks until the readiness deadline
type slow struct{}

func (slow) Ping(ctx stdctx.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestReadyIsBounded(t *testing.T) {
	var out ReadyResponse
	start := time.Now()
	get(t, Deps{ReadyTimeout: 50 * time.Millisecond, Backends: []Backend{{Name: "pg", Required: true, Seam: slow{}}}}, "/ready", &out)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "fail", out.Status)
	assert.Equal(t, stdctx.DeadlineExceeded.Error(), out.Checks[0].Error)
}

func TestHealthAndVersion(t *testing.T) {
	d := Deps{ServiceName: "insightsdb-api", StartedAt: time.Now().Add(-time.Minute)}

	var h HealthResponse
	get(t, d, "/health", &h)
	assert.True(t, h.OK)
	assert.Equal(t, "insightsdb-api", h.Service)
	assert.GreaterOrEqual(t, h.Uptime, int64(59))

	var v struct {
		Service string `json:"service"`
		Version string `json:"version"`
	}
	get(t, d, "/version", &v)
	assert.Equal(t, "insightsdb-api", v.Service)
	assert.Equal(t, "dev", v.Version)
}

func TestCatalog(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	var out CatalogResponse
	get(t, Deps{Catalog: cat}, "/catalog", &out)
	assert.Equal(t, 1, out.Version)
	assert.Equal(t, []string{"default", "delivery"}, out.Schemes)
	assert.Equal(t, []string{"platform", "web"}, out.OrgScopes)

	get(t, Deps{}, "/catalog", &out)
	assert.Empty(t, out.Schemes)
}
