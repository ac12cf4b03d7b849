package modkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"insightsdb/internal/modkit/httpkit"
	phttp "insightsdb/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type describer interface{ Describe() string }

type kinds struct{}

func (kinds) Describe() string { return "issues,job_runs" }

type analyticsPorts struct {
	Service describer
	hidden  describer
}

// fakeModule is a module built the way service modules are
type fakeModule struct {
	Base
	ports any
}

func (m fakeModule) Ports() any { return m.ports }

func tag(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestMountRoutesScopesUnderPrefix(t *testing.T) {
	m := fakeModule{Base: Build(
		WithName("analytics"),
		WithPrefix("analytics/"),
		WithMiddlewares(tag("auth")),
		WithRoutes(func(r httpkit.Router) {
			httpkit.Get(r, "/describe", func(*http.Request) (any, error) { return "own", nil })
		}),
		// a binary's options land after the module defaults
		WithMiddlewares(tag("throttle")),
		WithRoutes(func(r httpkit.Router) {
			httpkit.Get(r, "/extra", func(*http.Request) (any, error) { return "extra", nil })
		}),
	)}

	if m.Name() != "analytics" || m.Prefix() != "/analytics" {
		t.Fatalf("name %q prefix %q", m.Name(), m.Prefix())
	}

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	for path, want := range map[string]string{"/analytics/describe": `"own"`, "/analytics/extra": `"extra"`} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("%s: %d %s", path, rec.Code, rec.Body.String())
		}
		if got := rec.Header().Values("X-Chain"); strings.Join(got, ",") != "auth,throttle" {
			t.Fatalf("%s: chain %v", path, got)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/describe", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unprefixed route served: %d", rec.Code)
	}
}

func TestMiddlewaresIsACopy(t *testing.T) {
	b := Build(WithMiddlewares(tag("a")))
	mw := b.Middlewares()
	mw[0] = nil
	if b.Middlewares()[0] == nil {
		t.Fatal("caller mutated module middleware")
	}
}

func TestBaseNeedsNameAndPrefix(t *testing.T) {
	for name, fn := range map[string]func(){
		"name":   func() { _ = Build(WithPrefix("/meta")).Name() },
		"prefix": func() { _ = Build(WithName("meta"), WithPrefix(" / ")).Prefix() },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("missing %s did not panic", name)
				}
			}()
			fn()
		}()
	}
}

func TestPortsOf(t *testing.T) {
	byField := fakeModule{Base: Build(WithName("analytics")), ports: analyticsPorts{Service: kinds{}, hidden: kinds{}}}
	if d, ok := PortsOf[describer](byField); !ok || d.Describe() != "issues,job_runs" {
		t.Fatalf("field lookup = %v %v", d, ok)
	}
	if _, ok := PortsOf[describer](fakeModule{ports: &analyticsPorts{Service: kinds{}}}); !ok {
		t.Fatal("pointer port sets are walked")
	}
	if _, ok := PortsOf[describer](fakeModule{ports: kinds{}}); !ok {
		t.Fatal("a port set may itself be the port")
	}
	if _, ok := PortsOf[describer](fakeModule{}); ok {
		t.Fatal("nil port set matched")
	}
	if _, ok := PortsOf[context.Context](byField); ok {
		t.Fatal("unrelated port matched")
	}
}

func TestMustPortsOfNamesModule(t *testing.T) {
	defer func() {
		msg, _ := recover().(string)
		if !strings.Contains(msg, "meta") || !strings.Contains(msg, "context.Context") {
			t.Fatalf("panic = %q", msg)
		}
	}()
	MustPortsOf[context.Context](fakeModule{Base: Build(WithName("meta"))})
}
