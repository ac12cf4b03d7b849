package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "insightsdb/internal/platform/errors"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type groupInput struct {
	Across      string `json:"across" validate:"required"`
	Calculation string `json:"calculation,omitempty"`
}

type group struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type wireEnvelope struct {
	StatusCode int     `json:"status_code"`
	Status     string  `json:"status"`
	Code       string  `json:"code"`
	Error      string  `json:"error"`
	Field      string  `json:"field"`
	RequestID  string  `json:"request_id"`
	Data       []group `json:"data"`
}

// analyticsMux mounts a grouped count endpoint the way modules do
func analyticsMux(fn func(*stdhttp.Request, groupInput) (any, error)) *chi.Mux {
	m := chi.NewRouter()
	m.Use(chimw.RequestID)
	AdaptChi(m).Route("/analytics", func(r Router) {
		r.Post("/{kind}/aggregate", JSONHandler(fn))
	})
	return m
}

func serve(t *testing.T, m stdhttp.Handler, method, path, body string) (int, wireEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	var env wireEnvelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
			t.Fatalf("content type = %q", ct)
		}
	}
	return rec.Code, env
}

func TestJSONHandler_EnvelopesResult(t *testing.T) {
	t.Parallel()

	m := analyticsMux(func(r *stdhttp.Request, in groupInput) (any, error) {
		if chi.URLParam(r, "kind") != "issues" || in.Across != "status" {
			return nil, errors.New("unexpected request")
		}
		return []group{{Key: "Done", Count: 3}, {Key: "Other", Count: 1}}, nil
	})

	code, env := serve(t, m, stdhttp.MethodPost, "/analytics/issues/aggregate", `{"across":"status"}`)
	if code != stdhttp.StatusOK || env.StatusCode != 200 || env.Status != "OK" {
		t.Fatalf("code=%d env=%+v", code, env)
	}
	if len(env.Data) != 2 || env.Data[0].Key != "Done" || env.Data[0].Count != 3 {
		t.Fatalf("data = %+v", env.Data)
	}
	if env.RequestID == "" {
		t.Fatalf("request id must be echoed")
	}
}

func TestJSONHandler_MapsErrors(t *testing.T) {
	t.Parallel()

	m := analyticsMux(func(_ *stdhttp.Request, in groupInput) (any, error) {
		switch in.Across {
		case "nope":
			return nil, perr.WithField(perr.InvalidArgf("unknown dimension %q", in.Across), "across")
		case "gone":
			return nil, perr.ErrNotFound
		}
		return nil, errors.New("driver exploded")
	})

	cases := []struct {
		name, body  string
		status      int
		code, field string
	}{
		{"bad json", `{"across":`, 400, "json", ""},
		{"unknown field", `{"across":"status","by":"x"}`, 400, "json", ""},
		{"failed rule", `{"calculation":"count"}`, 400, "validation", "across"},
		{"service error", `{"across":"nope"}`, 422, "invalid_argument", "across"},
		{"not found", `{"across":"gone"}`, 404, "not_found", ""},
		{"raw error", `{"across":"status"}`, 500, "unknown", ""},
	}
	for _, c := range cases {
		code, env := serve(t, m, stdhttp.MethodPost, "/analytics/issues/aggregate", c.body)
		if code != c.status || env.StatusCode != c.status {
			t.Fatalf("%s: status %d/%d want %d", c.name, code, env.StatusCode, c.status)
		}
		if env.Code != c.code || env.Field != c.field || env.Error == "" || env.Data != nil {
			t.Fatalf("%s: env = %+v", c.name, env)
		}
	}
}

func TestHandle_DefaultsToOK(t *testing.T) {
	t.Parallel()

	m := chi.NewRouter()
	AdaptChi(m).Get("/describe", Handle(func(*stdhttp.Request) Response {
		return Response{Body: []group{{Key: "issues"}}}
	}))
	code, env := serve(t, m, stdhttp.MethodGet, "/describe", "")
	if code != 200 || env.Status != "OK" || len(env.Data) != 1 {
		t.Fatalf("code=%d env=%+v", code, env)
	}
}

func TestMountProfiler(t *testing.T) {
	t.Parallel()

	off := chi.NewRouter()
	MountProfiler(AdaptChi(off), "/debug", false)
	rec := httptest.NewRecorder()
	off.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/debug/pprof/", nil))
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("disabled profiler served %d", rec.Code)
	}

	on := chi.NewRouter()
	MountProfiler(AdaptChi(on), "/debug", true)
	rec = httptest.NewRecorder()
	on.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/debug/pprof/", nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("profiler index = %d", rec.Code)
	}
}
