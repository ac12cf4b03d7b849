package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	pnet "insightsdb/internal/platform/net"
)

func TestTenancy(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name   string
		port   TenancyPort
		tenant string
		want   int
	}{
		{name: "nil port", port: nil, tenant: "acme", want: http.StatusNoContent},
		{name: "empty list admits all", port: AllowedTenants{}, tenant: "acme", want: http.StatusNoContent},
		{name: "listed", port: AllowedTenants{"acme", "globex"}, tenant: "globex", want: http.StatusNoContent},
		{name: "not listed", port: AllowedTenants{"acme"}, tenant: "initech", want: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(pnet.WithTenant(req.Context(), tc.tenant))
			rec := httptest.NewRecorder()
			Tenancy(tc.port)(ok).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
