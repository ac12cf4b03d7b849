package httpkit

import (
	"net/http"
	"slices"
	"strings"

	perr "insightsdb/internal/platform/errors"
	pnet "insightsdb/internal/platform/net"
	phttp "insightsdb/internal/platform/net/http"
)

// TenancyPort decides whether a request may act for a tenant
type TenancyPort interface {
	Validate(r *http.Request, tenantID string) error
}

// AllowedTenants admits only the listed tenant ids; an empty list admits all
type AllowedTenants []string

// Validate implements TenancyPort
func (a AllowedTenants) Validate(_ *http.Request, tenantID string) error {
	if len(a) == 0 || slices.Contains(a, strings.TrimSpace(tenantID)) {
		return nil
	}
	return perr.Forbiddenf("tenant %q is not served by this instance", tenantID)
}

// Tenancy checks the tenant placed on the context by Auth against p.
// Mount it after Auth
func Tenancy(p TenancyPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := p.Validate(r, pnet.TenantID(r.Context())); err != nil {
				phttp.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
