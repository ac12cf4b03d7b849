package middleware

import (
	"net/http"
	"strings"

	perr "insightsdb/internal/platform/errors"
)

// DefaultTenantHeader carries the tenant id when no token based auth is wired
const DefaultTenantHeader = "X-Tenant-ID"

// TenantHeader is an AuthPort that trusts a gateway supplied tenant header
// and an optional user header
type TenantHeader struct {
	Tenant string
	User   string
}

// Parse implements AuthPort
func (h TenantHeader) Parse(r *http.Request) (string, string, error) {
	name := h.Tenant
	if name == "" {
		name = DefaultTenantHeader
	}
	tid := strings.TrimSpace(r.Header.Get(name))
	if tid == "" {
		return "", "", perr.Unauthorizedf("missing %s header", name)
	}
	var uid string
	if h.User != "" {
		uid = strings.TrimSpace(r.Header.Get(h.User))
	}
	return uid, tid, nil
}
