package middleware

import (
	"net/http"

	"insightsdb/internal/platform/logger"
	pnet "insightsdb/internal/platform/net"
)

// AuthPort resolves who is calling and which tenant they act for
type AuthPort interface {
	Parse(r *http.Request) (userID string, tenantID string, err error)
}

// Auth puts the caller's tenant and user on the request context and tags the
// request logger with them. fail writes the response when p rejects the
// request. A nil port lets every request through unscoped
func Auth(p AuthPort, fail func(w http.ResponseWriter, r *http.Request, err error)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			uid, tid, err := p.Parse(r)
			if err != nil {
				fail(w, r, err)
				return
			}
			ctx := pnet.WithUser(pnet.WithTenant(r.Context(), tid), uid)
			ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
