// Package httpkit is what module handlers register through: return style
// route helpers, the tenant on the request and the middleware stacks
package httpkit

import (
	"compress/flate"
	"net/http"
	"strings"
	"time"

	perr "insightsdb/internal/platform/errors"
	pnet "insightsdb/internal/platform/net"
	phttp "insightsdb/internal/platform/net/http"
	"insightsdb/internal/platform/net/middleware"
)

// Router is the platform router seam
type Router = phttp.Router

// Get mounts a bodiless handler whose result is enveloped
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.Handle(func(req *http.Request) phttp.Response {
		out, err := h(req)
		if err != nil {
			return phttp.Error(err)
		}
		return phttp.OK(out)
	}))
}

// PostJSON mounts a handler taking a validated T from the body
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h))
}

// Tenant is the tenant Auth scoped the request to
func Tenant(r *http.Request) (string, error) {
	if tid := pnet.TenantID(r.Context()); tid != "" {
		return tid, nil
	}
	return "", perr.Unauthorizedf("missing tenant scope")
}

// Auth scopes requests with p and answers rejections with the error envelope
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.WriteError)
}

// CommonStack is the server wide stack every api request passes through.
// Auth and tenancy are per module
func CommonStack(cors middleware.CORSOptions) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: time.Second}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(cors),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}

// MountAPI mounts routes under /api/{version} behind mw
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/"+strings.Trim(version, "/"), func(api Router) {
		api.Use(mw...)
		mount(api)
	})
}

func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
