// Package middleware adapts chi middleware and adds the in house pieces
// analytics routes need: tenant auth, panic recovery and access logs
package middleware

import (
	"net/http"
	"time"

	pstrings "insightsdb/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Middleware is the shape every entry of a stack has
type Middleware = func(http.Handler) http.Handler

func RequestID() Middleware                    { return chimw.RequestID }
func RealIP() Middleware                       { return chimw.RealIP }
func NoCache() Middleware                      { return chimw.NoCache }
func StripSlashes() Middleware                 { return chimw.StripSlashes }
func Timeout(d time.Duration) Middleware       { return chimw.Timeout(d) }
func Heartbeat(path string) Middleware         { return chimw.Heartbeat(path) }
func Throttle(limit int) Middleware            { return chimw.Throttle(limit) }
func AllowContentType(ct ...string) Middleware { return chimw.AllowContentType(ct...) }

// Compress gzips responses for clients that accept it; aggregate pages
// compress well
func Compress(level int) Middleware {
	c := chimw.NewCompressor(level)
	return c.Handler
}

// CORSOptions is the part of go-chi/cors the api exposes
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORS defaults to the methods and headers analytics routes use
func CORS(o CORSOptions) Middleware {
	return chicors.Handler(chicors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   pstrings.IfEmpty(o.AllowedMethods, []string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		AllowedHeaders:   pstrings.IfEmpty(o.AllowedHeaders, []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", DefaultTenantHeader}),
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}
