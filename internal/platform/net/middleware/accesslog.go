package middleware

import (
	"net/http"
	"time"

	"insightsdb/internal/platform/logger"
	pnet "insightsdb/internal/platform/net"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLogOptions configures AccessLogZerolog
type AccessLogOptions struct {
	// Slow logs requests at or over this duration at warn; 0 never does
	Slow time.Duration
}

// AccessLogZerolog writes one line per served request. Mount it after
// RequestID so the line and every log under the request carry request_id
func AccessLogZerolog(opt AccessLogOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := logger.WithRequest(r.Context(), pnet.RequestID(r.Context()), "")
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			took := time.Since(start)
			l := logger.C(ctx)
			e := l.Info()
			if opt.Slow > 0 && took >= opt.Slow {
				e = l.Warn()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			// the pattern is known only once routing finished
			if rc := chi.RouteContext(r.Context()); rc != nil {
				e = e.Str("route", rc.RoutePattern())
			}
			e.Int("status", status).
				Dur("elapsed", took).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", ww.BytesWritten()).
				Msg("request done")
		})
	}
}
