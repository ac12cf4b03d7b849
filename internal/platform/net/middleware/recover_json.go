package middleware

import (
	stdhttp "net/http"
	"runtime/debug"

	perr "insightsdb/internal/platform/errors"
	"insightsdb/internal/platform/logger"
	phttp "insightsdb/internal/platform/net/http"
)

// RecoverJSON turns a panic into a 500 envelope with code panic and logs the
// stack under the request's id
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == stdhttp.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			phttp.WriteError(w, r, perr.PanicErrf("internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}
