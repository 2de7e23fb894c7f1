package middleware

import (
	"net/http"
	"runtime/debug"

	perr "enrollcam/internal/platform/errors"
	"enrollcam/internal/platform/logger"
	phttp "enrollcam/internal/platform/net/http"
)

// RecoverJSON turns a handler panic into a 500 envelope and logs the stack
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			reqID := phttp.RequestID(r.Context())
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}
			status, env := phttp.ErrorEnvelope(perr.PanicErrf("internal error"), reqID)
			phttp.JSON(w, status, env)
		}()
		next.ServeHTTP(w, r)
	})
}
