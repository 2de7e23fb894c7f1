package middleware

import (
	"net/http"
	"time"

	"enrollcam/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLogOptions configures AccessLog
type AccessLogOptions struct {
	// Slow promotes requests at or above this duration to warn; 0 disables
	Slow time.Duration
	// Quiet paths log at debug, eg the status poll
	Quiet []string
}

// AccessLog writes one zerolog line per request and tags the context with the request id
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	quiet := make(map[string]bool, len(opt.Quiet))
	for _, p := range opt.Quiet {
		quiet[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := logger.WithRequest(r.Context(), chimw.GetReqID(r.Context()))
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			elapsed := time.Since(start)
			log := logger.C(ctx)
			evt := log.Info()
			switch {
			case opt.Slow > 0 && elapsed >= opt.Slow:
				evt = log.Warn()
			case quiet[r.URL.Path]:
				evt = log.Debug()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			evt.Int("status", status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", ww.BytesWritten()).
				Msg("request done")
		})
	}
}
