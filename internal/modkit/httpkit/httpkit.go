// Package httpkit composes the control API middleware and version mounts
package httpkit

import (
	"net/http"
	"time"

	phttp "enrollcam/internal/platform/net/http"
	"enrollcam/internal/platform/net/middleware"
)

// Router aliases the platform router seam
type Router = phttp.Router

// StackOptions tunes CommonStack
type StackOptions struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

// CommonStack is the baseline middleware for the control API, outermost first
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: time.Second, Quiet: []string{"/v1/capture"}}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.AllowedOrigins}),
		middleware.Heartbeat("/health"),
		middleware.Timeout(timeout),
	}
}

// MountUnder mounts a subrouter at prefix with per-scope middleware
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(prefix, func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	})
}

// MountAPIV1 mounts under /v1; mw applies only to that scope
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountUnder(r, "/v1", mw, mount)
}

// Protected guards a scope with the kiosk bearer token
func Protected(token string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{middleware.BearerToken(token)}
}
