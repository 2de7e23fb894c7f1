package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "enrollcam/internal/platform/errors"
	phttp "enrollcam/internal/platform/net/http"
)

// BearerToken guards the control API with a static kiosk token
// An empty token disables the check
func BearerToken(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				phttp.RespondError(w, r, perr.New(perr.ErrorCodeUnauthorized, "missing or invalid control token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
