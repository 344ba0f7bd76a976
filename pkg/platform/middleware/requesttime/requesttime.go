// Package requesttime pins a single "now" for the whole request so that every
// timestamp written while serving it agrees.
package requesttime

import (
	"net/http"
	"time"

	"schemeflow/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
