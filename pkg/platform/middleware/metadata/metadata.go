// Package metadata lifts caller metadata out of HTTP headers and into the
// request context, where services read it through requestcontext.
package metadata

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/httputil"
	"schemeflow/pkg/requestcontext"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"

	maxRequestIDLength = 128
)

type contextKeyClientIP struct{}

// RequestMetadata sets the request ID, the negotiated language, the caller's
// session and client IP on the context. An inbound X-Request-ID is kept so
// traces can be correlated across a proxy; otherwise one is generated. The
// request ID is echoed on the response.
//
// A malformed X-Session-ID is rejected rather than ignored, so a client never
// silently loses its session binding.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = context.WithValue(ctx, contextKeyClientIP{}, ClientIPFromRequest(r))
		if lang := r.Header.Get("Accept-Language"); lang != "" {
			ctx = requestcontext.WithLanguage(ctx, lang)
		}
		if raw := strings.TrimSpace(r.Header.Get(HeaderSessionID)); raw != "" {
			sessionID, err := id.ParseSessionID(raw)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
			ctx = requestcontext.WithSessionID(ctx, sessionID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return ip
	}
	return ""
}

// ClientIPFromRequest extracts the client IP, preferring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// first entry is the original client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		// "ip:port" or "[::1]:port"
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
