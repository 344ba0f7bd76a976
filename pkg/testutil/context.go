package testutil

import (
	"net/http"

	id "schemeflow/pkg/domain"
)

// WithSessionHeader sets the header the request metadata middleware reads the
// caller's session from.
func WithSessionHeader(req *http.Request, sessionID id.SessionID) *http.Request {
	req.Header.Set("X-Session-ID", sessionID.String())
	return req
}

func WithLanguageHeader(req *http.Request, lang string) *http.Request {
	req.Header.Set("Accept-Language", lang)
	return req
}
