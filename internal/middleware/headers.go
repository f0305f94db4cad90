package middleware

import (
	"net/http"

	"club-gateway/internal/constants"
)

var forwardedHeaders = []string{
	constants.HeaderContentType,
	constants.HeaderAccept,
	constants.HeaderAuthorization,
	constants.HeaderRequestID,
}

// BuildForwardHeaders picks the inbound headers that are passed on to upstream
// services. When the caller sent no request id, the one assigned by RequestID
// is used instead.
func BuildForwardHeaders(r *http.Request) http.Header {
	out := make(http.Header, len(forwardedHeaders))
	for _, key := range forwardedHeaders {
		if v := r.Header.Get(key); v != "" {
			out.Set(key, v)
		}
	}
	if out.Get(constants.HeaderRequestID) == "" {
		if id := GetRequestID(r.Context()); id != "" {
			out.Set(constants.HeaderRequestID, id)
		}
	}
	return out
}
