package api

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeUpstream4xx            = "UPSTREAM_4XX"
	CodeUpstream5xx            = "UPSTREAM_5XX"
	CodePayloadTooLarge        = "PAYLOAD_TOO_LARGE"
	CodeServiceUnavailable     = "SERVICE_UNAVAILABLE"
	CodeInvalidUpstreamPayload = "INVALID_UPSTREAM_PAYLOAD"
)

// ClientError is the normalized form of every upstream failure. Status is the
// HTTP status the gateway answers with when the error reaches a client.
type ClientError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	ce, ok := AsClientError(err)
	return ok && ce.Code == CodeUpstream4xx && ce.Status == http.StatusNotFound
}

func unavailable(service string, cause error) *ClientError {
	details := map[string]any{"service": service}
	if cause != nil {
		details["cause"] = cause.Error()
	}
	return &ClientError{
		Status:  http.StatusServiceUnavailable,
		Code:    CodeServiceUnavailable,
		Message: service + " unavailable",
		Details: details,
	}
}

func upstream4xx(service string, status int, body any) *ClientError {
	return &ClientError{
		Status:  status,
		Code:    CodeUpstream4xx,
		Message: "Upstream client error",
		Details: map[string]any{"service": service, "upstreamStatus": status, "body": body},
	}
}

func upstream5xx(service string, status int, body any) *ClientError {
	return &ClientError{
		Status:  http.StatusBadGateway,
		Code:    CodeUpstream5xx,
		Message: "Upstream server error",
		Details: map[string]any{"service": service, "upstreamStatus": status, "body": body},
	}
}

func payloadTooLarge(service string, maxBytes int64) *ClientError {
	return &ClientError{
		Status:  http.StatusBadGateway,
		Code:    CodePayloadTooLarge,
		Message: "Response too large",
		Details: map[string]any{"service": service, "maxBytes": maxBytes},
	}
}

func invalidPayload(service string, cause error) *ClientError {
	return &ClientError{
		Status:  http.StatusBadGateway,
		Code:    CodeInvalidUpstreamPayload,
		Message: "Upstream returned an unreadable payload",
		Details: map[string]any{"service": service, "cause": cause.Error()},
	}
}
