package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"club-gateway/internal/api"
	"club-gateway/internal/constants"

	"github.com/rs/zerolog"
)

const (
	codeInternal        = "INTERNAL_ERROR"
	codeRequestTooLarge = "REQUEST_TOO_LARGE"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writePayload relays an upstream answer with its status and content type.
func writePayload(w http.ResponseWriter, r *http.Request, p *api.Payload) {
	if p.ContentType != "" {
		w.Header().Set(constants.HeaderContentType, p.ContentType)
	}
	w.WriteHeader(p.Status)
	if r.Method == http.MethodHead || len(p.Body) == 0 {
		return
	}
	_, _ = w.Write(p.Body)
}

// writeError renders err in the gateway error envelope. Upstream failures keep
// their status, code and details; anything else is reported as an internal
// error without leaking its message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Code: codeInternal, Message: "Unexpected error"}

	var tooLarge *http.MaxBytesError
	if ce, ok := api.AsClientError(err); ok {
		status = ce.Status
		body = errorBody{Code: ce.Code, Message: ce.Message, Details: ce.Details}
	} else if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
		body = errorBody{
			Code:    codeRequestTooLarge,
			Message: "Request body too large",
			Details: map[string]any{"limit": tooLarge.Limit},
		}
	}

	event := zerolog.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).
		Int("status", status).
		Str("code", body.Code).
		Str("path", r.URL.Path).
		Msg("request failed")

	writeJSON(w, status, errorEnvelope{Error: body})
}
