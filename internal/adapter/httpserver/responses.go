// Package httpserver contains HTTP handlers and middleware for the interview API.
package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

// errorBody is the error envelope: a client-facing message, the cause when
// useful, and a stable machine code.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return http.StatusInternalServerError, "UPSTREAM_TIMEOUT"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return http.StatusInternalServerError, "UPSTREAM_RATE_LIMIT"
	case errors.Is(err, domain.ErrSchemaInvalid):
		return http.StatusInternalServerError, "SCHEMA_INVALID"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusInternalServerError, "UPSTREAM"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// writeError maps err to a status. Client errors carry their own message;
// server errors use fallback as the message and err as details.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, code := statusFor(err)
	body := errorBody{Code: code}
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		body.Error = ve.Message
	case status < http.StatusInternalServerError:
		body.Error = http.StatusText(status)
		if fallback != "" {
			body.Error = fallback
		}
	default:
		body.Error = fallback
		if body.Error == "" {
			body.Error = http.StatusText(status)
		}
		body.Details = err.Error()
		LoggerFrom(r).Error("request failed", slog.String("code", code), slog.Any("error", err))
	}
	writeJSON(w, status, body)
}
