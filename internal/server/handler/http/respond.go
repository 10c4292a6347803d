package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail    string            `json:"detail"`
	ErrorCode string            `json:"error_code"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
	Fields    map[string]string `json:"fields,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
	detail string
}

var errorMappings = []errorMapping{
	{common.ErrDuplicateUsername, http.StatusBadRequest, "DUPLICATE_USERNAME", "Username already registered"},
	{common.ErrDuplicateEmail, http.StatusBadRequest, "DUPLICATE_EMAIL", "Email already registered"},
	{common.ErrMissingToken, http.StatusUnauthorized, "MISSING_TOKEN", "Authentication required. Send 'Authorization: Bearer <token>'"},
	{common.ErrMalformedToken, http.StatusUnauthorized, "MALFORMED_TOKEN", "Invalid authentication token"},
	{common.ErrExpiredToken, http.StatusUnauthorized, "EXPIRED_TOKEN", "Token has expired, please log in again"},
	{common.ErrUnknownSubject, http.StatusUnauthorized, "UNKNOWN_SUBJECT", "Token refers to an unknown or inactive account"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password"},
	{common.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Not authorized to perform this action"},
	{common.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found"},
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and error code. Unknown errors are
// logged and reported as 500 without their message.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	resp := ErrorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	}
	status := http.StatusInternalServerError

	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		resp.ErrorCode = "VALIDATION_ERROR"
		resp.Detail = "Validation failed"
		resp.Fields = verr.Fields
	default:
		resp.ErrorCode = "INTERNAL_ERROR"
		resp.Detail = "Internal server error"
		for _, m := range errorMappings {
			if errors.Is(err, m.target) {
				status, resp.ErrorCode, resp.Detail = m.status, m.code, m.detail
				break
			}
		}
	}

	if status == http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, resp)
}

// ErrorWriter adapts writeError for use by middlewares.
func ErrorWriter(log *zap.Logger) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, r, log, err)
	}
}
