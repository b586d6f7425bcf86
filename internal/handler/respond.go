package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dchen/storefront/internal/domain"
	"github.com/dchen/storefront/internal/middleware"
)

// errorResponse is the wire shape for every failed request. Detail carries
// the underlying error text for internal failures and is omitted otherwise.
type errorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

// messageResponse is the wire shape for mutations that only confirm.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing left to do but note it.
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeMessage writes a 200 confirmation body.
func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

// writeError maps a domain error to its HTTP status and body, logging
// internal failures through the request-scoped logger.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := statusFromCode(code)

	logger := middleware.GetLogger(r.Context())
	if code == domain.EINTERNAL {
		logger.Error("request failed",
			slog.String("op", domain.ErrorOp(err)),
			slog.String("error", err.Error()),
		)
	} else {
		logger.Debug("request rejected",
			slog.String("code", code),
			slog.String("message", domain.ErrorMessage(err)),
		)
	}

	writeJSON(w, status, errorResponse{
		Message: domain.ErrorMessage(err),
		Detail:  domain.ErrorDetail(err),
	})
}

// statusFromCode maps domain error codes to HTTP status codes.
func statusFromCode(code string) int {
	switch code {
	case domain.EINVALID, domain.EPRECONDITION:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst, rejecting malformed or
// trailing input.
func decodeJSON(r *http.Request, op string, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid(op, "Invalid request body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return domain.Invalid(op, "Invalid request body")
	}
	return nil
}

// pathID parses a numeric path segment registered with the given name.
func pathID(r *http.Request, op, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Invalid(op, "Invalid "+name)
	}
	return id, nil
}
