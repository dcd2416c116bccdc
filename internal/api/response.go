package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/najdeno/internal/apperr"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps a failure from the engine or the chat channel to a response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.Info("request abandoned", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusRequestTimeout, "request canceled")
		return
	}

	var status int
	switch apperr.Kind(err) {
	case apperr.ErrNotFound:
		status = http.StatusNotFound
	case apperr.ErrForbidden:
		status = http.StatusForbidden
	case apperr.ErrInvalidState:
		status = http.StatusConflict
	case apperr.ErrInvalidInput:
		status = http.StatusBadRequest
	case apperr.ErrStorage:
		slog.Error("storage failure", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	default:
		slog.Error("unexpected error", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Msg != "" {
		msg = ae.Msg
	}
	jsonError(w, status, msg)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid %s", name)
	}
	return id, nil
}

// orEmpty keeps empty lists from encoding as null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
