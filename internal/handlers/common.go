package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "brokerdash/internal/errors"
	"brokerdash/internal/services"
)

// errorResponse is the body of every error reply.
type errorResponse struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("encoding response", "error", err)
		}
	}
}

// respondError maps err to an AppError and writes it. Server-side failures
// are logged with their cause; client errors are not.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperrors.AppError
	if errors.Is(err, services.ErrNotConfigured) {
		appErr = apperrors.Unavailable(err.Error(), err)
	} else {
		appErr = apperrors.FromBroker(err)
	}

	status := apperrors.HTTPStatus(appErr)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	msg := appErr.Message
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	respondJSON(w, logger, status, errorResponse{Message: msg, Details: appErr.Details})
}
