package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_shop/internal/auth"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
	"github.com/fjod/go_shop/internal/upload"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func respondUnauthorized(w http.ResponseWriter) {
	respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized", "")
}

// handleServiceError maps domain errors to HTTP responses. Unknown errors are
// logged and reported as 500 without details.
func handleServiceError(ctx context.Context, log *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case service.IsValidation(err), errors.Is(err, repository.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_request", "validation failed", err.Error())
	case errors.Is(err, repository.ErrInsufficientStock):
		respondError(w, http.StatusBadRequest, "insufficient_stock", "insufficient stock", err.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found", err.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found", "")
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidCredentials):
		respondUnauthorized(w)
	case errors.Is(err, upload.ErrInvalidImage):
		respondError(w, http.StatusBadRequest, "invalid_image", "invalid image", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.WarnContext(ctx, "request timed out", "error", err)
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out", "")
	default:
		log.ErrorContext(ctx, "request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error", "")
	}
}
