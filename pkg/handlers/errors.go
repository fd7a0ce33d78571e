package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/apperrors"
)

// writeServiceError maps a service layer error to an HTTP error response.
// errorCode names the failed operation for the client.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, errorCode string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	}
	if writeErr := ErrorResponse(w, status, errorCode, err.Error()); writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
