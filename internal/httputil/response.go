// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/volt/internal/errors"
	"github.com/allisson/volt/internal/metrics"
	"github.com/allisson/volt/internal/requestctx"
)

// RequestIDHeader is the response header carrying the request correlation id.
const RequestIDHeader = "x-ms-request-id"

// VaultError is the error object of the vault envelope.
type VaultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents the vault error envelope {"error":{"code","message"}}.
type ErrorResponse struct {
	Error VaultError `json:"error"`
}

// StatusFromError maps domain errors to HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case apperrors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case apperrors.Is(err, apperrors.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleErrorGin maps domain errors to HTTP status codes and writes the vault error envelope.
// Errors carrying a ServiceError keep their code and message; anything else is reported as
// an internal error without exposing details. The error is logged once here and the
// request is aborted.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode := StatusFromError(err)
	body := VaultError{Code: "InternalError", Message: "An internal error occurred"}
	requestID := requestctx.RequestID(c.Request.Context())

	var serviceErr *apperrors.ServiceError
	if apperrors.As(err, &serviceErr) {
		body = VaultError{Code: serviceErr.Code, Message: serviceErr.Message}
		if serviceErr.RequestID != "" {
			requestID = serviceErr.RequestID
		}
	} else if statusCode != http.StatusInternalServerError {
		body = VaultError{Code: http.StatusText(statusCode), Message: err.Error()}
	}

	if requestID != "" && c.Writer.Header().Get(RequestIDHeader) == "" {
		c.Header(RequestIDHeader, requestID)
	}
	c.Set(metrics.ErrorCodeKey, body.Code)

	if logger != nil {
		level := slog.LevelWarn
		if statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.String("request_id", requestID),
			slog.Int("status_code", statusCode),
			slog.String("error_code", body.Code),
			slog.Any("error", err),
		)
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{Error: body})
}
