// Package response provides JSON response helpers for handlers that bypass
// the OpenAPI layer, such as multipart uploads and file downloads.
package response

import (
	"encoding/json/v2"
	"errors"
	"net/http"

	domainerrors "github.com/edubase4teachers/edubase-server/internal/errors"
	"github.com/edubase4teachers/edubase-server/internal/logger"
)

// JSON writes a JSON response with the given status code using json/v2.
func JSON(w http.ResponseWriter, status int, data any, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, data); err != nil {
		if log != nil {
			log.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, log *logger.Logger) {
	JSON(w, http.StatusOK, data, log)
}

// Created writes a created response (201 Created).
func Created(w http.ResponseWriter, data any, log *logger.Logger) {
	JSON(w, http.StatusCreated, data, log)
}

// NoContent writes a no content response (204 No Content).
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// errorBody mirrors the error shape produced by the OpenAPI error handler so
// clients see one format regardless of which path served them.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, code, message string, log *logger.Logger) {
	JSON(w, status, errorBody{Code: code, Message: message}, log)
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(w http.ResponseWriter, message string, log *logger.Logger) {
	Error(w, http.StatusBadRequest, string(domainerrors.CodeValidation), message, log)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, log *logger.Logger) {
	Error(w, http.StatusUnauthorized, string(domainerrors.CodeUnauthorized), message, log)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, log *logger.Logger) {
	Error(w, http.StatusTooManyRequests, string(domainerrors.CodeTooManyRequests), message, log)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, log *logger.Logger) {
	Error(w, http.StatusInternalServerError, string(domainerrors.CodeInternal), message, log)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain errors carry their own status and code; anything else becomes 500.
func HandleError(w http.ResponseWriter, err error, log *logger.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		JSON(w, domainErr.HTTPStatus(), errorBody{
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}, log)
		return
	}

	if log != nil {
		log.Error("Unhandled error", "error", err)
	}
	InternalError(w, "internal server error", log)
}
