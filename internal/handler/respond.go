package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"signals-api/internal/service"
	"signals-api/internal/util"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Fields  interface{} `json:"fields,omitempty"`
}

// successResponse creates a successful response
func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// errorResponse creates an error response
func errorResponse(err error, message string) Response {
	resp := Response{
		Success: false,
		Error:   err.Error(),
		Message: message,
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	return resp
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, logger *zap.Logger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, logger *zap.Logger, statusCode int, err error, message string) {
	logger.Warn("HTTP error response",
		util.ErrorField(err),
		util.Int("status_code", statusCode),
		util.String("message", message),
	)
	respondWithJSON(w, logger, statusCode, errorResponse(err, message))
}

// getStatusCode determines the appropriate HTTP status code for an error
func getStatusCode(err error) int {
	if service.IsValidationError(err) {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, service.ErrEmailExists), errors.Is(err, service.ErrNumberExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrSignalNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidCode), errors.Is(err, service.ErrCodeExpired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrDeliveryFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
