//
//
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/radio-control/wsc/internal/command"
	"github.com/radio-control/wsc/internal/station"
)

// APIError represents an API-layer error with HTTP status code.
type APIError struct {
	Code       string
	Message    string
	Details    interface{}
	StatusCode int
}

// API error codes for transport/security/lookup conditions
var (
	ErrBadRequest        = errors.New("BAD_REQUEST")
	ErrUnauthorizedError = errors.New("UNAUTHORIZED")
	ErrForbiddenError    = errors.New("FORBIDDEN")
	ErrNotFoundError     = errors.New("NOT_FOUND")
)

// ToAPIError converts an error to an API error with HTTP status code and JSON body.
func ToAPIError(err error) (int, []byte) {
	if err == nil {
		return http.StatusOK, nil
	}

	var apiErr *APIError
	var cmdErr *station.CommandError

	// Check if it's already an API error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, marshalErrorResponse(apiErr.Code, apiErr.Message, apiErr.Details)
	}

	// Credential validation failures from the station layer
	if errors.Is(err, station.ErrInvalidSSIDLength) || errors.Is(err, station.ErrInvalidPasswordLength) {
		return http.StatusBadRequest, marshalErrorResponse("INVALID_RANGE", getErrorMessage(err, nil), nil)
	}

	// Modem transport failures carry the failed command in Cause
	if errors.As(err, &cmdErr) {
		details := map[string]interface{}{"stage": cmdErr.Code.Error()}
		if cmdErr.Cause != nil {
			details["transport"] = cmdErr.Cause.Error()
		}
		return http.StatusServiceUnavailable, marshalErrorResponse("UNAVAILABLE", getErrorMessage(cmdErr.Code, err), details)
	}
	if errors.Is(err, station.ErrModeFailed) || errors.Is(err, station.ErrConnectFailed) || errors.Is(err, station.ErrConfigStoreFailed) {
		return http.StatusServiceUnavailable, marshalErrorResponse("UNAVAILABLE", getErrorMessage(err, nil), nil)
	}
	if errors.Is(err, station.ErrUnexpectedWouldBlock) {
		return http.StatusInternalServerError, marshalErrorResponse("INTERNAL", "Modem channel reported would-block during a blocking exchange", nil)
	}

	// Orchestrator-layer errors
	if errors.Is(err, command.ErrNotFound) {
		return http.StatusNotFound, marshalErrorResponse("NOT_FOUND", "Resource not found", nil)
	}
	if errors.Is(err, command.ErrInvalidParameter) {
		return http.StatusBadRequest, marshalErrorResponse("BAD_REQUEST", "Malformed or missing required parameter", nil)
	}
	if errors.Is(err, command.ErrUnavailable) {
		return http.StatusServiceUnavailable, marshalErrorResponse("UNAVAILABLE", "Service is temporarily unavailable", nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, marshalErrorResponse("BUSY", "Command timed out, please retry with backoff", nil)
	}
	if errors.Is(err, ErrUnauthorizedError) {
		return http.StatusUnauthorized, marshalErrorResponse("UNAUTHORIZED", "Authentication required", nil)
	}
	if errors.Is(err, ErrForbiddenError) {
		return http.StatusForbidden, marshalErrorResponse("FORBIDDEN", "Insufficient permissions", nil)
	}
	if errors.Is(err, ErrNotFoundError) {
		return http.StatusNotFound, marshalErrorResponse("NOT_FOUND", "Resource not found", nil)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError, marshalErrorResponse("INTERNAL", "Internal server error", map[string]interface{}{
		"original": err.Error(),
	})
}

// getErrorMessage returns a user-friendly error message for the given error.
func getErrorMessage(code error, original error) string {
	switch {
	case errors.Is(code, station.ErrInvalidSSIDLength):
		return "SSID exceeds the maximum length of 32 bytes"
	case errors.Is(code, station.ErrInvalidPasswordLength):
		return "Password exceeds the maximum length of 63 bytes"
	case errors.Is(code, station.ErrModeFailed):
		return "Modem rejected the station mode command"
	case errors.Is(code, station.ErrConnectFailed):
		return "Modem failed to connect to the access point"
	case errors.Is(code, station.ErrConfigStoreFailed):
		return "Modem rejected the configuration store command"
	case errors.Is(code, ErrUnauthorizedError):
		return "Authentication required"
	case errors.Is(code, ErrForbiddenError):
		return "Insufficient permissions"
	case errors.Is(code, ErrNotFoundError):
		return "Resource not found"
	default:
		if original != nil {
			return original.Error()
		}
		return "Unknown error"
	}
}

// marshalErrorResponse creates a JSON error response with correlation ID.
func marshalErrorResponse(code, message string, details interface{}) []byte {
	response := Response{
		Result:        "error",
		Code:          code,
		Message:       message,
		Details:       details,
		CorrelationID: generateCorrelationID(),
	}

	jsonBytes, err := json.Marshal(response)
	if err != nil {
		// Fallback error response if marshaling fails
		fallback := map[string]interface{}{
			"result":        "error",
			"code":          "INTERNAL",
			"message":       "Failed to marshal error response",
			"correlationId": generateCorrelationID(),
		}
		jsonBytes, _ := json.Marshal(fallback)
		return jsonBytes
	}

	return jsonBytes
}

// NewAPIError creates a new API error.
func NewAPIError(code string, message string, statusCode int, details interface{}) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
