package apierr

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/onnwee/resep-nusantara/backend/internal/logger"
)

// ErrorCode represents a structured error code
type ErrorCode string

// Error code constants organized by category
const (
	// AUTH_ - Admin authentication errors
	ErrAuthMissing   ErrorCode = "AUTH_MISSING"
	ErrAuthInvalid   ErrorCode = "AUTH_INVALID"
	ErrAuthForbidden ErrorCode = "AUTH_FORBIDDEN"

	// RECIPE_ - Upstream recipe API errors
	ErrRecipeNotFound    ErrorCode = "RECIPE_NOT_FOUND"
	ErrRecipeUpstream    ErrorCode = "RECIPE_UPSTREAM_FAILED"
	ErrRecipeUnavailable ErrorCode = "RECIPE_UPSTREAM_UNAVAILABLE"
	ErrRecipeMalformed   ErrorCode = "RECIPE_MALFORMED_RESPONSE"

	// USER_ - Favorites and profile errors
	ErrUserInvalidUsername ErrorCode = "USER_INVALID_USERNAME"
	ErrUserStore           ErrorCode = "USER_STORE_FAILED"

	// CACHE_ - Query cache administration errors
	ErrCacheInvalidRequest ErrorCode = "CACHE_INVALID_REQUEST"

	// SYSTEM_ - System and server errors
	ErrSystemInternal    ErrorCode = "SYSTEM_INTERNAL"
	ErrSystemUnavailable ErrorCode = "SYSTEM_UNAVAILABLE"
	ErrSystemTimeout     ErrorCode = "SYSTEM_TIMEOUT"

	// VALIDATION_ - Request validation errors
	ErrValidationInvalidJSON  ErrorCode = "VALIDATION_INVALID_JSON"
	ErrValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrValidationInvalidValue ErrorCode = "VALIDATION_INVALID_VALUE"

	// RESOURCE_ - Resource errors
	ErrResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"

	// RATE_LIMIT_ - Rate limiting errors
	ErrRateLimitGlobal ErrorCode = "RATE_LIMIT_GLOBAL"
	ErrRateLimitIP     ErrorCode = "RATE_LIMIT_IP"
)

// Error represents a structured API error
type Error struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	status    int            // HTTP status code (not serialized)
}

// ErrorResponse is the top-level error response wrapper
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// New creates a new API error
func New(code ErrorCode, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		status:  status,
	}
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// WithRequestID adds a request ID to the error
func (e *Error) WithRequestID(requestID string) *Error {
	e.RequestID = requestID
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Status returns the HTTP status code
func (e *Error) Status() int {
	return e.status
}

// WriteError writes a structured error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

func orDefault(message, def string) string {
	if message == "" {
		return def
	}
	return message
}

// AuthMissing creates an authentication missing error
func AuthMissing(message string) *Error {
	return New(ErrAuthMissing, orDefault(message, "Authentication required"), http.StatusUnauthorized)
}

// AuthInvalid creates an invalid authentication error
func AuthInvalid(message string) *Error {
	return New(ErrAuthInvalid, orDefault(message, "Invalid authentication credentials"), http.StatusUnauthorized)
}

// AuthForbidden creates a forbidden error
func AuthForbidden(message string) *Error {
	return New(ErrAuthForbidden, orDefault(message, "Access forbidden"), http.StatusForbidden)
}

// RecipeNotFound reports an unknown recipe id.
func RecipeNotFound(id string) *Error {
	return New(ErrRecipeNotFound, "Recipe not found", http.StatusNotFound).
		WithDetails(map[string]any{"id": id})
}

// RecipeUpstream reports a failed or unsuccessful upstream call.
func RecipeUpstream(message string) *Error {
	return New(ErrRecipeUpstream, orDefault(message, "Recipe service request failed"), http.StatusBadGateway)
}

// RecipeUnavailable reports an open circuit with nothing cached to serve.
func RecipeUnavailable() *Error {
	return New(ErrRecipeUnavailable, "Recipe service temporarily unavailable", http.StatusServiceUnavailable)
}

// RecipeMalformed reports an upstream body that could not be decoded.
func RecipeMalformed() *Error {
	return New(ErrRecipeMalformed, "Recipe service returned a malformed response", http.StatusBadGateway)
}

// UserInvalidUsername reports a rejected username update.
func UserInvalidUsername(message string) *Error {
	return New(ErrUserInvalidUsername, orDefault(message, "Username must be 1 to 50 characters"), http.StatusBadRequest).
		WithDetails(map[string]any{"field": "username"})
}

// UserStore reports a favorites or profile storage failure.
func UserStore(message string) *Error {
	return New(ErrUserStore, orDefault(message, "User data storage error"), http.StatusInternalServerError)
}

// CacheInvalidRequest reports an invalidation request naming no target.
func CacheInvalidRequest(message string) *Error {
	return New(ErrCacheInvalidRequest, orDefault(message, "Invalid cache invalidation request"), http.StatusBadRequest)
}

// SystemInternal creates an internal server error
func SystemInternal(message string) *Error {
	return New(ErrSystemInternal, orDefault(message, "Internal server error"), http.StatusInternalServerError)
}

// SystemUnavailable creates a service unavailable error
func SystemUnavailable(message string) *Error {
	return New(ErrSystemUnavailable, orDefault(message, "Service unavailable"), http.StatusServiceUnavailable)
}

// SystemTimeout creates a system timeout error
func SystemTimeout(message string) *Error {
	return New(ErrSystemTimeout, orDefault(message, "Request timeout"), http.StatusRequestTimeout)
}

// ValidationInvalidJSON creates an invalid JSON error
func ValidationInvalidJSON() *Error {
	return New(ErrValidationInvalidJSON, "Invalid JSON request body", http.StatusBadRequest)
}

// ValidationMissingField creates a missing field error
func ValidationMissingField(field string) *Error {
	return New(ErrValidationMissingField, "Missing required field: "+field, http.StatusBadRequest).
		WithDetails(map[string]any{"field": field})
}

// ValidationInvalidValue creates an invalid value error
func ValidationInvalidValue(field string, message string) *Error {
	return New(ErrValidationInvalidValue, orDefault(message, "Invalid value for field: "+field), http.StatusBadRequest).
		WithDetails(map[string]any{"field": field})
}

// ResourceNotFound creates a resource not found error
func ResourceNotFound(resourceType string) *Error {
	return New(ErrResourceNotFound, resourceType+" not found", http.StatusNotFound).
		WithDetails(map[string]any{"resource_type": resourceType})
}

// RateLimitGlobal creates a global rate limit error
func RateLimitGlobal() *Error {
	return New(ErrRateLimitGlobal, "Rate limit exceeded - too many requests globally", http.StatusTooManyRequests)
}

// RateLimitIP creates an IP rate limit error
func RateLimitIP() *Error {
	return New(ErrRateLimitIP, "Rate limit exceeded - too many requests from your IP", http.StatusTooManyRequests)
}

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// WriteErrorWithContext writes a structured error response with request ID from context
func WriteErrorWithContext(w http.ResponseWriter, r *http.Request, err *Error) {
	if reqID := GetRequestID(r.Context()); reqID != "" {
		err = err.WithRequestID(reqID)
	}
	WriteError(w, err)
}
