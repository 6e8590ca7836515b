package apierror

import (
	"fmt"
	"net/http"
)

// Error codes shared across the API surface. Each code maps to exactly one
// HTTP status so clients can tell bad input, denied access, missing targets
// and server faults apart.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidPath        = "INVALID_PATH"
	CodeInvalidName        = "INVALID_NAME"
	CodeTypeMismatch       = "TYPE_MISMATCH"
	CodeNotADirectory      = "NOT_A_DIRECTORY"
	CodeOutOfBounds        = "OUT_OF_BOUNDS"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeForbiddenOperation = "FORBIDDEN_OPERATION"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeUnsupportedMedia   = "UNSUPPORTED_MEDIA"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternal           = "INTERNAL_ERROR"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func InvalidRequest(message string, details string) *APIError {
	return New(CodeInvalidRequest, message, details, http.StatusBadRequest)
}

func InvalidPath(details string) *APIError {
	return New(CodeInvalidPath, "path contains invalid characters or segments", details, http.StatusBadRequest)
}

func InvalidName(details string) *APIError {
	return New(CodeInvalidName, "name is not a valid single path segment", details, http.StatusBadRequest)
}

func TypeMismatch(details string) *APIError {
	return New(CodeTypeMismatch, "entry kind does not match the request", details, http.StatusBadRequest)
}

func NotADirectory(details string) *APIError {
	return New(CodeNotADirectory, "target is not a directory", details, http.StatusBadRequest)
}

func OutOfBounds(details string) *APIError {
	return New(CodeOutOfBounds, "path resolves outside the media root", details, http.StatusForbidden)
}

func PermissionDenied(details string) *APIError {
	return New(CodePermissionDenied, "operation not permitted on this entry", details, http.StatusForbidden)
}

func Forbidden(message string, details string) *APIError {
	return New(CodeForbiddenOperation, message, details, http.StatusForbidden)
}

func Unauthorized(details string) *APIError {
	return New(CodeUnauthorized, "authentication required", details, http.StatusUnauthorized)
}

func NotFound(details string) *APIError {
	return New(CodeNotFound, "no such file or directory", details, http.StatusNotFound)
}

func AlreadyExists(details string) *APIError {
	return New(CodeAlreadyExists, "an entry with this name already exists", details, http.StatusConflict)
}

func UnsupportedMedia(message string, details string) *APIError {
	return New(CodeUnsupportedMedia, message, details, http.StatusUnsupportedMediaType)
}

func Internal(details string) *APIError {
	return New(CodeInternal, "internal server error", details, http.StatusInternalServerError)
}
