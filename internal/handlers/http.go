package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/evote/internal/errors"
	"github.com/abrezinsky/evote/pkg/facerec"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDuplicate          = "DUPLICATE"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrCodeExternal           = "EXTERNAL_SERVICE_ERROR"
	ErrCodeCameraUnavailable  = "CAMERA_UNAVAILABLE"
	ErrCodeFaceNotRecognized  = "FACE_NOT_RECOGNIZED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status  int    `json:"-"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// PayloadTooLarge creates a 413 error naming the body limit
func PayloadTooLarge(limit int64) *APIError {
	return NewAPIError(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, fmt.Sprintf("Request body exceeds %d bytes", limit))
}

// Unauthorized creates a 401 error with custom message
func Unauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden creates a 403 error with custom message
func Forbidden(message string) *APIError {
	return NewAPIError(http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return NewAPIError(http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict creates a 409 error with custom message
func Conflict(message string) *APIError {
	return NewAPIError(http.StatusConflict, ErrCodeConflict, message)
}

// InternalError creates a 500 error. The cause is never sent to clients.
func InternalError() *APIError {
	return NewAPIError(http.StatusInternalServerError, ErrCodeInternalServer, "Internal server error")
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

// respondSuccess writes a 200 OK with a message
func respondSuccess(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, MessageResponse{Success: true, Message: message})
}

// respondError converts err and writes it. Server-side failures are logged
// with their cause.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := ToAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.Log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", apiErr.Status, "error", err)
	}
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes a JSON request body of at most maxUpload bytes into the
// target
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return PayloadTooLarge(tooLarge.Limit)
		case err == io.EOF:
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// pathParam returns a trimmed, required URL parameter
func pathParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		return "", BadRequest("Missing " + name + " parameter")
	}
	return v, nil
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		return InternalError()
	}

	switch appErr.Kind {
	case errors.ErrNotFound:
		return NotFound(appErr.Message)
	case errors.ErrValidation, errors.ErrInvalidInput:
		return NewAPIError(http.StatusBadRequest, ErrCodeValidation, appErr.Message)
	case errors.ErrDuplicate:
		return NewAPIError(http.StatusBadRequest, ErrCodeDuplicate, appErr.Message)
	case errors.ErrConflict:
		return Conflict(appErr.Message)
	case errors.ErrInvalidTransition:
		return NewAPIError(http.StatusConflict, ErrCodeInvalidTransition, appErr.Message)
	case errors.ErrExternal:
		return externalError(appErr)
	default:
		return InternalError()
	}
}

// externalError maps face recognition failures more precisely than a 502
func externalError(appErr *errors.Error) *APIError {
	switch {
	case stderrors.Is(appErr.Err, facerec.ErrNoCamera):
		return NewAPIError(http.StatusServiceUnavailable, ErrCodeCameraUnavailable, appErr.Message)
	case stderrors.Is(appErr.Err, facerec.ErrNoFace),
		stderrors.Is(appErr.Err, facerec.ErrNoMatch),
		stderrors.Is(appErr.Err, facerec.ErrNoFaceData):
		return NewAPIError(http.StatusBadRequest, ErrCodeFaceNotRecognized, appErr.Message)
	}
	return NewAPIError(http.StatusBadGateway, ErrCodeExternal, appErr.Message)
}
