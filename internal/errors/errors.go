package errors

import "net/http"

// APIError is the error shape every handler pushes into gin's error list.
// Status and Internal are kept out of the JSON response body.
type APIError struct {
	Status   int    `json:"-"`
	Message  string `json:"error"`
	Internal error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

func New(status int, message string, err error) *APIError {
	return &APIError{
		Status:   status,
		Message:  message,
		Internal: err,
	}
}

func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, message, err)
}

func Unauthorized(message string, err error) *APIError {
	return New(http.StatusUnauthorized, message, err)
}

func Forbidden(message string, err error) *APIError {
	return New(http.StatusForbidden, message, err)
}

func NotFound(message string, err error) *APIError {
	return New(http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *APIError {
	return New(http.StatusConflict, message, err)
}

func UnprocessableEntity(message string, err error) *APIError {
	return New(http.StatusUnprocessableEntity, message, err)
}

func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, "Internal server error", err)
}

// NewValidationError wraps gin binding failures
func NewValidationError(err error) *APIError {
	return New(http.StatusBadRequest, "Invalid input", err)
}
