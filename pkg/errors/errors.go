package errors

import (
	"fmt"
	"net/http"
)

// Error codes returned to callers. The code is the machine-readable kind;
// the message is for humans and may change without notice.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInactive          = "INACTIVE"
	CodeEnded             = "ENDED"
	CodeNotYetAvailable   = "NOT_YET_AVAILABLE"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeAlreadyCanceled   = "ALREADY_CANCELED"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeCapacityExceeded  = "CAPACITY_EXCEEDED"
	CodeSlotFull          = "SLOT_FULL"
	CodeTimeConflict      = "MEMBER_TIME_CONFLICT"
	CodeNoAvailability    = "NO_AVAILABILITY_SLOT"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeValidation        = "VALIDATION_ERROR"
	CodeStorage           = "STORAGE_FAILURE"
	CodeTimeout           = "TIMEOUT"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Inactive(resource string) *AppError {
	return New(CodeInactive, fmt.Sprintf("%s is not active", resource), http.StatusConflict)
}

func Ended(resource string) *AppError {
	return New(CodeEnded, fmt.Sprintf("%s is no longer available", resource), http.StatusConflict)
}

func NotYetAvailable(resource string) *AppError {
	return New(CodeNotYetAvailable, fmt.Sprintf("%s is not yet available", resource), http.StatusConflict)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusForbidden)
}

func AlreadyRegistered(message string) *AppError {
	return New(CodeAlreadyRegistered, message, http.StatusConflict)
}

func AlreadyCanceled(message string) *AppError {
	return New(CodeAlreadyCanceled, message, http.StatusConflict)
}

func InvalidTransition(message string) *AppError {
	return New(CodeInvalidTransition, message, http.StatusConflict)
}

func CapacityExceeded(message string) *AppError {
	return New(CodeCapacityExceeded, message, http.StatusConflict)
}

func SlotFull(message string) *AppError {
	return New(CodeSlotFull, message, http.StatusConflict)
}

func TimeConflict(message string) *AppError {
	return New(CodeTimeConflict, message, http.StatusConflict)
}

func NoAvailability(message string) *AppError {
	return New(CodeNoAvailability, message, http.StatusNotFound)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

func Validation(message string, details map[string]any) *AppError {
	return New(CodeValidation, message, http.StatusUnprocessableEntity).WithDetails(details)
}

func Storage(message string, err error) *AppError {
	return &AppError{
		Code:       CodeStorage,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message, http.StatusGatewayTimeout)
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError returns err as an *AppError, wrapping unknown errors as a
// storage failure so the original cause is never lost.
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Storage("An unexpected error occurred", err)
}
