package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Application error codes. These are stable machine-readable identifiers,
// independent of the HTTP status carried alongside them.
const (
	CodeInternal   = 500
	CodeValidation = 10001
	CodeDuplicate  = 10002
	CodeNotFound   = 10003
)

// AppError standardizes application errors. HTTPStatus drives the transport
// response; ErrorCode lets clients branch without parsing HTTP semantics.
type AppError struct {
	HTTPStatus int
	ErrorCode  int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError with explicit status and code.
func NewAppError(status, errorCode int, message string) *AppError {
	return &AppError{HTTPStatus: status, ErrorCode: errorCode, Message: message}
}

func NewValidationError(message string) error {
	return NewAppError(http.StatusBadRequest, CodeValidation, message)
}

func NewDuplicateError(message string) error {
	return NewAppError(http.StatusBadRequest, CodeDuplicate, message)
}

func NewNotFoundError(message string) error {
	return NewAppError(http.StatusNotFound, CodeNotFound, message)
}

func NewInternalError(err error) error {
	return &AppError{
		HTTPStatus: http.StatusInternalServerError,
		ErrorCode:  CodeInternal,
		Message:    "Internal server error!",
		Err:        err,
	}
}

// ToAppError converts any error to an AppError, defaulting to a 500 with the
// generic internal message when the error carries no status of its own.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Message == "" {
			appErr.Message = "Internal server error!"
		}
		return appErr
	}
	return &AppError{
		HTTPStatus: http.StatusInternalServerError,
		ErrorCode:  CodeInternal,
		Message:    "Internal server error!",
		Err:        err,
	}
}
