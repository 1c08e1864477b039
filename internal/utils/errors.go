package utils

import (
	"errors"
	"net/http"
)

// AppError is an error that carries the HTTP status it should be reported with.
type AppError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message}
}

func WrapBadRequestError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message}
}

// WrapInternalError keeps the cause for logging while exposing only message to clients.
func WrapInternalError(message string, err error) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message, Err: err}
}

// AsAppError reports whether err is (or wraps) an AppError.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
