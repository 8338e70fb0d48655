package utils

import (
	"fmt"
	"net/http"
)

// AppError is an operational error whose message is safe to show to clients.
type AppError struct {
	Status  int      `json:"-"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Kind is "fail" for client errors and "error" for server errors.
func (e *AppError) Kind() string {
	if e.Status >= 400 && e.Status < 500 {
		return "fail"
	}
	return "error"
}

func NewAppError(status int, message string, details ...string) *AppError {
	return &AppError{Status: status, Message: message, Errors: details}
}

func BadRequest(message string, details ...string) *AppError {
	return NewAppError(http.StatusBadRequest, message, details...)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, message)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message)
}
