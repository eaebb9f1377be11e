package services

import (
	"fmt"
	"net/http"
)

type AppError struct {
	HTTPCode int
	Message  string
	Data     interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(httpCode int, message string, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Message: message, Err: err}
}

func newAppErrorWithData(httpCode int, message string, data interface{}, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Message: message, Data: data, Err: err}
}

// Taxonomy constructors; handlers map HTTPCode straight to the response.

func errNotFound(what string) *AppError {
	return newAppError(http.StatusNotFound, what+" not found", nil)
}

func errValidation(message string) *AppError {
	return newAppError(http.StatusBadRequest, message, nil)
}

func errConflict(message string) *AppError {
	return newAppError(http.StatusConflict, message, nil)
}

func errUnauthorized(message string) *AppError {
	return newAppError(http.StatusUnauthorized, message, nil)
}

func errForbidden(message string) *AppError {
	return newAppError(http.StatusForbidden, message, nil)
}

func errDependenciesExist(message string) *AppError {
	return newAppError(http.StatusBadRequest, message, nil)
}

func errFileTypeNotSupported(contentType string) *AppError {
	return newAppError(http.StatusBadRequest,
		fmt.Sprintf("file type %q is not supported", contentType), nil)
}

// Transactional constraint failures outside the named classes (move
// cycles, FK violations).
func errIntegrity(message string) *AppError {
	return newAppError(http.StatusBadRequest, message, nil)
}

func errInternal(message string, err error) *AppError {
	return newAppError(http.StatusInternalServerError, message, err)
}
