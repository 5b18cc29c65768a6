package apperrors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the application error envelope. Domain names the subsystem
// the error originated in ("ingest", "delivery", "matching", ...).
type AppError struct {
	Code    ErrorCode
	Domain  string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s (%v)", e.Domain, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Domain, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError without an underlying cause.
func New(code ErrorCode, domain, message string) *AppError {
	return &AppError{Code: code, Domain: domain, Message: message}
}

// Wrap attaches an underlying error to an AppError.
func Wrap(err error, code ErrorCode, domain, message string) *AppError {
	return &AppError{Code: code, Domain: domain, Message: message, Err: err}
}

// Is forwards to the standard errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As forwards to the standard errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// AsAppError extracts an *AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
