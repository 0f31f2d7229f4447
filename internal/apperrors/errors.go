package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnparseableEmail is returned when no amount or description could be pulled from an email.
var ErrUnparseableEmail = errors.New("email does not contain a recognizable transaction")

// ErrAnalyzerUnavailable is returned when the external statement analyzer is not configured.
var ErrAnalyzerUnavailable = errors.New("statement analyzer not configured")

// AppError wraps a lower level error with an HTTP-ish status code and a message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ExistingStatement is the summary reported back when a statement was already ingested.
type ExistingStatement struct {
	ID         string
	BankName   string
	CardType   string
	CutoffDate *time.Time
	CreatedAt  time.Time
}

// DuplicateStatementError is returned by the reconciler when a statement with the
// same fingerprint already exists for the user and overwrite was not requested.
type DuplicateStatementError struct {
	Fingerprint string
	Existing    ExistingStatement
}

func (e *DuplicateStatementError) Error() string {
	return fmt.Sprintf("statement %s already exists (id %s)", e.Fingerprint, e.Existing.ID)
}

// Is lets callers match the error with errors.Is(err, ErrDuplicate).
func (e *DuplicateStatementError) Is(target error) bool {
	return target == ErrDuplicate
}
