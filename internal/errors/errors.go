package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidInput        ErrorCode = "invalid_input"
	InvalidAmount       ErrorCode = "invalid_amount"
	InsufficientBalance ErrorCode = "insufficient_balance"
	DailyLimitExceeded  ErrorCode = "daily_limit_exceeded"
	AccountNotFound     ErrorCode = "account_not_found"
	PersistenceCorrupt  ErrorCode = "persistence_corrupt"
	InternalError       ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches by code, so errors reconstructed from a remote response compare
// equal to the predefined ones under errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Details: details}
}

// HTTPStatus maps an error code to the status the API responds with.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidInput, InvalidAmount:
		return http.StatusBadRequest
	case AccountNotFound:
		return http.StatusNotFound
	case InsufficientBalance, DailyLimitExceeded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrInvalidAmount       = NewAppError(InvalidAmount, "amount must be positive")
	ErrInsufficientBalance = NewAppError(InsufficientBalance, "insufficient balance")
	ErrDailyLimitExceeded  = NewAppError(DailyLimitExceeded, "daily withdrawal limit exceeded")
	ErrAccountNotFound     = NewAppError(AccountNotFound, "account not found")
	ErrInvalidAccountID    = NewAppError(InvalidInput, "account number must be a positive integer")
	ErrInvalidAccountType  = NewAppError(InvalidInput, "account type must be savings or current")
)
