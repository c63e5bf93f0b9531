package errors

import (
	"fmt"
)

type ErrorCode string

const (
	Unauthorized       ErrorCode = "unauthorized"
	AlreadyAuthorized  ErrorCode = "already_authorized"
	InvalidCredentials ErrorCode = "invalid_credentials"
	AccountNotFound    ErrorCode = "account_not_found"
	InvalidInput       ErrorCode = "invalid_input"
	InvalidAmount      ErrorCode = "invalid_amount"
	InsufficientCash   ErrorCode = "insufficient_cash"
	AccountOverdrawn   ErrorCode = "account_overdrawn"
	NoSession          ErrorCode = "no_session"
	UnknownCommand     ErrorCode = "unknown_command"
	InternalError      ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
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
	e.Details = details
	return e
}

// Predefined errors for the fixed-message rejections
var (
	ErrUnauthorized       = NewAppError(Unauthorized, "authorization required")
	ErrAlreadyAuthorized  = NewAppError(AlreadyAuthorized, "a session is already active")
	ErrInvalidCredentials = NewAppError(InvalidCredentials, "authorization failed")
	ErrAccountNotFound    = NewAppError(AccountNotFound, "account not found")
	ErrInsufficientCash   = NewAppError(InsufficientCash, "unable to dispense full amount requested at this time")
	ErrAccountOverdrawn   = NewAppError(AccountOverdrawn, "your account is overdrawn, you may not make withdrawals at this time")
	ErrNoSession          = NewAppError(NoSession, "no account is currently authorized")
)
