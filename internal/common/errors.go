package common

import (
	"errors"
	"net/http"
)

// Error codes shared across the link generation flow.
const (
	CodeConfigMissing      = "CONFIG_MISSING"
	CodeAuthFailed         = "AUTH_FAILED"
	CodeRemoteUnavailable  = "REMOTE_UNAVAILABLE"
	CodeCustomerResolution = "CUSTOMER_RESOLUTION_FAILED"
	CodeCheckoutCreation   = "CHECKOUT_CREATION_FAILED"
	CodeBadRequest         = "BAD_REQUEST"
	CodeInternal           = "INTERNAL"
	CodeUnauthorized       = "UNAUTHORIZED"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// RemoteUnavailable wraps a processor transport or auth failure.
func RemoteUnavailable(message string, err error) *AppError {
	return NewAppError(CodeRemoteUnavailable, message, http.StatusServiceUnavailable, err)
}

// CustomerResolutionFailed signals that the customer lookup or creation step failed.
func CustomerResolutionFailed(err error) *AppError {
	return NewAppError(CodeCustomerResolution, "could not resolve customer", http.StatusBadGateway, err)
}

// CheckoutCreationFailed carries the remote rejection message verbatim for operator visibility.
func CheckoutCreationFailed(remoteMessage string, err error) *AppError {
	appErr := NewAppError(CodeCheckoutCreation, "checkout session was rejected by the processor", http.StatusBadGateway, err)
	if remoteMessage != "" {
		appErr.Details = map[string]string{"remote_message": remoteMessage}
	}
	return appErr
}

// ErrorCode extracts the AppError code, or CodeInternal for plain errors.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return CodeInternal
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
