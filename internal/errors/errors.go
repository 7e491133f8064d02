// Package errors defines the (status, message) error type shared by the auth
// service and the sentinel values returned by its flows.
package errors

import (
	"errors"
	"net/http"
)

// AppError carries the HTTP status and the client-visible message of a failure.
// Err keeps the underlying cause for logging and is never sent to clients.
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

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports a match for any AppError with the same status and message, so
// copies made by WithCause still satisfy errors.Is against their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Message == t.Message
}

// WithMessage returns a copy of the error with a custom message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{StatusCode: e.StatusCode, Message: message, Err: e.Err}
}

// WithCause returns a copy of the error that wraps err.
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{StatusCode: e.StatusCode, Message: e.Message, Err: err}
}

// New creates an AppError with the given status and message.
func New(statusCode int, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message}
}

// Wrap creates an AppError that keeps err as its cause.
func Wrap(statusCode int, message string, err error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Err: err}
}

// As reports whether err is (or wraps) an AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

var (
	ErrBadRequest            = New(http.StatusBadRequest, "Invalid request")
	ErrUserAlreadyExists     = New(http.StatusBadRequest, "User already exists.")
	ErrUsernameTaken         = New(http.StatusBadRequest, "Username already taken")
	ErrPhoneTaken            = New(http.StatusBadRequest, "Phone number already in use")
	ErrInvalidIdentifier     = New(http.StatusBadRequest, "Please provide a valid email or phone number")
	ErrInvalidOrExpiredToken = New(http.StatusBadRequest, "Invalid or expired token")
	ErrPasswordUnchanged     = New(http.StatusBadRequest, "New password must be different from the current password")
	ErrInvalidPhone          = New(http.StatusBadRequest, "Please provide a valid phone number")
	ErrNothingToUpdate       = New(http.StatusBadRequest, "No fields to update")

	ErrUnauthenticated     = New(http.StatusUnauthorized, "Unauthorized request")
	ErrInvalidCredentials  = New(http.StatusUnauthorized, "Invalid credentials")
	ErrTokenExpired        = New(http.StatusUnauthorized, "Access token expired")
	ErrTokenInvalid        = New(http.StatusUnauthorized, "Invalid access token")
	ErrTokenTypeMismatch   = New(http.StatusUnauthorized, "Invalid token type")
	ErrSessionRevoked      = New(http.StatusUnauthorized, "Session has been revoked")
	ErrRefreshTokenMissing = New(http.StatusUnauthorized, "Refresh token is required")
	ErrRefreshTokenInvalid = New(http.StatusUnauthorized, "Refresh token is invalid or has been revoked")
	ErrRefreshTokenExpired = New(http.StatusUnauthorized, "Refresh token expired")
	ErrWrongPassword       = New(http.StatusUnauthorized, "Current password is incorrect")
	ErrIdentityInvalid     = New(http.StatusUnauthorized, "Invalid identity token")

	ErrForbidden            = New(http.StatusForbidden, "You don't have permission to perform this action")
	ErrAccountInactive      = New(http.StatusForbidden, "Your account has been deactivated")
	ErrPendingApproval      = New(http.StatusForbidden, "Account pending approval")
	ErrEmailNotVerified     = New(http.StatusForbidden, "Please verify your email.")
	ErrCannotDeleteAdmin    = New(http.StatusForbidden, "Admin accounts cannot be deleted")
	ErrCannotModifySelf     = New(http.StatusForbidden, "You cannot perform this action on your own account")
	ErrFederatedAdminDenied = New(http.StatusForbidden, "Admin accounts must sign in with email and password")

	ErrUserNotFound = New(http.StatusNotFound, "User not found")

	ErrTooManyLoginAttempts = New(http.StatusTooManyRequests, "Too many failed login attempts. Please try again later.")

	ErrEmailSendFailed        = New(http.StatusInternalServerError, "Failed to send reset email")
	ErrVerificationSendFailed = New(http.StatusInternalServerError, "Failed to send verification email")
	ErrInternal               = New(http.StatusInternalServerError, "Internal server error")

	ErrFederatedUnavailable = New(http.StatusServiceUnavailable, "Google sign-in is not available")
)
