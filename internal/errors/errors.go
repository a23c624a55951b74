// Package errors provides the AppError type returned by the KPR service layer.
// Handlers render an AppError as {"error":{"code","message"}} and never expose
// the wrapped internal error to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches another AppError by code, so errors.Is(err, ErrOTPExpired) holds
// for wrapped copies of the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
	ErrEmailNotVerified   = &AppError{Code: "EMAIL_NOT_VERIFIED", Message: "Email address has not been verified", StatusCode: http.StatusForbidden}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrRateLimited        = &AppError{Code: "RATE_LIMITED", Message: "Too many requests, please try again later", StatusCode: http.StatusTooManyRequests}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// OTP and password reset errors.
var (
	ErrInvalidOTP        = &AppError{Code: "INVALID_OTP", Message: "The verification code is incorrect", StatusCode: http.StatusBadRequest}
	ErrOTPExpired        = &AppError{Code: "OTP_EXPIRED", Message: "The verification code has expired, request a new one", StatusCode: http.StatusGone}
	ErrOTPCooldown       = &AppError{Code: "OTP_COOLDOWN", Message: "Please wait before requesting another code", StatusCode: http.StatusTooManyRequests}
	ErrInvalidResetToken = &AppError{Code: "INVALID_RESET_TOKEN", Message: "Password reset link is invalid or has expired", StatusCode: http.StatusUnauthorized}
)

// Catalog errors.
var (
	ErrRateNotFound     = &AppError{Code: "RATE_NOT_FOUND", Message: "Interest rate not found", StatusCode: http.StatusNotFound}
	ErrPropertyNotFound = &AppError{Code: "PROPERTY_NOT_FOUND", Message: "Property not found", StatusCode: http.StatusNotFound}
)

// Wizard errors.
var (
	ErrDraftSessionMismatch = &AppError{Code: "DRAFT_SESSION_MISMATCH", Message: "Application draft belongs to another session", StatusCode: http.StatusConflict}
	ErrMissingDocuments     = &AppError{Code: "MISSING_DOCUMENTS", Message: "Required documents are missing", StatusCode: http.StatusUnprocessableEntity}
	ErrInvalidDocument      = &AppError{Code: "INVALID_DOCUMENT", Message: "Document must be a JPEG, PNG or PDF under the size limit", StatusCode: http.StatusBadRequest}
	ErrDraftIncomplete      = &AppError{Code: "DRAFT_INCOMPLETE", Message: "Application draft is incomplete", StatusCode: http.StatusUnprocessableEntity}
	ErrAgreementRequired    = &AppError{Code: "AGREEMENT_REQUIRED", Message: "Both declarations must be accepted before submitting", StatusCode: http.StatusUnprocessableEntity}
)

// Application errors.
var (
	ErrApplicationNotFound     = &AppError{Code: "APPLICATION_NOT_FOUND", Message: "Loan application not found", StatusCode: http.StatusNotFound}
	ErrInvalidStatusTransition = &AppError{Code: "INVALID_STATUS_TRANSITION", Message: "Application status cannot change that way", StatusCode: http.StatusConflict}
)
