package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies errors for callers deciding whether to retry.
type Kind string

const (
	KindNotFound     Kind = "not_found"    // account or withdrawal unknown
	KindUnauthorized Kind = "unauthorized" // caller is not permitted to act
	KindInvalidInput Kind = "invalid_input"
	KindConflict     Kind = "conflict"  // caller's view of state is stale; re-query before retrying
	KindTransient    Kind = "transient" // safe to retry, no partial mutation occurred
	KindInternal     Kind = "internal"
)

// AppError is a structured error that maps to HTTP responses. Every failure
// the ledger returns is one of these; nothing is silently swallowed.
type AppError struct {
	Code       string `json:"error_code"`
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // wrapped internal error, not exposed to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may safely retry with the same
// arguments. Only transient failures qualify; conflicts require a re-query
// first, and unauthorized/invalid-input failures never succeed on retry.
func (e *AppError) Retryable() bool {
	return e.Kind == KindTransient
}

// New creates a new AppError.
func New(code string, kind Kind, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Kind: kind, Message: message, HTTPStatus: httpStatus}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, kind Kind, message string, httpStatus int, err error) *AppError {
	return &AppError{Code: code, Kind: kind, Message: message, HTTPStatus: httpStatus, Err: err}
}

// CodeOf extracts the AppError code from err, or "" if err is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ---- Not found (ACC) ----

func ErrAccountNotFound() *AppError {
	return New("ACC_001", KindNotFound, "Account not found", http.StatusNotFound)
}

func ErrWithdrawalNotFound() *AppError {
	return New("ACC_002", KindNotFound, "Withdrawal request not found", http.StatusNotFound)
}

// ---- Authorization (AUTHZ) ----

func ErrNotAnOwner() *AppError {
	return New("AUTHZ_001", KindUnauthorized, "Caller is not an owner of this account", http.StatusForbidden)
}

func ErrSelfApproval() *AppError {
	return New("AUTHZ_002", KindUnauthorized, "Requester cannot approve their own withdrawal", http.StatusForbidden)
}

func ErrInvalidToken() *AppError {
	return New("AUTHZ_003", KindUnauthorized, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Input validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", KindInvalidInput, "Amount must be a positive integer", http.StatusBadRequest)
}

func ErrInvalidOwners(reason string) *AppError {
	return New("VAL_002", KindInvalidInput, fmt.Sprintf("Invalid owner set: %s", reason), http.StatusBadRequest)
}

// Validation returns a VAL_003 request-shape validation error.
func Validation(message string) *AppError {
	return New("VAL_003", KindInvalidInput, message, http.StatusBadRequest)
}

// ---- State conflicts (CONF) ----

func ErrAlreadyExecuted() *AppError {
	return New("CONF_001", KindConflict, "Withdrawal has already been executed", http.StatusConflict)
}

func ErrQuorumNotMet(have, need int) *AppError {
	return New("CONF_002", KindConflict,
		fmt.Sprintf("Quorum not met: %d of %d required approvals", have, need), http.StatusConflict)
}

func ErrInsufficientBalance() *AppError {
	return New("CONF_003", KindConflict, "Insufficient account balance", http.StatusConflict)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", KindTransient, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", KindInternal, "Internal server error", http.StatusInternalServerError, err)
}

// ErrBusy indicates the per-account lock could not be acquired within the
// configured bound. No mutation occurred; the caller may retry.
func ErrBusy(err error) *AppError {
	return Wrap("SYS_002", KindTransient, "Account is busy, try again", http.StatusServiceUnavailable, err)
}
