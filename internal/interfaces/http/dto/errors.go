package dto

import (
	"net/http"
	"strings"
)

// Generic error codes, ERR_<CATEGORY>. Marketplace codes raised by the
// domain (BID_TOO_LOW, OTP_EXPIRED, ...) reach clients unchanged.
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeBodyTooLarge        = "ERR_BODY_TOO_LARGE"
	ErrCodeUnauthorized        = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired        = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid        = "ERR_TOKEN_INVALID"
	ErrCodeForbidden           = "ERR_FORBIDDEN"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
)

// codeStatus maps every known code, generic or marketplace, to its status
var codeStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeBodyTooLarge:        http.StatusRequestEntityTooLarge,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeTokenExpired:        http.StatusUnauthorized,
	ErrCodeTokenInvalid:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeRateLimited:         http.StatusTooManyRequests,

	// sessions
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"INVALID_TOKEN":       http.StatusUnauthorized,
	"TOKEN_REVOKED":       http.StatusUnauthorized,
	"USER_LOCKED":         http.StatusLocked,
	"USER_SUSPENDED":      http.StatusForbidden,
	"EMAIL_NOT_VERIFIED":  http.StatusForbidden,
	"NOT_APPROVED":        http.StatusForbidden,
	"NOT_A_SELLER":        http.StatusUnprocessableEntity,
	"CANNOT_SUSPEND_SELF": http.StatusForbidden,

	// registration
	"EMAIL_EXISTS":          http.StatusConflict,
	"USERNAME_EXISTS":       http.StatusConflict,
	"ALREADY_VERIFIED":      http.StatusConflict,
	"ALREADY_APPROVED":      http.StatusConflict,
	"ALREADY_SUSPENDED":     http.StatusConflict,
	"NOT_SUSPENDED":         http.StatusConflict,
	"OTP_INVALID":           http.StatusBadRequest,
	"OTP_EXPIRED":           http.StatusBadRequest,
	"OTP_ATTEMPTS_EXCEEDED": http.StatusTooManyRequests,
	"OTP_THROTTLED":         http.StatusTooManyRequests,

	// bidding
	"BID_TOO_LOW":         http.StatusConflict,
	"ALREADY_LEADING":     http.StatusConflict,
	"SELF_BID":            http.StatusForbidden,
	"INVALID_AMOUNT":      http.StatusBadRequest,
	"AUCTION_NOT_ACTIVE":  http.StatusUnprocessableEntity,
	"AUCTION_NOT_STARTED": http.StatusUnprocessableEntity,
	"AUCTION_CLOSED":      http.StatusUnprocessableEntity,
	"AUCTION_RUNNING":     http.StatusUnprocessableEntity,

	// listings
	"PRODUCT_HAS_BIDS":       http.StatusUnprocessableEntity,
	"TOO_MANY_IMAGES":        http.StatusUnprocessableEntity,
	"IMAGE_NOT_UPLOADED":     http.StatusUnprocessableEntity,
	"UNSUPPORTED_IMAGE_TYPE": http.StatusBadRequest,
	"STORAGE_DISABLED":       http.StatusServiceUnavailable,
}

// sharedCodes renames the generic codes of shared.DomainError
var sharedCodes = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
}

// GetHTTPStatus returns the status for a known code, 500 otherwise
func GetHTTPStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorStatus is GetHTTPStatus for codes raised by domain errors.
// Unmapped INVALID_* codes are field validation failures (400); any other
// unmapped code is a broken business rule (422).
func DomainErrorStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

// NormalizeErrorCode maps shared domain codes to ERR_ codes and leaves
// everything else alone
func NormalizeErrorCode(code string) string {
	if mapped, ok := sharedCodes[code]; ok {
		return mapped
	}
	return code
}
