package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the error type crossing service boundaries.
// Code is a stable machine-readable business code for clients;
// Message is the human message; Err is the internal cause and is
// never serialized.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap turns a low-level error (database, network) into an internal
// AppError so implementation details never leak to clients.
func Wrap(err error, message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// Code bands:
//   40000-40099 business rule violations
//   40100-40199 authentication / authorization
//   40400-40499 not found
//   40900-40999 validation / malformed request
//   50000-50099 internal
const (
	CodeInternal = 50000
	CodeDatabase = 50001
	CodeGateway  = 50002

	CodeUnauthorized = 40100
	CodeInvalidToken = 40101
	CodeForbidden    = 40104

	CodeNotFound           = 40400
	CodeOrderNotFound      = 40401
	CodeProductNotFound    = 40402
	CodeCouponNotFound     = 40403
	CodeSettlementNotFound = 40404
	CodeReturnNotFound     = 40405

	CodeBusiness            = 40000
	CodeInsufficientStock   = 40001
	CodeInvalidStatus       = 40002
	CodeCouponUnavailable   = 40003
	CodeCouponMinimumNotMet = 40004
	CodeCouponExhausted     = 40005
	CodeCouponNotApplicable = 40006
	CodeReturnWindowExpired = 40007
	CodeReturnAlreadyOpen   = 40008
	CodeDuplicateSettlement = 40009
	CodeSettlementImmutable = 40010
	CodeCouponAlreadyIssued = 40011
	CodeReturnQuantity      = 40012
	CodeEmptyOrder          = 40013

	CodeInvalidParams = 40900
	CodeBindError     = 40901
)

// HTTPStatus maps a business code to the HTTP status the REST layer
// should answer with.
func HTTPStatus(code int) int {
	switch {
	case code >= 50000:
		return http.StatusInternalServerError
	case code >= 40400 && code < 40500:
		return http.StatusNotFound
	case code == CodeForbidden:
		return http.StatusForbidden
	case code >= 40100 && code < 40200:
		return http.StatusUnauthorized
	case code == CodeDuplicateSettlement || code == CodeCouponAlreadyIssued:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// From extracts an AppError, wrapping anything else as internal so a
// handler always has a code to answer with.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "internal error")
}
